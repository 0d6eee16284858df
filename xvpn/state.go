package xvpn

import "strings"

// ConnectionState is the VPN service state reported by the helper.
// Transitions are only ever observed via ServiceStateChanged events and
// full status payloads, never predicted locally.
type ConnectionState string

const (
	StateUnknown              ConnectionState = ""
	StateActivated            ConnectionState = "activated"
	StateReady                ConnectionState = "ready"
	StateConnecting           ConnectionState = "connecting"
	StateReconnecting         ConnectionState = "reconnecting"
	StateConnected            ConnectionState = "connected"
	StateDisconnecting        ConnectionState = "disconnecting"
	StateInternalError        ConnectionState = "internal_error"
	StateNetworkError         ConnectionState = "network_error"
	StateFraudster            ConnectionState = "fraudster"
	StateSubscriptionExpired  ConnectionState = "subscription_expired"
	StateLicenseRevoked       ConnectionState = "license_revoked"
	StateActivationError      ConnectionState = "activation_error"
	StateDuplicateLicenseUsed ConnectionState = "duplicate_license_used"
	StateConnectionError      ConnectionState = "connection_error"
	StateNotActivated         ConnectionState = "not_activated"
)

// knownStates maps lowercase labels to states. The helper is not strict
// about casing, so lookups normalize first.
var knownStates = map[string]ConnectionState{
	"activated":              StateActivated,
	"ready":                  StateReady,
	"connecting":             StateConnecting,
	"reconnecting":           StateReconnecting,
	"connected":              StateConnected,
	"disconnecting":          StateDisconnecting,
	"internal_error":         StateInternalError,
	"network_error":          StateNetworkError,
	"fraudster":              StateFraudster,
	"subscription_expired":   StateSubscriptionExpired,
	"license_revoked":        StateLicenseRevoked,
	"activation_error":       StateActivationError,
	"duplicate_license_used": StateDuplicateLicenseUsed,
	"connection_error":       StateConnectionError,
	"not_activated":          StateNotActivated,
}

// ParseState matches a server-provided state label case-insensitively
// against the known states. Unknown labels return (StateUnknown, false)
// rather than an error; the dispatcher logs and ignores them.
func ParseState(label string) (ConnectionState, bool) {
	state, ok := knownStates[strings.ToLower(strings.TrimSpace(label))]
	return state, ok
}

// String returns a human-readable representation of the state.
func (s ConnectionState) String() string {
	if s == StateUnknown {
		return "Unknown"
	}

	label := strings.ReplaceAll(string(s), "_", " ")
	label = strings.ToUpper(label[:1]) + label[1:]

	switch s {
	case StateConnecting, StateReconnecting, StateDisconnecting:
		return label + "..."
	default:
		return label
	}
}

// IsError reports whether the state is a terminal error condition rather
// than a phase of normal operation.
func (s ConnectionState) IsError() bool {
	switch s {
	case StateInternalError, StateNetworkError, StateFraudster,
		StateSubscriptionExpired, StateLicenseRevoked, StateActivationError,
		StateDuplicateLicenseUsed, StateConnectionError, StateNotActivated:
		return true
	default:
		return false
	}
}
