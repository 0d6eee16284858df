package xvpn

import "encoding/json"

// Status is the client's best-known copy of the remote VPN status. It is
// replaced wholesale by full status payloads and patched field-by-field as
// partial events arrive. Only the dispatch goroutine writes it; everyone
// else reads value copies.
type Status struct {
	// State is the service state machine's current state.
	State ConnectionState
	// CurrentLocation is the endpoint currently connected to, if any.
	CurrentLocation *Location
	// SelectedLocation is the endpoint the next connect will target.
	SelectedLocation SelectedLocation
	// LastLocation is the most recently used endpoint, if any.
	LastLocation *Location
	// LatestVersion is the upstream application version payload, kept
	// opaque; the client only surfaces it.
	LatestVersion json.RawMessage
}

// statusFromInfo builds a full replacement snapshot from an `info`
// payload. An unknown state label leaves State as StateUnknown; the caller
// decides whether that is worth logging.
func statusFromInfo(info *statusInfo) Status {
	state, _ := ParseState(info.State)
	return Status{
		State:            state,
		CurrentLocation:  info.CurrentLocation,
		SelectedLocation: info.SelectedLocation,
		LastLocation:     info.LastLocation,
		LatestVersion:    info.LatestVersion,
	}
}

// patchState returns prev with only the state replaced.
func patchState(prev Status, state ConnectionState) Status {
	next := prev
	next.State = state
	return next
}

// patchSelectedLocation returns prev with only the selected location
// replaced; current location and state are untouched.
func patchSelectedLocation(prev Status, sel SelectedLocation) Status {
	next := prev
	next.SelectedLocation = sel
	return next
}
