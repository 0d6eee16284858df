// Package common provides shared constants, types, and utilities
// used across the xvpnctl application.
package common

// Logger defines the interface for structured logging.
type Logger interface {
	// Debug logs a debug message.
	Debug(msg string, args ...interface{})
	// Info logs an informational message.
	Info(msg string, args ...interface{})
	// Warn logs a warning message.
	Warn(msg string, args ...interface{})
	// Error logs an error message.
	Error(msg string, args ...interface{})
}

// Notifier defines the interface for sending desktop notifications.
type Notifier interface {
	// Notify sends a notification with the given title and message.
	Notify(title, message string) error
	// NotifyWithIcon sends a notification with a custom icon.
	NotifyWithIcon(title, message, icon string) error
}

// ManifestResolver resolves a native messaging host name to its manifest.
// Implementations search the browser-specific manifest directories of the
// current platform.
type ManifestResolver interface {
	// Resolve finds the manifest for the named helper.
	Resolve(name string) (*ManifestData, error)
}

// ManifestData is the resolved native messaging host descriptor.
// Immutable after load.
type ManifestData struct {
	// Name is the host name, e.g. "com.expressvpn.helper".
	Name string `json:"name"`
	// Description is the human-readable host description.
	Description string `json:"description"`
	// Path is the absolute path to the helper executable.
	Path string `json:"path"`
	// Type is the transport kind; only "stdio" is supported.
	Type string `json:"type"`
	// AllowedExtensions lists Firefox extension ids allowed to talk to the host.
	AllowedExtensions []string `json:"allowed_extensions,omitempty"`
	// AllowedOrigins lists Chrome extension origins allowed to talk to the host.
	AllowedOrigins []string `json:"allowed_origins,omitempty"`
	// SourcePath is the manifest file this descriptor was loaded from; the
	// helper receives it as its first argument.
	SourcePath string `json:"-"`
}

// FirstExtension returns the first allowed extension or origin, which the
// helper expects as its second positional argument.
func (m *ManifestData) FirstExtension() string {
	if len(m.AllowedExtensions) > 0 {
		return m.AllowedExtensions[0]
	}
	if len(m.AllowedOrigins) > 0 {
		return m.AllowedOrigins[0]
	}
	return ""
}
