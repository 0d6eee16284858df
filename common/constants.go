// Package common provides shared constants, types, and utilities
// used across the xvpnctl application.
package common

import "time"

// Application metadata.
const (
	// AppName is the display name of the application.
	AppName = "xvpnctl"
	// ConfigDirName is the name of the configuration directory.
	ConfigDirName = "xvpnctl"
	// DefaultHelperName is the native messaging host looked up when the
	// configuration does not name one.
	DefaultHelperName = "com.expressvpn.helper"
)

// File names used by the application.
const (
	ConfigFileName = "config.yaml"
	LogFileName    = "xvpnctl.log"
)

// Default timeouts and intervals for the helper protocol.
const (
	// ResponseTimeout bounds a single request/notification round-trip.
	ResponseTimeout = 10 * time.Second
	// ConnectTimeout is the maximum time to wait for a connection.
	ConnectTimeout = 30 * time.Second
	// DisconnectTimeout is the maximum time to wait for a disconnect.
	DisconnectTimeout = 15 * time.Second
	// ConnectPollInterval is how often the connect workflow re-checks state.
	ConnectPollInterval = 20 * time.Millisecond
	// DisconnectPollInterval is how often the disconnect workflow re-checks state.
	DisconnectPollInterval = 200 * time.Millisecond
	// DispatchInterval is how often the dispatch loop drains the inbound queue.
	DispatchInterval = 10 * time.Millisecond
)

// Wire format limits.
const (
	// MaxMessageSize is the largest frame the helper may send. Frames
	// declaring a larger length are a fatal protocol violation.
	MaxMessageSize = 1024 * 1024
	// ReceiveQueueSize is the capacity of the inbound message queue.
	ReceiveQueueSize = 64
)

// Native messaging transport kinds.
const (
	// TransportStdio is the only supported manifest transport type.
	TransportStdio = "stdio"
)
