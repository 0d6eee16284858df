// Package common provides shared constants, types, utilities, and interfaces
// used throughout the xvpnctl application.
//
// This package serves as the foundation for cross-cutting concerns:
//
//   - Constants: Application-wide constants like protocol timeouts and limits
//   - Errors: Sentinel errors for consistent error handling across packages
//   - Interfaces: Abstractions for logging, notifications, and manifest lookup
//   - Logger: Leveled logging with optional file output and rotation
//   - Utils: Common utility functions for file and slice operations
//
// # Usage
//
// Import the package to access shared functionality:
//
//	import "github.com/yllada/xvpnctl/common"
//
//	// Use constants
//	timeout := common.ConnectTimeout
//
//	// Use logger
//	common.LogInfo("Connecting to %s", locationName)
//
//	// Check errors
//	if errors.Is(err, common.ErrTimeout) {
//	    // Handle the timeout distinctly from a terminal failure
//	}
//
// Logs are written to stderr by default: stdout is reserved for command
// output, including Alfred script filter JSON.
package common
