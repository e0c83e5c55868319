package pginit

// Logger provides a pluggable logging interface for pginit operations.
// Implementations must be safe for concurrent use by multiple goroutines.
//
// The role password must never reach any of these methods.
type Logger interface {
	// Verbose logs detailed diagnostic information.
	// Only logged when verbose mode is enabled.
	Verbose(format string, args ...interface{})

	// Info logs informational messages about normal operations.
	// Always logged regardless of verbose mode.
	Info(format string, args ...interface{})

	// Error logs error messages.
	// Always logged regardless of verbose mode.
	Error(format string, args ...interface{})
}
