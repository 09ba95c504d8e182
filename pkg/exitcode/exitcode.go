// Package exitcode provides standardized exit codes for compsync
package exitcode

// Exit codes for the compsync CLI
const (
	Success         = 0
	GeneralError    = 1
	ConfigError     = 2
	ValidationError = 3
	FileSystemError = 4
	PartialFailure  = 5
	Cancelled       = 6
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case ValidationError:
		return "Validation error"
	case FileSystemError:
		return "File system error"
	case PartialFailure:
		return "Partial failure (some artifacts failed)"
	case Cancelled:
		return "Sync cancelled by subscriber"
	default:
		return "Unknown error"
	}
}
