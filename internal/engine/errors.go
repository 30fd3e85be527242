package engine

import "errors"

var (
	// ErrFilesystem indicates workspace directory creation or inspection failed.
	ErrFilesystem = errors.New("filesystem error")

	// ErrEnvironmentSetup indicates runtime environment creation or package
	// installation failed.
	ErrEnvironmentSetup = errors.New("environment setup failed")

	// ErrStoreInit indicates data store initialization failed or did not
	// produce the store file.
	ErrStoreInit = errors.New("store initialization failed")

	// ErrProcessLaunch indicates the application process could not be started.
	ErrProcessLaunch = errors.New("process launch failed")

	// ErrHealthCheck indicates the post-launch probe reported unhealthy.
	// Only surfaced as an error under strict health checking; otherwise the
	// deploy is reported degraded.
	ErrHealthCheck = errors.New("health check failed")

	// ErrNotRunning indicates no live instance was found for the application.
	ErrNotRunning = errors.New("not running")
)

// ErrorKind names the error class for history records and exit codes.
// Returns an empty string for nil and "unknown" for unclassified errors.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFilesystem):
		return "filesystem"
	case errors.Is(err, ErrEnvironmentSetup):
		return "environment_setup"
	case errors.Is(err, ErrStoreInit):
		return "store_init"
	case errors.Is(err, ErrProcessLaunch):
		return "process_launch"
	case errors.Is(err, ErrHealthCheck):
		return "health_check"
	default:
		return "unknown"
	}
}
