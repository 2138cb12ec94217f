package handler

const (
	// BasePath is the mount point of the security API.
	BasePath = "/api/v1/security"

	// DefaultPageSize is the page size applied when a list query names none.
	DefaultPageSize = 20
	// MaxPageSize clamps the page size upper bound.
	MaxPageSize = 100

	// ErrNilACMFatalLogMsg is used if the app, cfg or manager pointer is nil.
	ErrNilACMFatalLogMsg = "app, cfg or manager is nil"
)
