package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Directory operation rejections, returned as values to the caller
	ErrServiceUnavailable = fmt.Errorf("streaming service not configured")

	ErrBadFormat         = fmt.Errorf("malformed reference")
	ErrNotLinked         = fmt.Errorf("account not linked")
	ErrAlreadyLinked     = fmt.Errorf("account already linked")
	ErrNotOwner          = fmt.Errorf("playlist not owned by requester")
	ErrCredentialExpired = fmt.Errorf("credential refresh failed")
	ErrNoSubscription    = fmt.Errorf("channel has no subscription")

	// Upstream and persistence errors
	ErrUpstream        = fmt.Errorf("upstream request failed")
	ErrPersistence     = fmt.Errorf("snapshot write failed")
	ErrCorruptSnapshot = fmt.Errorf("snapshot is corrupt")
)
