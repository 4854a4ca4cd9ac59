package tracker

import "errors"

var (
	// ErrRunInProgress is returned when an update cycle is requested while
	// another one is still running, in this process or in another one
	// holding the run lease.
	ErrRunInProgress = errors.New("tracker: update run already in progress")

	// ErrProjectExists is returned when adding a project whose ID is
	// already configured.
	ErrProjectExists = errors.New("tracker: project already configured")

	// ErrProjectNotFound is returned for operations on an unconfigured
	// project ID.
	ErrProjectNotFound = errors.New("tracker: project not configured")

	// ErrNoTokens is returned when an update cycle needs credentials and
	// none are configured.
	ErrNoTokens = errors.New("tracker: no access tokens configured")
)
