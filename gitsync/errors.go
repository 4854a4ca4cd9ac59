package gitsync

import "errors"

// ErrNoCredentials is returned by Clone when the token list is empty.
var ErrNoCredentials = errors.New("gitsync: no credentials configured")

// ErrAlreadyExists is returned by Clone when a local clone is already
// present. Callers should check LocalPath first and pull instead.
var ErrAlreadyExists = errors.New("gitsync: local clone already exists")

// ErrAllCredentialsFailed is returned by Clone when every token failed.
var ErrAllCredentialsFailed = errors.New("gitsync: all credentials exhausted")

// ErrPullFailed wraps a failed pull.
var ErrPullFailed = errors.New("gitsync: pull failed")

// ErrNotFound is returned when no local clone exists for the project.
var ErrNotFound = errors.New("gitsync: project not found locally")
