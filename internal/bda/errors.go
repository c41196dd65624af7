package bda

import "errors"

var (
	// ErrBlueprintNotFound indicates the named service blueprint does not exist.
	ErrBlueprintNotFound = errors.New("blueprint not found")
	// ErrConfigurationNotFound indicates the project reference did not resolve.
	ErrConfigurationNotFound = errors.New("configuration not found")
	// ErrSubmissionRejected indicates the service refused the invocation.
	ErrSubmissionRejected = errors.New("submission rejected")
	// ErrStatusQueryFailed indicates a transport failure while polling; the job
	// itself is unaffected on the service side but its outcome is unknown here.
	ErrStatusQueryFailed = errors.New("status query failed")
)
