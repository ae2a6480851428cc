package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned, wrapped with detail, when a call is made with
	// arguments that cannot produce a request. It is raised before any network activity.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDependencyMissing matches any *DependencyError.
	ErrDependencyMissing = errors.New("dependency missing")

	// ErrUnsupportedOperation matches any *UnsupportedOperationError.
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// DependencyError reports that the client library a backend needs to build its
// connection handle is not available in this build.
type DependencyError struct {
	Provider   string
	Dependency string
	Hint       string
}

func (e *DependencyError) Error() string {
	msg := fmt.Sprintf("%s provider requires %s, which is not available in this build", e.Provider, e.Dependency)
	if e.Hint != "" {
		msg += ": " + e.Hint
	}
	return msg
}

func (e *DependencyError) Is(target error) bool {
	return target == ErrDependencyMissing
}

// UnsupportedOperationError is returned when a provider has no implementation
// for the requested operation.
type UnsupportedOperationError struct {
	Provider  string
	Operation string
}

func (e *UnsupportedOperationError) Error() string {
	if e.Operation == "stream" {
		return fmt.Sprintf("streaming is not implemented for provider %q; use Invoke for non-streaming calls", e.Provider)
	}
	return fmt.Sprintf("%s is not implemented for provider %q", e.Operation, e.Provider)
}

func (e *UnsupportedOperationError) Is(target error) bool {
	return target == ErrUnsupportedOperation
}

// StatusError is returned by the raw HTTP adapters when the backend answers
// with a non-2xx status. Body holds at most the first few kilobytes of the
// response, which is where providers put their error object.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("non-2xx status %d: %s", e.StatusCode, e.Body)
}
