package catalog

import "fmt"

// ValidationError reports invalid admin-form input. It is raised locally,
// before any call to the remote store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// MutationError wraps a remote insert/delete rejection. The provider message
// is surfaced to the caller; the operation is not retried.
type MutationError struct {
	Op  string
	Err error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// SubscriptionError marks a terminal catalog stream failure, typically a
// permission or rules violation. The stream is not restarted automatically.
type SubscriptionError struct {
	Path string
	Err  error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("catalog subscription on %s failed: %v", e.Path, e.Err)
}

func (e *SubscriptionError) Unwrap() error {
	return e.Err
}
