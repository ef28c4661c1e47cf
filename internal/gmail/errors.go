package gmail

import (
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
)

// RemoteAPIError surfaces a non-success response from the provider's API
// with its own error detail. These are never retried.
type RemoteAPIError struct {
	Op      string
	Code    int
	Message string
	Err     error
}

func (e *RemoteAPIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: provider returned %d: %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteAPIError) Unwrap() error { return e.Err }

// wrapErr converts a Gmail SDK error into a RemoteAPIError when it carries
// a provider status, and plain-wraps everything else.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &RemoteAPIError{Op: op, Code: gerr.Code, Message: gerr.Message, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
