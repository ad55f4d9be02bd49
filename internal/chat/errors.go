package chat

import (
	"errors"
	"fmt"
)

// APIError is an error the chat service itself reported, as opposed to a
// transport failure. Code is the machine-readable error string from the API.
type APIError struct {
	Code string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chat api error: %s", e.Code)
}

// ErrorCode extracts the service error code from err, or returns err.Error()
// for transport-level failures. Used for log fields only.
func ErrorCode(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
