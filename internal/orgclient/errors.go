package orgclient

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable indicates the organization service could not be reached.
	ErrUnavailable = errors.New("organization service unavailable")

	// ErrTimeout indicates the request exceeded the configured timeout.
	ErrTimeout = errors.New("organization service request timed out")

	// ErrDecode indicates a response body did not match the expected shape.
	ErrDecode = errors.New("unexpected organization service response")
)

// Business codes reported by the organization service.
const (
	CodeParamInvalid      = 200101
	CodeParentNotFound    = 200102
	CodeNameDuplicate     = 200103
	CodeHasChildren       = 200104
	CodeHasUsers          = 200105
	CodeMoveCycle         = 200106
	CodeHasActiveChildren = 200107
	CodeNotFound          = 200108
	CodeRootDelete        = 200109
	CodePrimaryInvalid    = 200110
	CodeAuxMissing        = 200111
)

// APIError is a failure reported by the service itself, either through a
// non-2xx status or a positive business code. Message is shown verbatim.
type APIError struct {
	HTTPStatus int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Detail includes the status and code for logs.
func (e *APIError) Detail() string {
	return fmt.Sprintf("%s (http %d, code %d)", e.Message, e.HTTPStatus, e.Code)
}

// HasCode reports whether err is an APIError carrying code.
func HasCode(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

func errorCode(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE"
	case errors.Is(err, ErrDecode):
		return "INVALID_RESPONSE"
	case errors.As(err, &apiErr):
		if apiErr.Code > 0 {
			return fmt.Sprintf("APP_%d", apiErr.Code)
		}
		return fmt.Sprintf("HTTP_%d", apiErr.HTTPStatus)
	default:
		return "UNKNOWN"
	}
}
