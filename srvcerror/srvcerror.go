// Package srvcerror defines the error type score operations return across
// the HTTP boundary: a stable machine-readable code, a user-facing message
// in Latvian, and a private cause that only ever reaches the logs.
package srvcerror

import "net/http"

type Error struct {
	code   string
	public string // returned to the client verbatim
	cause  error  // internal detail, never serialized

	httpStatus int // zero means 500
}

func New(code string, public string) *Error {
	return &Error{code: code, public: public}
}

// Error returns the user-facing message, so a srvcerror passed through
// plain error plumbing still reads sensibly.
func (e *Error) Error() string {
	return e.public
}

func (e *Error) ErrorCode() string {
	return e.code
}

func (e *Error) DebugInfo() error {
	return e.cause
}

// SetDebug attaches the internal cause and returns e for chaining off a
// constructor.
func (e *Error) SetDebug(err error) *Error {
	e.cause = err
	return e
}

func (e *Error) HttpStatusCode() int {
	if e.httpStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.httpStatus
}

func (e *Error) SetHttpStatusCode(code int) *Error {
	e.httpStatus = code
	return e
}

const ErrCodeInternalServerError = "internal_server_error"

// ErrInternalSE wraps unexpected storage or aggregation failures; the
// cache-specific client errors live next to the score service.
func ErrInternalSE() *Error {
	return New(
		ErrCodeInternalServerError,
		"iekšēja servera kļūda",
	).SetHttpStatusCode(http.StatusInternalServerError)
}
