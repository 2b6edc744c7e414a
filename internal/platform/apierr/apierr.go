package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"
)

var (
	ErrIllegalID    = errors.New("illegal identifier")
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUpstream     = errors.New("upstream failure")
	ErrInconsistent = errors.New("internal inconsistency")
)

// ValidationError carries one human readable message per violated rule.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Messages) == 0 {
		return ErrValidation.Error()
	}
	return strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func Validation(msgs ...string) error {
	return &ValidationError{Messages: msgs}
}

func Validationf(format string, args ...any) error {
	return &ValidationError{Messages: []string{fmt.Sprintf(format, args...)}}
}

// UpstreamError wraps a non-success answer from the store or the catalog.
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
	Cause      error
}

func (e *UpstreamError) Error() string {
	if e == nil {
		return ErrUpstream.Error()
	}
	if e.Cause != nil && e.StatusCode == 0 {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Cause)
	}
	body := e.Body
	if body == "" {
		body = "NO BODY"
	}
	return fmt.Sprintf("%s returned status code %d. Body: %s", e.Op, e.StatusCode, body)
}

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

func (e *UpstreamError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func (e *UpstreamError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func Upstream(op string, status int, body []byte) *UpstreamError {
	return &UpstreamError{Op: op, StatusCode: status, Body: SanitizeBody(string(body))}
}

func UpstreamCause(op string, cause error) *UpstreamError {
	return &UpstreamError{Op: op, Cause: cause}
}

func IllegalID(what, id string) error {
	return fmt.Errorf("%w: %s %q contains illegal characters", ErrIllegalID, what, id)
}

func NotFound(what, id string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, what, id)
}

func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func Inconsistent(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInconsistent, fmt.Sprintf(format, args...))
}

const maxBodyChars = 2000

// SanitizeBody strips control characters and truncates long upstream bodies.
func SanitizeBody(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsControl(r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	out := strings.Join(strings.Fields(b.String()), " ")
	if len(out) > maxBodyChars {
		out = out[:maxBodyChars] + "..."
	}
	return out
}

// Error is the transport facing classification of a failure.
type Error struct {
	Status  int
	Code    string
	Err     error
	Details []string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// From classifies any error into a stable status and code.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return &Error{Status: http.StatusBadRequest, Code: "validation_failed", Err: err, Details: ve.Messages}
	}
	switch {
	case errors.Is(err, ErrIllegalID):
		return New(http.StatusBadRequest, "illegal_id", err)
	case errors.Is(err, ErrValidation):
		return New(http.StatusBadRequest, "validation_failed", err)
	case errors.Is(err, ErrNotFound):
		return New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, ErrConflict):
		return New(http.StatusConflict, "conflict", err)
	case errors.Is(err, ErrUpstream):
		return New(http.StatusBadGateway, "upstream_failure", err)
	case errors.Is(err, ErrInconsistent):
		return New(http.StatusInternalServerError, "internal_inconsistency", err)
	default:
		return New(http.StatusInternalServerError, "internal", err)
	}
}
