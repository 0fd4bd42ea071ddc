// Package apierr defines the error shapes shared by the vendor adapters and
// surfaced to MCP callers.
package apierr

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of a vendor error body is kept.
const maxErrorBody = 64 << 10

// ErrPrecondition matches every PreconditionError via errors.Is.
var ErrPrecondition = errors.New("precondition failed")

// PreconditionError reports a caller mistake detected before any network call:
// an empty required input, a missing local file, or a missing credential.
type PreconditionError struct {
	Msg string
}

// Preconditionf builds a PreconditionError from a format string.
func Preconditionf(format string, args ...any) error {
	return &PreconditionError{Msg: fmt.Sprintf(format, args...)}
}

func (e *PreconditionError) Error() string {
	return e.Msg
}

func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

// VendorError is a non-success HTTP response from an external API. It is
// never retried.
type VendorError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *VendorError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s request failed (%d)", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s request failed (%d): %s", e.Service, e.StatusCode, e.Body)
}

// CheckResponse returns nil for 2xx responses and a *VendorError carrying the
// response body otherwise. The body is consumed on failure.
func CheckResponse(service string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &VendorError{
		Service:    service,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
