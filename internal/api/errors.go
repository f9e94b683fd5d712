// Package api implements the typed HTTP client for the book-catalog service.
//
// This file defines the error surface of the client. A request that reaches
// the server but returns a non-2xx status yields a *StatusError carrying the
// status line and whatever structured error entries could be decoded from the
// body. Transport failures are returned as-is (usually a *url.Error) so the
// caller can tell the two apart.
package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cduarte/estante/internal/domain"
)

// ErrMissingUploadURL is returned by UploadFile when the server answers a
// nominally successful upload with an empty "url" field. The product treats
// this as a failure, never as a success with no value.
var ErrMissingUploadURL = errors.New("upload response has no url")

// StatusError describes a non-2xx HTTP response.
//
// Errors holds the decoded entries of the structured error envelope when the
// body contained one; decoding is best-effort and a malformed or absent body
// simply leaves Errors empty.
type StatusError struct {
	Status     int
	StatusText string
	Errors     []domain.APIError
}

// Error implements the error interface with a compact diagnostic form.
func (e *StatusError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("http %d: %s", e.Status, e.JoinedMessages())
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.StatusText)
}

// JoinedMessages returns the entries' messages joined with ", ", preserving
// server order. Empty when no entries were decoded.
func (e *StatusError) JoinedMessages() string {
	if len(e.Errors) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, entry := range e.Errors {
		msgs = append(msgs, entry.Message)
	}
	return strings.Join(msgs, ", ")
}
