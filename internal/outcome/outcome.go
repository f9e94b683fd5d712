// Package outcome implements the request pipeline shared by every screen
// service: it runs one asynchronous network operation, normalizes its three
// failure channels (transport failure, HTTP error with an optional structured
// body, anything else) into a single user-facing message, and publishes the
// result exactly once per invocation on a single-slot channel observers
// subscribe to.
//
// Classification precedence is strict and deliberate: Network > HTTP >
// Unexpected. A connectivity problem must never be misreported as an
// application error, and a malformed error body must never break the
// classification path; it degrades to the generic HTTP message.
package outcome

import (
	"context"
	"errors"
	"net"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/cduarte/estante/internal/api"
	"github.com/cduarte/estante/internal/i18n"
)

// FailureKind classifies why an operation failed.
type FailureKind int

const (
	// KindNone marks a successful outcome.
	KindNone FailureKind = iota
	// KindNetwork marks transport and connectivity failures.
	KindNetwork
	// KindHTTP marks non-2xx responses from the server.
	KindHTTP
	// KindUnexpected marks everything else, including success-payload decode
	// failures and malformed error bodies.
	KindUnexpected
)

// String returns a stable name for logging.
func (k FailureKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNetwork:
		return "network"
	case KindHTTP:
		return "http"
	default:
		return "unexpected"
	}
}

// Outcome is the tagged result of one operation invocation. Exactly one
// Outcome is produced per invocation; a later invocation of the same logical
// action overwrites, never merges, the previous one.
type Outcome[T any] struct {
	// Value holds the success payload when Kind is KindNone.
	Value T
	// Kind classifies the failure; KindNone on success.
	Kind FailureKind
	// Message is the user-facing failure text, localized via the catalog.
	Message string
	// Err is the raw underlying error, kept for logging and tests.
	Err error
	// Invocation identifies the invocation that produced this outcome, so
	// subscribers can discard stale results after re-invocation.
	Invocation string
}

// Ok reports whether the outcome is a success.
func (o Outcome[T]) Ok() bool { return o.Kind == KindNone }

// Pipeline carries the classifier's dependencies: the message catalog used
// to build user-facing text and a logger for raw failure diagnostics.
type Pipeline struct {
	Msgs *i18n.Catalog
	Log  zerolog.Logger
}

// NewPipeline constructs a Pipeline with the given catalog.
func NewPipeline(msgs *i18n.Catalog, log zerolog.Logger) *Pipeline {
	return &Pipeline{Msgs: msgs, Log: log}
}

// Classify maps err to its FailureKind and user-facing message, applying the
// Network > HTTP > Unexpected precedence. It never returns an error itself:
// any input, however malformed, yields a kind and a message.
func (p *Pipeline) Classify(err error) (FailureKind, string) {
	if isNetworkError(err) {
		return KindNetwork, p.Msgs.Tf(i18n.KeyNetworkError, rootCause(err).Error())
	}

	var se *api.StatusError
	if errors.As(err, &se) {
		if msg := se.JoinedMessages(); msg != "" {
			return KindHTTP, msg
		}
		return KindHTTP, p.Msgs.Tf(i18n.KeyHTTPError, se.Status, se.StatusText)
	}

	if errors.Is(err, api.ErrMissingUploadURL) {
		return KindUnexpected, p.Msgs.T(i18n.KeyImageURLMissing)
	}
	return KindUnexpected, p.Msgs.Tf(i18n.KeyUnexpectedError, err.Error())
}

// isNetworkError reports whether err is a transport/connectivity failure:
// a client-side url.Error (the http.Client wraps dial, TLS, and I/O failures
// in one), any net.Error, or a deadline expiry.
func isNetworkError(err error) bool {
	var ue *url.Error
	if errors.As(err, &ue) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// rootCause unwraps url.Error layers so the message shows the underlying
// transport failure rather than the full "Get http://…" wrapper.
func rootCause(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return ue.Err
	}
	return err
}
