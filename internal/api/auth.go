// Package api – bearer-token plumbing.
//
// The service authenticates with a single process-wide bearer token obtained
// at login. TokenCell is the one shared, atomically-swapped holder for that
// token, and authTransport attaches it to every outgoing request at send
// time ("set-before-send": a request already in flight is never patched).
package api

import (
	"net/http"
	"sync/atomic"
)

// TokenCell is a thread-safe holder for the current auth token. The zero
// value is an empty (anonymous) cell ready for use. Multiple operations may
// read it concurrently while a login or logout swaps it.
type TokenCell struct {
	v atomic.Value // string
}

// Set replaces the current token.
func (c *TokenCell) Set(token string) { c.v.Store(token) }

// Clear removes the current token; subsequent requests carry no bearer header.
func (c *TokenCell) Clear() { c.v.Store("") }

// Current returns the current token, or "" when anonymous.
func (c *TokenCell) Current() string {
	if s, ok := c.v.Load().(string); ok {
		return s
	}
	return ""
}

// authTransport decorates a base RoundTripper with an Authorization header
// read from the shared TokenCell. Requests are cloned before mutation, as
// required by the RoundTripper contract.
type authTransport struct {
	base   http.RoundTripper
	tokens *TokenCell
}

// RoundTrip attaches "Authorization: Bearer <token>" when a token is set and
// delegates to the base transport.
func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if token := t.tokens.Current(); token != "" {
		clone := req.Clone(req.Context())
		clone.Header.Set("Authorization", "Bearer "+token)
		req = clone
	}
	return t.base.RoundTrip(req)
}
