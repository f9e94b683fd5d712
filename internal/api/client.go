// Package api – typed operations.
//
// Client exposes one method per endpoint of the book-catalog REST API. All
// methods are context-first, perform exactly one request/response exchange,
// and return either the decoded success payload or an error: a transport
// error from the underlying client, or a *StatusError for non-2xx responses.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/cduarte/estante/internal/domain"
)

// maxErrorBody caps how much of an error response body is read when looking
// for the structured error envelope.
const maxErrorBody = 64 << 10

// Client is the typed HTTP client for the book-catalog service.
// It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  *TokenCell
	log     zerolog.Logger
}

// New constructs a Client for the given base URL. The shared TokenCell is
// injected so that the session layer and the transport observe the same
// token; timeout applies to every request end to end.
func New(baseURL string, timeout time.Duration, tokens *TokenCell, log zerolog.Logger) *Client {
	d := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           d.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Transport: &authTransport{base: base, tokens: tokens},
			Timeout:   timeout,
		},
		tokens: tokens,
		log:    log,
	}
}

// Tokens returns the shared token cell the client attaches on every request.
func (c *Client) Tokens() *TokenCell { return c.tokens }

// Register creates a new account via POST /users.
func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	var user domain.User
	if err := c.doJSON(ctx, http.MethodPost, "/users", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates via POST /auth/login and returns the bearer token plus
// the user record. Persisting and attaching the token is the session layer's
// job, not the client's.
func (c *Client) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	var resp domain.LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Categories lists all categories via GET /categories.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var cats []domain.Category
	if err := c.doJSON(ctx, http.MethodGet, "/categories", nil, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// Books fetches the first page of books via GET /books.
func (c *Client) Books(ctx context.Context) (*domain.BooksPage, error) {
	var page domain.BooksPage
	if err := c.doJSON(ctx, http.MethodGet, "/books", nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Book fetches a single book via GET /books/{id}.
func (c *Client) Book(ctx context.Context, id int) (*domain.Book, error) {
	var book domain.Book
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/books/%d", id), nil, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// CreateBook creates a book via POST /books.
func (c *Client) CreateBook(ctx context.Context, req domain.CreateBookRequest) (*domain.Book, error) {
	var book domain.Book
	if err := c.doJSON(ctx, http.MethodPost, "/books", req, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// DeleteBook removes a book via DELETE /books/{id}. Success is signaled by
// status code alone; the body is ignored.
func (c *Client) DeleteBook(ctx context.Context, id int) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/books/%d", id), nil, nil)
}

// doJSON performs one request/response exchange. A nil body sends no payload;
// a nil out discards the response body. Non-2xx responses become a
// *StatusError with best-effort decoding of the structured error envelope.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		payload = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Msg("api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// newStatusError reads the response body and decodes the structured error
// envelope when possible. Decoding failures are swallowed: the entries list
// stays empty and the caller falls back to the generic status message.
func newStatusError(resp *http.Response) *StatusError {
	se := &StatusError{
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return se
	}
	var envelope domain.ErrorResponse
	if err := json.Unmarshal(body, &envelope); err == nil {
		se.Errors = envelope.Error
	}
	return se
}
