// Package domain defines the wire-level data model of the book-catalog API:
// users, categories, books, the paged book listing, the request payloads the
// client sends, and the structured error envelope the server may attach to
// non-2xx responses. These types carry only JSON tags; persistence records
// used by the dev server live in internal/devserver.
package domain

// User represents a registered account as returned by POST /users and
// embedded in the login response.
type User struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Category is one selectable book category from GET /categories.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Book is a single catalog entry. Summary and ImageURL are optional on the
// wire and omitted when empty.
type Book struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	Summary    string `json:"summary,omitempty"`
	Author     string `json:"author"`
	ImageURL   string `json:"imageUrl,omitempty"`
	CategoryID int    `json:"categoryId"`
	CreatedAt  string `json:"createdAt,omitempty"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
}

// BooksPage is the page descriptor returned by GET /books. The client only
// ever requests the first page; the remaining fields are informational.
type BooksPage struct {
	Data         []Book `json:"data"`
	TotalItems   int    `json:"totalItems"`
	TotalPages   int    `json:"totalPages"`
	ItemsPerPage int    `json:"itemsPerPage"`
	Page         int    `json:"page"`
}

// RegisterRequest is the body of POST /users. The server validates field
// contents; the client only checks locally that passwords match before
// sending.
type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// LoginRequest is the body of POST /auth/login. Credential may be either the
// account name or email.
type LoginRequest struct {
	Credential string `json:"credential"`
	Password   string `json:"password"`
}

// LoginResponse carries the bearer token plus the authenticated user record.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// CreateBookRequest is the body of POST /books. ImageURL, when set, must
// come from a prior POST /upload-file call.
type CreateBookRequest struct {
	Title      string `json:"title"`
	Summary    string `json:"summary,omitempty"`
	Author     string `json:"author"`
	ImageURL   string `json:"imageUrl,omitempty"`
	CategoryID int    `json:"categoryId"`
}

// UploadResponse is the body of POST /upload-file.
type UploadResponse struct {
	URL string `json:"url"`
}

// APIError is one entry of the structured error body the server may return
// alongside a non-2xx status. The shape mirrors zod-style validation issues:
// a machine code, the expected/received types, the JSON path of the offending
// field, and a human-readable message.
type APIError struct {
	Code     string   `json:"code"`
	Expected string   `json:"expected"`
	Received string   `json:"received"`
	Path     []string `json:"path"`
	Message  string   `json:"message"`
}

// ErrorResponse is the error envelope: an ordered list of APIError entries
// under the "error" key. Decoding it is always best-effort; an absent or
// malformed envelope degrades to a generic HTTP message upstream.
type ErrorResponse struct {
	Error []APIError `json:"error"`
}
