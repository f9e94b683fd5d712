package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cduarte/estante/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *TokenCell) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	tokens := &TokenCell{}
	return New(srv.URL, 5*time.Second, tokens, zerolog.Nop()), tokens
}

func TestTokenCell(t *testing.T) {
	var cell TokenCell
	if cell.Current() != "" {
		t.Fatalf("zero cell token = %q, want empty", cell.Current())
	}
	cell.Set("abc")
	if cell.Current() != "abc" {
		t.Fatalf("token = %q, want abc", cell.Current())
	}
	cell.Clear()
	if cell.Current() != "" {
		t.Fatalf("token after clear = %q, want empty", cell.Current())
	}
}

func TestClient_BearerHeaderAttachment(t *testing.T) {
	var gotAuth []string
	client, tokens := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]domain.Category{})
	}))

	ctx := context.Background()
	if _, err := client.Categories(ctx); err != nil {
		t.Fatalf("anonymous call failed: %v", err)
	}
	tokens.Set("tok-123")
	if _, err := client.Categories(ctx); err != nil {
		t.Fatalf("authenticated call failed: %v", err)
	}
	tokens.Clear()
	if _, err := client.Categories(ctx); err != nil {
		t.Fatalf("post-logout call failed: %v", err)
	}

	want := []string{"", "Bearer tok-123", ""}
	for i, w := range want {
		if gotAuth[i] != w {
			t.Fatalf("request %d Authorization = %q, want %q", i, gotAuth[i], w)
		}
	}
}

func TestClient_LoginAndRegister(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users":
			var req domain.RegisterRequest
			json.NewDecoder(r.Body).Decode(&req)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(domain.User{ID: 7, Name: req.Name, Email: req.Email})
		case "/auth/login":
			json.NewEncoder(w).Encode(domain.LoginResponse{
				Token: "issued-token",
				User:  domain.User{ID: 7, Name: "Ana"},
			})
		default:
			http.NotFound(w, r)
		}
	}))

	user, err := client.Register(context.Background(), domain.RegisterRequest{Name: "Ana", Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.ID != 7 || user.Name != "Ana" {
		t.Fatalf("Register user = %+v", user)
	}

	resp, err := client.Login(context.Background(), domain.LoginRequest{Credential: "ana", Password: "p"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Token != "issued-token" || resp.User.ID != 7 {
		t.Fatalf("Login response = %+v", resp)
	}
}

func TestClient_EmptyBooksPageIsSuccess(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.BooksPage{
			Data: []domain.Book{}, TotalItems: 0, TotalPages: 0, ItemsPerPage: 20, Page: 1,
		})
	}))

	page, err := client.Books(context.Background())
	if err != nil {
		t.Fatalf("Books: %v", err)
	}
	if len(page.Data) != 0 || page.ItemsPerPage != 20 || page.Page != 1 {
		t.Fatalf("page = %+v", page)
	}
}

func TestClient_StatusErrorWithEnvelope(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(domain.ErrorResponse{Error: []domain.APIError{
			{Code: "invalid_type", Path: []string{"title"}, Message: "O título é obrigatório."},
			{Code: "custom", Path: []string{"categoryId"}, Message: "A categoria não existe."},
		}})
	}))

	_, err := client.CreateBook(context.Background(), domain.CreateBookRequest{Title: "x"})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if se.Status != 422 {
		t.Fatalf("status = %d, want 422", se.Status)
	}
	want := "O título é obrigatório., A categoria não existe."
	if got := se.JoinedMessages(); got != want {
		t.Fatalf("JoinedMessages() = %q, want %q", got, want)
	}
}

func TestClient_StatusErrorMalformedBody(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<html>not json</html>"))
	}))

	_, err := client.Book(context.Background(), 1)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if len(se.Errors) != 0 {
		t.Fatalf("Errors = %+v, want none for a malformed body", se.Errors)
	}
	if se.StatusText != "Internal Server Error" {
		t.Fatalf("StatusText = %q", se.StatusText)
	}
}

func TestClient_DeleteSuccessByStatusAlone(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/books/3" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	if err := client.DeleteBook(context.Background(), 3); err != nil {
		t.Fatalf("DeleteBook: %v", err)
	}
}

func TestClient_TransportErrorIsURLError(t *testing.T) {
	tokens := &TokenCell{}
	client := New("http://127.0.0.1:1", 500*time.Millisecond, tokens, zerolog.Nop())

	_, err := client.Categories(context.Background())
	var ue *url.Error
	if !errors.As(err, &ue) {
		t.Fatalf("error = %T %v, want *url.Error for a connection failure", err, err)
	}
}
