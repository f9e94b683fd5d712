package devserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/cduarte/estante/internal/config"
	"github.com/cduarte/estante/internal/domain"
)

func testServerConfig(t *testing.T) config.Server {
	t.Helper()
	return config.Server{
		GinMode:   gin.TestMode,
		UploadDir: t.TempDir(),
		BaseURL:   "http://devserver.test",
		RateRPS:   1000,
		RateBurst: 1000,
	}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := SeedCategories(db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return NewRouter(db, testServerConfig(t))
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

// registerAndLogin creates an account and returns a valid bearer token.
func registerAndLogin(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/users", "", domain.RegisterRequest{
		Name: "Ana", Email: "ana@example.com", Password: "password1", ConfirmPassword: "password1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d body = %s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, http.MethodPost, "/auth/login", "", domain.LoginRequest{
		Credential: "ana@example.com", Password: "password1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d body = %s", w.Code, w.Body.String())
	}
	return decode[domain.LoginResponse](t, w).Token
}

func TestRegister_Validation(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/users", "", domain.RegisterRequest{
		Name: "", Email: "not-an-email", Password: "short", ConfirmPassword: "other",
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", w.Code)
	}
	env := decode[domain.ErrorResponse](t, w)
	if len(env.Error) != 4 {
		t.Fatalf("entries = %d, want 4 (%s)", len(env.Error), w.Body.String())
	}
	fields := map[string]bool{}
	for _, e := range env.Error {
		if len(e.Path) == 1 {
			fields[e.Path[0]] = true
		}
	}
	for _, f := range []string{"name", "email", "password", "confirmPassword"} {
		if !fields[f] {
			t.Errorf("missing entry for field %q", f)
		}
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	r := newTestRouter(t)
	req := domain.RegisterRequest{
		Name: "Ana", Email: "ana@example.com", Password: "password1", ConfirmPassword: "password1",
	}

	if w := doJSON(t, r, http.MethodPost, "/users", "", req); w.Code != http.StatusCreated {
		t.Fatalf("first register status = %d", w.Code)
	}
	req.Name = "Outra Ana"
	w := doJSON(t, r, http.MethodPost, "/users", "", req)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d, want 409", w.Code)
	}
	env := decode[domain.ErrorResponse](t, w)
	if len(env.Error) != 1 || env.Error[0].Message != "O e-mail já está em uso." {
		t.Fatalf("envelope = %s", w.Body.String())
	}
}

func TestLogin_TokenShapeAndByName(t *testing.T) {
	r := newTestRouter(t)
	registerAndLogin(t, r)

	// Login by account name instead of email.
	w := doJSON(t, r, http.MethodPost, "/auth/login", "", domain.LoginRequest{
		Credential: "Ana", Password: "password1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login by name status = %d body = %s", w.Code, w.Body.String())
	}
	resp := decode[domain.LoginResponse](t, w)
	if len(resp.Token) != 64 {
		t.Fatalf("token length = %d, want 64", len(resp.Token))
	}
	if resp.User.Email != "ana@example.com" {
		t.Fatalf("user = %+v", resp.User)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	r := newTestRouter(t)
	registerAndLogin(t, r)

	w := doJSON(t, r, http.MethodPost, "/auth/login", "", domain.LoginRequest{
		Credential: "ana@example.com", Password: "wrong-password",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	env := decode[domain.ErrorResponse](t, w)
	if len(env.Error) != 1 || env.Error[0].Message != "Credenciais inválidas." {
		t.Fatalf("envelope = %s", w.Body.String())
	}
}

func TestListCategories_Seeded(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/categories", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	cats := decode[[]domain.Category](t, w)
	if len(cats) != len(defaultCategories) {
		t.Fatalf("categories = %d, want %d", len(cats), len(defaultCategories))
	}
	if cats[0].Name != "Romance" {
		t.Fatalf("first category = %+v", cats[0])
	}
}

func TestListBooks_EmptyDescriptor(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/books", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	page := decode[domain.BooksPage](t, w)
	if page.TotalItems != 0 || page.TotalPages != 0 || page.Page != 1 || page.ItemsPerPage != defaultPageSize {
		t.Fatalf("descriptor = %+v", page)
	}
	if page.Data == nil || len(page.Data) != 0 {
		t.Fatalf("data = %#v, want empty array", page.Data)
	}
}

func TestCreateBook_RequiresAuth(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/books", "", domain.CreateBookRequest{
		Title: "t", Author: "a", CategoryID: 1,
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 without token", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/books", "made-up-token", domain.CreateBookRequest{
		Title: "t", Author: "a", CategoryID: 1,
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 with unknown token", w.Code)
	}
}

func TestCreateBook_UnknownCategory(t *testing.T) {
	r := newTestRouter(t)
	token := registerAndLogin(t, r)

	w := doJSON(t, r, http.MethodPost, "/books", token, domain.CreateBookRequest{
		Title: "t", Author: "a", CategoryID: 999,
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", w.Code)
	}
	env := decode[domain.ErrorResponse](t, w)
	if len(env.Error) != 1 || env.Error[0].Message != "A categoria não existe." {
		t.Fatalf("envelope = %s", w.Body.String())
	}
}

func TestBookLifecycle(t *testing.T) {
	r := newTestRouter(t)
	token := registerAndLogin(t, r)

	w := doJSON(t, r, http.MethodPost, "/books", token, domain.CreateBookRequest{
		Title: "Grande Sertão: Veredas", Author: "Guimarães Rosa", CategoryID: 1,
		Summary: "Travessia.",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d body = %s", w.Code, w.Body.String())
	}
	created := decode[domain.Book](t, w)
	if created.ID == 0 || created.Title != "Grande Sertão: Veredas" {
		t.Fatalf("created = %+v", created)
	}

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/books/%d", created.ID), "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	got := decode[domain.Book](t, w)
	if got.Author != "Guimarães Rosa" || got.CategoryID != 1 {
		t.Fatalf("got = %+v", got)
	}

	w = doJSON(t, r, http.MethodGet, "/books", "", nil)
	page := decode[domain.BooksPage](t, w)
	if page.TotalItems != 1 || page.TotalPages != 1 || len(page.Data) != 1 {
		t.Fatalf("page = %+v", page)
	}

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/books/%d", created.ID), token, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/books/%d", created.ID), token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", w.Code)
	}
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/books/%d", created.ID), "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", w.Code)
	}
}

func TestGetBook_BadID(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/books/not-a-number", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestUpload_StoresFileAndBuildsURL(t *testing.T) {
	r := newTestRouter(t)
	token := registerAndLogin(t, r)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "cover.png")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("png-bytes"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload-file", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	out := decode[map[string]string](t, w)
	url := out["url"]
	if !strings.HasPrefix(url, "http://devserver.test/uploads/") {
		t.Fatalf("url = %q", url)
	}
	if !strings.HasSuffix(url, ".png") {
		t.Fatalf("url = %q, want original extension kept", url)
	}
}

func TestUpload_MissingFilePart(t *testing.T) {
	r := newTestRouter(t)
	token := registerAndLogin(t, r)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("other", "value")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload-file", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestRateLimiter_Throttles(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatal(err)
	}
	cfg := testServerConfig(t)
	cfg.RateRPS = 1
	cfg.RateBurst = 1
	r := NewRouter(db, cfg)

	first := doJSON(t, r, http.MethodGet, "/categories", "", nil)
	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d", first.Code)
	}
	second := doJSON(t, r, http.MethodGet, "/categories", "", nil)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Error("429 response missing Retry-After")
	}
}

func TestRequestIDHeader(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/categories", "", nil)
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatalf("response missing %s header", requestIDHeader)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t)

	doJSON(t, r, http.MethodGet, "/categories", "", nil)
	w := doJSON(t, r, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Error("metrics output missing http_requests_total")
	}
}
