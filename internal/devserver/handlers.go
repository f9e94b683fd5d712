// Package devserver – endpoint handlers.
//
// Handlers speak the exact wire contract of the hosted service: success
// payloads per endpoint, and on failure the structured envelope
// {"error":[{code,expected,received,path,message}]} with zod-style entries.
// Messages are in Portuguese, matching the product.
package devserver

import (
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/cduarte/estante/internal/config"
	"github.com/cduarte/estante/internal/domain"
)

// defaultPageSize matches the hosted service's GET /books page size.
const defaultPageSize = 20

// Server bundles the handler dependencies.
type Server struct {
	db  *gorm.DB
	cfg config.Server
}

// NewServer constructs a Server over an opened database.
func NewServer(db *gorm.DB, cfg config.Server) *Server {
	return &Server{db: db, cfg: cfg}
}

// issue builds one error-envelope entry.
func issue(code, expected, received, field, message string) domain.APIError {
	return domain.APIError{
		Code:     code,
		Expected: expected,
		Received: received,
		Path:     []string{field},
		Message:  message,
	}
}

// failWith aborts the request with the structured error envelope.
func failWith(c *gin.Context, status int, entries ...domain.APIError) {
	c.AbortWithStatusJSON(status, domain.ErrorResponse{Error: entries})
}

// apiFail aborts with a single generic envelope entry.
func apiFail(c *gin.Context, status int, code, message string) {
	failWith(c, status, issue(code, "", "", "", message))
}

// atoiDefault converts s to an int, returning def when s is empty or not a
// number.
func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// requireAuth resolves the bearer token to a session and stores the user ID
// in the context. Requests without a valid token are rejected with 401.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			apiFail(c, http.StatusUnauthorized, "unauthorized", "Token de acesso ausente.")
			return
		}
		sess, err := FindSession(c.Request.Context(), s.db, strings.TrimSpace(token))
		if err != nil {
			apiFail(c, http.StatusInternalServerError, "internal_error", "Erro interno.")
			return
		}
		if sess == nil {
			apiFail(c, http.StatusUnauthorized, "unauthorized", "Token de acesso inválido.")
			return
		}
		c.Set("userID", sess.UserID)
		c.Next()
	}
}

// handleRegister implements POST /users.
func (s *Server) handleRegister(c *gin.Context) {
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiFail(c, http.StatusBadRequest, "bad_request", "Corpo da requisição inválido.")
		return
	}

	var entries []domain.APIError
	if strings.TrimSpace(req.Name) == "" {
		entries = append(entries, issue("invalid_type", "string", "undefined", "name", "O nome é obrigatório."))
	}
	if strings.TrimSpace(req.Email) == "" || !strings.Contains(req.Email, "@") {
		entries = append(entries, issue("invalid_string", "email", "string", "email", "O e-mail é inválido."))
	}
	if utf8.RuneCountInString(req.Password) < 8 {
		entries = append(entries, issue("too_small", "string", "string", "password", "A senha deve ter pelo menos 8 caracteres."))
	}
	if req.Password != req.ConfirmPassword {
		entries = append(entries, issue("custom", "", "", "confirmPassword", "As senhas não coincidem."))
	}
	if len(entries) > 0 {
		failWith(c, http.StatusUnprocessableEntity, entries...)
		return
	}

	if existing, err := FindUserByCredential(c.Request.Context(), s.db, strings.TrimSpace(req.Email)); err != nil {
		apiFail(c, http.StatusInternalServerError, "internal_error", "Erro interno.")
		return
	} else if existing != nil {
		failWith(c, http.StatusConflict,
			issue("custom", "", "", "email", "O e-mail já está em uso."))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		apiFail(c, http.StatusInternalServerError, "internal_error", "Erro interno.")
		return
	}
	user, err := CreateUser(c.Request.Context(), s.db, strings.TrimSpace(req.Name), strings.TrimSpace(req.Email), string(hash))
	if err != nil {
		apiFail(c, http.StatusInternalServerError, "internal_error", "Erro interno.")
		return
	}
	c.JSON(http.StatusCreated, toWireUser(user))
}

// handleLogin implements POST /auth/login.
func (s *Server) handleLogin(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiFail(c, http.StatusBadRequest, "bad_request", "Corpo da requisição inválido.")
		return
	}
	if strings.TrimSpace(req.Credential) == "" || req.Password == "" {
		failWith(c, http.StatusUnprocessableEntity,
			issue("custom", "", "", "credential", "Informe usuário e senha."))
		return
	}

	user, err := FindUserByCredential(c.Request.Context(), s.db, strings.TrimSpace(req.Credential))
	if err != nil {
		apiFail(c, http.StatusInternalServerError, "internal_error", "Erro interno.")
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		failWith(c, http.StatusUnauthorized,
			issue("custom", "", "", "credential", "Credenciais inválidas."))
		return
	}

	token := newToken()
	if err := CreateSession(c.Request.Context(), s.db, token, user.ID); err != nil {
		apiFail(c, http.StatusInternalServerError, "internal_error", "Erro interno.")
		return
	}
	c.JSON(http.StatusOK, domain.LoginResponse{Token: token, User: toWireUser(user)})
}

// handleListCategories implements GET /categories.
func (s *Server) handleListCategories(c *gin.Context) {
	cats, err := ListCategories(c.Request.Context(), s.db)
	if err != nil {
		apiFail(c, http.StatusInternalServerError, "internal_error", "Erro interno.")
		return
	}
	out := make([]domain.Category, 0, len(cats))
	for _, cat := range cats {
		out = append(out, domain.Category{ID: int(cat.ID), Name: cat.Name})
	}
	c.JSON(http.StatusOK, out)
}

// handleListBooks implements GET /books with the page descriptor response.
func (s *Server) handleListBooks(c *gin.Context) {
	page := atoiDefault(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	pageSize := atoiDefault(c.Query("pageSize"), defaultPageSize)
	if pageSize < 1 || pageSize > 100 {
		pageSize = defaultPageSize
	}

	total, err := CountBooks(c.Request.Context(), s.db)
	if err != nil {
		apiFail(c, http.StatusInternalServerError, "internal_error", "Erro interno.")
		return
	}
	books, err := ListBooksPage(c.Request.Context(), s.db, (page-1)*pageSize, pageSize)
	if err != nil {
		apiFail(c, http.StatusInternalServerError, "internal_error", "Erro interno.")
		return
	}

	data := make([]domain.Book, 0, len(books))
	for i := range books {
		data = append(data, toWireBook(&books[i]))
	}
	totalPages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		totalPages++
	}
	c.JSON(http.StatusOK, domain.BooksPage{
		Data:         data,
		TotalItems:   int(total),
		TotalPages:   totalPages,
		ItemsPerPage: pageSize,
		Page:         page,
	})
}

// handleGetBook implements GET /books/:id.
func (s *Server) handleGetBook(c *gin.Context) {
	id := atoiDefault(c.Param("id"), 0)
	if id <= 0 {
		apiFail(c, http.StatusBadRequest, "bad_request", "ID inválido.")
		return
	}
	book, err := GetBook(c.Request.Context(), s.db, uint(id))
	if err != nil {
		apiFail(c, http.StatusInternalServerError, "internal_error", "Erro interno.")
		return
	}
	if book == nil {
		apiFail(c, http.StatusNotFound, "not_found", "Livro não encontrado.")
		return
	}
	c.JSON(http.StatusOK, toWireBook(book))
}

// handleCreateBook implements POST /books (auth required).
func (s *Server) handleCreateBook(c *gin.Context) {
	var req domain.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiFail(c, http.StatusBadRequest, "bad_request", "Corpo da requisição inválido.")
		return
	}

	var entries []domain.APIError
	if strings.TrimSpace(req.Title) == "" {
		entries = append(entries, issue("invalid_type", "string", "undefined", "title", "O título é obrigatório."))
	}
	if strings.TrimSpace(req.Author) == "" {
		entries = append(entries, issue("invalid_type", "string", "undefined", "author", "O autor é obrigatório."))
	}
	if req.CategoryID <= 0 {
		entries = append(entries, issue("invalid_type", "number", "undefined", "categoryId", "A categoria é obrigatória."))
	}
	if len(entries) > 0 {
		failWith(c, http.StatusUnprocessableEntity, entries...)
		return
	}

	exists, err := CategoryExists(c.Request.Context(), s.db, uint(req.CategoryID))
	if err != nil {
		apiFail(c, http.StatusInternalServerError, "internal_error", "Erro interno.")
		return
	}
	if !exists {
		failWith(c, http.StatusUnprocessableEntity,
			issue("custom", "", "", "categoryId", "A categoria não existe."))
		return
	}

	book := &BookRecord{
		Title:      strings.TrimSpace(req.Title),
		Summary:    strings.TrimSpace(req.Summary),
		Author:     strings.TrimSpace(req.Author),
		ImageURL:   req.ImageURL,
		CategoryID: uint(req.CategoryID),
	}
	if err := CreateBook(c.Request.Context(), s.db, book); err != nil {
		apiFail(c, http.StatusInternalServerError, "internal_error", "Erro interno.")
		return
	}
	c.JSON(http.StatusCreated, toWireBook(book))
}

// handleDeleteBook implements DELETE /books/:id (auth required).
func (s *Server) handleDeleteBook(c *gin.Context) {
	id := atoiDefault(c.Param("id"), 0)
	if id <= 0 {
		apiFail(c, http.StatusBadRequest, "bad_request", "ID inválido.")
		return
	}
	deleted, err := DeleteBook(c.Request.Context(), s.db, uint(id))
	if err != nil {
		apiFail(c, http.StatusInternalServerError, "internal_error", "Erro interno.")
		return
	}
	if !deleted {
		apiFail(c, http.StatusNotFound, "not_found", "Livro não encontrado.")
		return
	}
	c.Status(http.StatusNoContent)
}

// newToken returns an opaque 64-character bearer token.
func newToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}
