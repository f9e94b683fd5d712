// Package services – CatalogService.
//
// CatalogService backs the home, detail and create screens: category and
// book listings, single-book detail, creation, deletion, and cover upload.
// Each user-triggered action starts one asynchronous task; tasks are not
// synchronized with each other beyond last-write-wins on their channel, and
// the categories and books fetches deliberately race at screen load.
package services

import (
	"context"
	"strings"

	"github.com/cduarte/estante/internal/domain"
	"github.com/cduarte/estante/internal/outcome"
)

// CatalogAPI defines the API-client contract required by CatalogService.
type CatalogAPI interface {
	// Categories lists all categories.
	Categories(ctx context.Context) ([]domain.Category, error)

	// Books fetches the first page of books.
	Books(ctx context.Context) (*domain.BooksPage, error)

	// Book fetches one book by ID.
	Book(ctx context.Context, id int) (*domain.Book, error)

	// CreateBook creates a book.
	CreateBook(ctx context.Context, req domain.CreateBookRequest) (*domain.Book, error)

	// DeleteBook removes a book by ID.
	DeleteBook(ctx context.Context, id int) error

	// UploadFile uploads a local file and returns its public URL.
	UploadFile(ctx context.Context, path string) (string, error)
}

// CatalogService owns the result channels of the catalog screens.
type CatalogService struct {
	// API is the typed client used for network calls.
	API CatalogAPI
	// Pipe classifies failures and logs raw errors.
	Pipe *outcome.Pipeline

	// CategoriesResult receives category listings.
	CategoriesResult *outcome.Channel[[]domain.Category]
	// BooksResult receives book listings (the page's data, not the descriptor).
	BooksResult *outcome.Channel[[]domain.Book]
	// BookDetail receives single-book fetches.
	BookDetail *outcome.Channel[domain.Book]
	// CreateResult receives book-creation outcomes.
	CreateResult *outcome.Channel[domain.Book]
	// DeleteResult receives deletion outcomes.
	DeleteResult *outcome.Channel[struct{}]
	// UploadResult receives cover-upload outcomes (the assigned URL).
	UploadResult *outcome.Channel[string]
}

// NewCatalogService constructs a CatalogService with fresh result channels.
func NewCatalogService(apiClient CatalogAPI, pipe *outcome.Pipeline) *CatalogService {
	return &CatalogService{
		API:              apiClient,
		Pipe:             pipe,
		CategoriesResult: outcome.NewChannel[[]domain.Category](),
		BooksResult:      outcome.NewChannel[[]domain.Book](),
		BookDetail:       outcome.NewChannel[domain.Book](),
		CreateResult:     outcome.NewChannel[domain.Book](),
		DeleteResult:     outcome.NewChannel[struct{}](),
		UploadResult:     outcome.NewChannel[string](),
	}
}

// FetchCategories launches a category listing.
func (s *CatalogService) FetchCategories(ctx context.Context) string {
	return outcome.Run(ctx, s.Pipe, s.CategoriesResult, "listCategories", func(ctx context.Context) ([]domain.Category, error) {
		cats, err := s.API.Categories(ctx)
		if err != nil {
			return nil, err
		}
		if cats == nil {
			cats = []domain.Category{}
		}
		return cats, nil
	})
}

// FetchBooks launches a book listing. An empty page is a successful empty
// slice, never a failure.
func (s *CatalogService) FetchBooks(ctx context.Context) string {
	return outcome.Run(ctx, s.Pipe, s.BooksResult, "listBooks", func(ctx context.Context) ([]domain.Book, error) {
		page, err := s.API.Books(ctx)
		if err != nil {
			return nil, err
		}
		if page.Data == nil {
			return []domain.Book{}, nil
		}
		return page.Data, nil
	})
}

// FetchBook launches a single-book fetch for the detail screen.
func (s *CatalogService) FetchBook(ctx context.Context, id int) string {
	return outcome.Run(ctx, s.Pipe, s.BookDetail, "getBookById", func(ctx context.Context) (domain.Book, error) {
		book, err := s.API.Book(ctx, id)
		if err != nil {
			return domain.Book{}, err
		}
		return *book, nil
	})
}

// CreateBook validates the form fields and launches a creation without an
// image (or with an already-uploaded image URL). The category ID is only
// required to be selected; it is not cross-checked against the fetched
// category list.
func (s *CatalogService) CreateBook(ctx context.Context, req domain.CreateBookRequest) (string, error) {
	if strings.TrimSpace(req.Title) == "" {
		return "", ErrTitleRequired
	}
	if strings.TrimSpace(req.Author) == "" {
		return "", ErrAuthorRequired
	}
	if req.CategoryID <= 0 {
		return "", ErrCategoryRequired
	}

	inv := outcome.Run(ctx, s.Pipe, s.CreateResult, "createBook", func(ctx context.Context) (domain.Book, error) {
		book, err := s.API.CreateBook(ctx, req)
		if err != nil {
			return domain.Book{}, err
		}
		return *book, nil
	})
	return inv, nil
}

// DeleteBook launches a deletion. On success the book listing is refreshed
// before the deletion outcome is published, so an observer that reacts to
// the deletion sees the refresh already in flight.
func (s *CatalogService) DeleteBook(ctx context.Context, id int) string {
	return outcome.Run(ctx, s.Pipe, s.DeleteResult, "deleteBook", func(ctx context.Context) (struct{}, error) {
		if err := s.API.DeleteBook(ctx, id); err != nil {
			return struct{}{}, err
		}
		s.FetchBooks(ctx)
		return struct{}{}, nil
	})
}

// UploadImage launches a cover upload for the local file at path.
func (s *CatalogService) UploadImage(ctx context.Context, path string) string {
	return outcome.Run(ctx, s.Pipe, s.UploadResult, "uploadImage", func(ctx context.Context) (string, error) {
		return s.API.UploadFile(ctx, path)
	})
}
