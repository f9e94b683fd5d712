// Package devserver implements a local stand-in for the hosted book-catalog
// service, exposing the same REST contract the client consumes so the app
// can be exercised offline.
//
// This file contains the persistence layer: GORM records, the SQLite
// bootstrap (pure-Go driver, WAL and pool settings), migrations, the seeded
// default categories, and the repository functions the handlers call.
package devserver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/cduarte/estante/internal/domain"
)

// UserRecord is a registered account. Passwords are stored as bcrypt hashes.
type UserRecord struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"type:varchar(120);not null;uniqueIndex"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash string `gorm:"type:varchar(80);not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the database table name for UserRecord.
func (UserRecord) TableName() string { return "users" }

// SessionRecord maps an issued bearer token to its user.
type SessionRecord struct {
	Token     string `gorm:"type:char(64);primaryKey"`
	UserID    uint   `gorm:"not null;index"`
	CreatedAt time.Time
}

// TableName returns the database table name for SessionRecord.
func (SessionRecord) TableName() string { return "sessions" }

// CategoryRecord is one selectable book category.
type CategoryRecord struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"type:varchar(80);not null;uniqueIndex"`
}

// TableName returns the database table name for CategoryRecord.
func (CategoryRecord) TableName() string { return "categories" }

// BookRecord is one catalog entry.
type BookRecord struct {
	ID         uint   `gorm:"primaryKey"`
	Title      string `gorm:"type:varchar(255);not null"`
	Summary    string `gorm:"type:text"`
	Author     string `gorm:"type:varchar(120);not null"`
	ImageURL   string `gorm:"type:varchar(512)"`
	CategoryID uint   `gorm:"not null;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Category CategoryRecord `gorm:"foreignKey:CategoryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for BookRecord.
func (BookRecord) TableName() string { return "books" }

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if the parent directory does not exist instead of a cryptic
	// sqlite error at first write.
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// AutoMigrate creates or updates the schema for all records.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserRecord{},
		&SessionRecord{},
		&CategoryRecord{},
		&BookRecord{},
	)
}

// defaultCategories seeds a usable selector on an empty database.
var defaultCategories = []string{
	"Romance",
	"Fantasia",
	"Ficção Científica",
	"Biografia",
	"História",
	"Técnico",
}

// SeedCategories inserts the default categories when the table is empty.
func SeedCategories(db *gorm.DB) error {
	var count int64
	if err := db.Model(&CategoryRecord{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, name := range defaultCategories {
		if err := db.Create(&CategoryRecord{Name: name}).Error; err != nil {
			return err
		}
	}
	return nil
}

// ---- repository functions ----

// CreateUser inserts a new account.
func CreateUser(ctx context.Context, db *gorm.DB, name, email, passwordHash string) (*UserRecord, error) {
	u := &UserRecord{Name: name, Email: email, PasswordHash: passwordHash}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// FindUserByCredential fetches a user by name or email. Returns (nil, nil)
// when no user matches.
func FindUserByCredential(ctx context.Context, db *gorm.DB, credential string) (*UserRecord, error) {
	var u UserRecord
	err := db.WithContext(ctx).
		Where("name = ? OR email = ?", credential, credential).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateSession stores an issued token for the user.
func CreateSession(ctx context.Context, db *gorm.DB, token string, userID uint) error {
	return db.WithContext(ctx).Create(&SessionRecord{Token: token, UserID: userID}).Error
}

// FindSession resolves a bearer token to its session. Returns (nil, nil)
// when the token is unknown.
func FindSession(ctx context.Context, db *gorm.DB, token string) (*SessionRecord, error) {
	var s SessionRecord
	err := db.WithContext(ctx).Where("token = ?", token).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListCategories returns all categories ordered by ID.
func ListCategories(ctx context.Context, db *gorm.DB) ([]CategoryRecord, error) {
	var cats []CategoryRecord
	err := db.WithContext(ctx).Order("id asc").Find(&cats).Error
	return cats, err
}

// CategoryExists reports whether the category ID is known.
func CategoryExists(ctx context.Context, db *gorm.DB, id uint) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&CategoryRecord{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// CountBooks returns the total number of books.
func CountBooks(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&BookRecord{}).Count(&count).Error
	return count, err
}

// ListBooksPage returns one page of books ordered by ID.
func ListBooksPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]BookRecord, error) {
	var books []BookRecord
	err := db.WithContext(ctx).Order("id asc").Offset(offset).Limit(limit).Find(&books).Error
	return books, err
}

// GetBook fetches one book by ID. Returns (nil, nil) when absent.
func GetBook(ctx context.Context, db *gorm.DB, id uint) (*BookRecord, error) {
	var b BookRecord
	err := db.WithContext(ctx).First(&b, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBook inserts a new book.
func CreateBook(ctx context.Context, db *gorm.DB, b *BookRecord) error {
	return db.WithContext(ctx).Create(b).Error
}

// DeleteBook removes a book by ID, reporting whether a row was deleted.
func DeleteBook(ctx context.Context, db *gorm.DB, id uint) (bool, error) {
	res := db.WithContext(ctx).Delete(&BookRecord{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ---- wire conversion ----

// toWireUser converts a record to the public user shape.
func toWireUser(u *UserRecord) domain.User {
	return domain.User{
		ID:        int(u.ID),
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// toWireBook converts a record to the public book shape.
func toWireBook(b *BookRecord) domain.Book {
	return domain.Book{
		ID:         int(b.ID),
		Title:      b.Title,
		Summary:    b.Summary,
		Author:     b.Author,
		ImageURL:   b.ImageURL,
		CategoryID: int(b.CategoryID),
		CreatedAt:  b.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  b.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
