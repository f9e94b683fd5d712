// Package services implements the screen-facing application layer: it
// validates user input the way the screens do, launches operations through
// the outcome pipeline, and owns the result channels screens observe.
//
// This file centralizes the validation sentinels. They are returned
// synchronously by service methods before any operation is launched; mapping
// them to localized text is the presentation layer's job (see internal/i18n).
package services

import "errors"

// Field-level validation errors, mirroring the checks the screens perform
// before invoking an operation.
var (
	// ErrNameRequired is returned when the registration name is blank.
	ErrNameRequired = errors.New("name is required")

	// ErrEmailRequired is returned when the registration email is blank.
	ErrEmailRequired = errors.New("email is required")

	// ErrCredentialRequired is returned when the login credential is blank.
	ErrCredentialRequired = errors.New("credential is required")

	// ErrPasswordRequired is returned when the password is blank.
	ErrPasswordRequired = errors.New("password is required")

	// ErrPasswordTooShort is returned when the password has fewer than
	// 8 characters.
	ErrPasswordTooShort = errors.New("password too short")

	// ErrPasswordMismatch is returned when password and confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrTitleRequired is returned when the book title is blank.
	ErrTitleRequired = errors.New("title is required")

	// ErrAuthorRequired is returned when the book author is blank.
	ErrAuthorRequired = errors.New("author is required")

	// ErrCategoryRequired is returned when no category is selected.
	ErrCategoryRequired = errors.New("category is required")

	// ErrImageRequired is returned when the create-with-image flow is started
	// without an image path.
	ErrImageRequired = errors.New("image is required")
)
