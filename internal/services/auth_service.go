// Package services – AuthService.
//
// AuthService backs the register and login screens. Each operation publishes
// exactly one Outcome per invocation on its channel; validation failures are
// returned synchronously and never reach the pipeline, matching the screens'
// behavior of rejecting bad input before calling out.
package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/cduarte/estante/internal/domain"
	"github.com/cduarte/estante/internal/outcome"
	"github.com/cduarte/estante/internal/session"
)

// minPasswordLen is the minimum accepted password length in runes.
const minPasswordLen = 8

// AuthAPI defines the API-client contract required by AuthService.
type AuthAPI interface {
	// Register creates a new account.
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)

	// Login exchanges credentials for a bearer token and user record.
	Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)
}

// AuthService launches registration and login operations and maintains the
// session on a successful login.
type AuthService struct {
	// API is the typed client used for network calls.
	API AuthAPI
	// Session transitions the auth state machine on login/logout.
	Session *session.Manager
	// Pipe classifies failures and logs raw errors.
	Pipe *outcome.Pipeline

	// Registration receives the outcome of each Register invocation.
	Registration *outcome.Channel[domain.User]
	// LoginResult receives the outcome of each Login invocation.
	LoginResult *outcome.Channel[domain.User]
}

// NewAuthService constructs an AuthService with fresh result channels.
func NewAuthService(apiClient AuthAPI, sess *session.Manager, pipe *outcome.Pipeline) *AuthService {
	return &AuthService{
		API:          apiClient,
		Session:      sess,
		Pipe:         pipe,
		Registration: outcome.NewChannel[domain.User](),
		LoginResult:  outcome.NewChannel[domain.User](),
	}
}

// Register validates the form fields and launches the registration
// operation, returning the invocation ID. Validation failures return a
// sentinel error without publishing anything.
func (s *AuthService) Register(ctx context.Context, name, email, password, confirmPassword string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", ErrNameRequired
	}
	if strings.TrimSpace(email) == "" {
		return "", ErrEmailRequired
	}
	if err := checkPassword(password); err != nil {
		return "", err
	}
	if password != confirmPassword {
		return "", ErrPasswordMismatch
	}

	req := domain.RegisterRequest{
		Name:            strings.TrimSpace(name),
		Email:           strings.TrimSpace(email),
		Password:        password,
		ConfirmPassword: confirmPassword,
	}
	inv := outcome.Run(ctx, s.Pipe, s.Registration, "register", func(ctx context.Context) (domain.User, error) {
		user, err := s.API.Register(ctx, req)
		if err != nil {
			return domain.User{}, err
		}
		return *user, nil
	})
	return inv, nil
}

// Login validates the credentials and launches the login operation. On a
// successful response the token is persisted and attached before the outcome
// is published, so any operation issued after observing success is already
// authenticated.
func (s *AuthService) Login(ctx context.Context, credential, password string) (string, error) {
	if strings.TrimSpace(credential) == "" {
		return "", ErrCredentialRequired
	}
	if strings.TrimSpace(password) == "" {
		return "", ErrPasswordRequired
	}

	req := domain.LoginRequest{Credential: strings.TrimSpace(credential), Password: password}
	inv := outcome.Run(ctx, s.Pipe, s.LoginResult, "login", func(ctx context.Context) (domain.User, error) {
		resp, err := s.API.Login(ctx, req)
		if err != nil {
			return domain.User{}, err
		}
		// Persist-then-attach; a persistence failure degrades to a
		// memory-only session and is not surfaced as a login failure.
		s.Session.Establish(resp.Token)
		return resp.User, nil
	})
	return inv, nil
}

// Logout clears the session: the persisted token is removed and the shared
// cell detached.
func (s *AuthService) Logout() error {
	return s.Session.Clear()
}

// checkPassword applies the password rules shared by the register screen.
func checkPassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return ErrPasswordRequired
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return ErrPasswordTooShort
	}
	return nil
}
