// Package session manages the auth token lifecycle: a two-state machine
// (Anonymous, Authenticated) backed by the encrypted on-disk store and the
// process-wide token cell the HTTP transport reads. Transitions:
//
//   - startup: Restore reads the persisted token; non-empty → Authenticated
//     (token attached), otherwise Anonymous.
//   - Anonymous → Authenticated: Establish on a successful login; the token
//     is persisted first, then attached, so a crash between the two leaves
//     the stronger state on disk.
//   - Authenticated → Anonymous: Clear on explicit logout; persisted value
//     removed, cell detached.
package session

import (
	"github.com/rs/zerolog"

	"github.com/cduarte/estante/internal/api"
	"github.com/cduarte/estante/internal/secstore"
)

// State names the two auth states.
type State int

const (
	// Anonymous means no token is attached; requests carry no bearer header.
	Anonymous State = iota
	// Authenticated means a token is attached to every outgoing request.
	Authenticated
)

// String returns a stable name for logging.
func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Manager coordinates the persisted token and the in-memory cell. All its
// methods are safe for concurrent use; the cell itself is an atomic swap and
// the store serializes its own writes.
type Manager struct {
	store  *secstore.Store
	tokens *api.TokenCell
	log    zerolog.Logger
}

// NewManager wires the store and the shared token cell.
func NewManager(store *secstore.Store, tokens *api.TokenCell, log zerolog.Logger) *Manager {
	return &Manager{store: store, tokens: tokens, log: log}
}

// Restore reads the persisted token at startup and attaches it when present,
// returning the resulting state. A corrupt store is logged and treated as
// Anonymous rather than failing startup.
func (m *Manager) Restore() State {
	token, err := m.store.Load()
	if err != nil {
		m.log.Warn().Err(err).Msg("token restore failed, starting anonymous")
		return Anonymous
	}
	if token == "" {
		return Anonymous
	}
	m.tokens.Set(token)
	m.log.Debug().Msg("session restored")
	return Authenticated
}

// Establish persists the token and attaches it to the shared cell. Called on
// a successful login outcome. The token is attached even when persistence
// fails, so the running session works and only the next launch is anonymous.
func (m *Manager) Establish(token string) error {
	err := m.store.Save(token)
	m.tokens.Set(token)
	if err != nil {
		m.log.Warn().Err(err).Msg("token persist failed, session is memory-only")
		return err
	}
	m.log.Debug().Msg("session established")
	return nil
}

// Clear removes the persisted token and detaches the cell. Called on logout.
func (m *Manager) Clear() error {
	m.tokens.Clear()
	if err := m.store.Clear(); err != nil {
		m.log.Warn().Err(err).Msg("token clear failed")
		return err
	}
	m.log.Debug().Msg("session cleared")
	return nil
}

// State reports the current state from the in-memory cell.
func (m *Manager) State() State {
	if m.tokens.Current() != "" {
		return Authenticated
	}
	return Anonymous
}
