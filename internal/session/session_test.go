package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cduarte/estante/internal/api"
	"github.com/cduarte/estante/internal/secstore"
)

func newTestManager(t *testing.T, path string) (*Manager, *api.TokenCell) {
	t.Helper()
	tokens := &api.TokenCell{}
	store := secstore.New(path, "test-passphrase")
	return NewManager(store, tokens, zerolog.Nop()), tokens
}

func TestRestore_FreshInstallIsAnonymous(t *testing.T) {
	m, tokens := newTestManager(t, filepath.Join(t.TempDir(), "token.bin"))

	if got := m.Restore(); got != Anonymous {
		t.Fatalf("Restore = %v, want Anonymous", got)
	}
	if tokens.Current() != "" {
		t.Fatalf("cell token = %q, want empty", tokens.Current())
	}
}

func TestEstablish_SurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.bin")

	m, tokens := newTestManager(t, path)
	if err := m.Establish("tok-xyz"); err != nil {
		t.Fatalf("Establish: %v", err)
	}
	if tokens.Current() != "tok-xyz" {
		t.Fatalf("cell token = %q", tokens.Current())
	}
	if m.State() != Authenticated {
		t.Fatalf("State = %v, want Authenticated", m.State())
	}

	// Simulate a restart: new cell, new manager, same store file.
	m2, tokens2 := newTestManager(t, path)
	if got := m2.Restore(); got != Authenticated {
		t.Fatalf("Restore after restart = %v, want Authenticated", got)
	}
	if tokens2.Current() != "tok-xyz" {
		t.Fatalf("restored token = %q", tokens2.Current())
	}
}

func TestClear_SurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.bin")

	m, tokens := newTestManager(t, path)
	if err := m.Establish("tok-xyz"); err != nil {
		t.Fatal(err)
	}
	if err := m.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if tokens.Current() != "" {
		t.Fatalf("cell token after clear = %q", tokens.Current())
	}
	if m.State() != Anonymous {
		t.Fatalf("State = %v, want Anonymous", m.State())
	}

	m2, _ := newTestManager(t, path)
	if got := m2.Restore(); got != Anonymous {
		t.Fatalf("Restore after logout+restart = %v, want Anonymous", got)
	}
}

func TestRestore_CorruptStoreFallsBackToAnonymous(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.bin")
	if err := os.WriteFile(path, []byte("garbage bytes that are not a sealed token"), 0o600); err != nil {
		t.Fatal(err)
	}

	m, tokens := newTestManager(t, path)
	if got := m.Restore(); got != Anonymous {
		t.Fatalf("Restore with corrupt store = %v, want Anonymous", got)
	}
	if tokens.Current() != "" {
		t.Fatalf("cell token = %q, want empty", tokens.Current())
	}
}

func TestStateString(t *testing.T) {
	if Anonymous.String() != "anonymous" || Authenticated.String() != "authenticated" {
		t.Fatalf("State strings = %q, %q", Anonymous.String(), Authenticated.String())
	}
}
