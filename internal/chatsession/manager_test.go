package chatsession

import (
	"context"
	"testing"
	"time"
)

func newTestManager(timeout time.Duration) *Manager {
	deps := Deps{
		Identity: &fakeIdentity{},
		Personas: &fakePersonas{},
		Sender:   &fakeSender{},
	}
	return NewManager(deps, timeout)
}

func TestManagerCreateGetEnd(t *testing.T) {
	m := newTestManager(time.Minute)
	c := m.Create("u1", einstein())
	if c.ID == "" {
		t.Fatalf("session ID should not be empty")
	}

	got, err := m.Get(c.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.UserID != "u1" || got.Figure.Name != "Albert Einstein" {
		t.Fatalf("unexpected session: user=%q figure=%q", got.UserID, got.Figure.Name)
	}
	if m.ActiveCount() != 1 {
		t.Fatalf("ActiveCount = %d, want 1", m.ActiveCount())
	}

	ended, err := m.End(c.ID)
	if err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if ended.State() != StateEnded {
		t.Fatalf("state = %q, want %q", ended.State(), StateEnded)
	}
	if _, err := m.Get(c.ID); err == nil {
		t.Fatalf("Get() after End should fail")
	}
}

func TestManagerSessionsAreIsolated(t *testing.T) {
	m := newTestManager(time.Minute)
	a := m.Create("u1", einstein())
	b := m.Create("u2", einstein())

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if b.State() != StateUninitialized {
		t.Fatalf("sibling session state = %q, want untouched", b.State())
	}

	if _, err := m.End(a.ID); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if b.State() != StateUninitialized {
		t.Fatalf("ending one session affected another")
	}
}

func TestManagerJanitorExpiresInactive(t *testing.T) {
	m := newTestManager(30 * time.Millisecond)
	c := m.Create("u1", einstein())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.StartJanitor(ctx, 10*time.Millisecond)

	time.Sleep(90 * time.Millisecond)
	if _, err := m.Get(c.ID); err == nil {
		t.Fatalf("expired session still retrievable")
	}
	if c.State() != StateEnded {
		t.Fatalf("state = %q, want %q", c.State(), StateEnded)
	}
}
