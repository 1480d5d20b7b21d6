package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mentormind/mentormind/internal/figures"
	"github.com/mentormind/mentormind/internal/sensay"
)

// Error wraps a persona registry failure.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("registry: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Platform is the subset of the transport client the registry needs.
type Platform interface {
	ListReplicas(ctx context.Context, userID string) ([]sensay.Replica, error)
	CreateReplica(ctx context.Context, userID string, req sensay.CreateReplicaRequest) (sensay.Replica, error)
}

// Registry provisions personas keyed by display name. A persona's name is its
// de-duplication key: within one process, concurrent get-or-create calls for
// the same (user, name) pair are serialised so only one create fires. The
// platform itself offers no idempotent create, so two separate processes can
// still race and produce duplicates.
type Registry struct {
	platform Platform
	llm      sensay.LLMSpec
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(platform Platform, llm sensay.LLMSpec) *Registry {
	return &Registry{
		platform: platform,
		llm:      llm,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

// List returns all personas owned by userID.
func (r *Registry) List(ctx context.Context, userID string) ([]sensay.Replica, error) {
	items, err := r.platform.ListReplicas(ctx, userID)
	if err != nil {
		return nil, &Error{Op: "list personas", Err: err}
	}
	return items, nil
}

// Create provisions a persona from the supplied figure descriptor. The
// generation model comes from the registry's configuration.
func (r *Registry) Create(ctx context.Context, userID string, figure figures.Figure) (sensay.Replica, error) {
	req := sensay.CreateReplicaRequest{
		Name:             figure.Name,
		ShortDescription: figure.Description,
		Greeting:         figures.Greeting(figure),
		Slug:             Slugify(figure.Name, r.now()),
		OwnerID:          userID,
		Private:          false,
		LLM:              r.llm,
	}
	rep, err := r.platform.CreateReplica(ctx, userID, req)
	if err != nil {
		return sensay.Replica{}, &Error{Op: "create persona", Err: err}
	}
	return rep, nil
}

// GetOrCreateByName returns the id of the user's persona with the figure's
// exact name, creating it on first miss. The list-then-create sequence is not
// transactional on the platform side; the per-key lock below only closes the
// window inside this process.
func (r *Registry) GetOrCreateByName(ctx context.Context, userID string, figure figures.Figure) (string, error) {
	unlock := r.lock(userID, figure.Name)
	defer unlock()

	items, err := r.List(ctx, userID)
	if err != nil {
		return "", err
	}
	for _, item := range items {
		if item.Name == figure.Name {
			return item.UUID, nil
		}
	}

	rep, err := r.Create(ctx, userID, figure)
	if err != nil {
		return "", err
	}
	return rep.UUID, nil
}

func (r *Registry) lock(userID, name string) func() {
	key := userID + "\x00" + name
	r.mu.Lock()
	m, ok := r.locks[key]
	if !ok {
		m = &sync.Mutex{}
		r.locks[key] = m
	}
	r.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// Slugify derives a URL-safe slug from a display name: lower-cased, whitespace
// runs collapsed to single dashes, suffixed with the millisecond timestamp so
// repeated creations never collide.
func Slugify(name string, now time.Time) string {
	base := strings.Join(strings.Fields(strings.ToLower(name)), "-")
	return fmt.Sprintf("%s-%d", base, now.UnixMilli())
}
