package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mentormind/mentormind/internal/sensay"
)

// Error wraps a failure while resolving or creating a platform user.
type Error struct {
	UserID string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("identity: resolve user %q: %v", e.UserID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Platform is the subset of the transport client the resolver needs.
type Platform interface {
	GetUser(ctx context.Context, id string) (sensay.User, error)
	CreateUser(ctx context.Context, id string) (sensay.User, error)
}

// Resolver turns an externally supplied stable identifier into a platform
// user record, creating the record on first contact. It never retries.
type Resolver struct {
	platform Platform
}

func NewResolver(platform Platform) *Resolver {
	return &Resolver{platform: platform}
}

// Resolve looks the user up by id and creates it when the platform has no
// record yet. Any failure other than "not found" propagates as *Error.
func (r *Resolver) Resolve(ctx context.Context, candidateID string) (sensay.User, error) {
	id := strings.TrimSpace(candidateID)
	if id == "" {
		return sensay.User{}, &Error{UserID: candidateID, Err: errors.New("empty user id")}
	}

	user, err := r.platform.GetUser(ctx, id)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sensay.ErrNotFound) {
		return sensay.User{}, &Error{UserID: id, Err: err}
	}

	created, err := r.platform.CreateUser(ctx, id)
	if err != nil {
		return sensay.User{}, &Error{UserID: id, Err: err}
	}
	return created, nil
}
