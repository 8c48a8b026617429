// Package gateway executes bookmark mutations under the authenticated
// owner's identity and classifies persistence failures for display.
package gateway

import (
	"context"
	"errors"

	"github.com/mgaultier/marks/internal/domain"
	"github.com/mgaultier/marks/internal/logger"
	"github.com/mgaultier/marks/internal/session"
	storeredis "github.com/mgaultier/marks/internal/store/redis"
)

var (
	// ErrUnauthenticated is returned when no owner identity resolves.
	ErrUnauthenticated = errors.New("You need to be logged in.")
	// ErrInvalidArgument is returned when a required id is missing.
	ErrInvalidArgument = errors.New("Bookmark id is required.")
)

// Gateway runs create/update/delete against the store, owner-scoped.
// On any successful mutation the owner's cached list view is
// invalidated so server-side reads stay consistent.
type Gateway struct {
	store  *storeredis.Store
	logger logger.Logger
}

// New creates a mutation gateway
func New(store *storeredis.Store, log logger.Logger) *Gateway {
	return &Gateway{
		store:  store,
		logger: log,
	}
}

// Create validates the input and inserts a bookmark for the session's
// owner, returning the persisted record.
func (g *Gateway) Create(ctx context.Context, sess session.Session, title, rawURL string) (*domain.Bookmark, error) {
	owner, ok := sess.Owner()
	if !ok {
		return nil, ErrUnauthenticated
	}

	input, fieldErrs := domain.Validate(title, rawURL)
	if fieldErrs != nil {
		return nil, fieldErrs
	}

	bookmark, err := g.store.Insert(ctx, owner, input.Title, input.URL)
	if err != nil {
		return nil, err
	}

	g.invalidate(ctx, owner)
	return bookmark, nil
}

// Update validates the input and replaces the record matching both id
// and the session's owner, returning the updated record.
func (g *Gateway) Update(ctx context.Context, sess session.Session, id, title, rawURL string) (*domain.Bookmark, error) {
	owner, ok := sess.Owner()
	if !ok {
		return nil, ErrUnauthenticated
	}
	if id == "" {
		return nil, ErrInvalidArgument
	}

	input, fieldErrs := domain.Validate(title, rawURL)
	if fieldErrs != nil {
		return nil, fieldErrs
	}

	bookmark, err := g.store.Update(ctx, id, owner, input.Title, input.URL)
	if err != nil {
		return nil, err
	}

	g.invalidate(ctx, owner)
	return bookmark, nil
}

// Delete removes the record matching both id and the session's owner.
func (g *Gateway) Delete(ctx context.Context, sess session.Session, id string) error {
	owner, ok := sess.Owner()
	if !ok {
		return ErrUnauthenticated
	}
	if id == "" {
		return ErrInvalidArgument
	}

	if err := g.store.Delete(ctx, id, owner); err != nil {
		return err
	}

	g.invalidate(ctx, owner)
	return nil
}

// invalidate drops the owner's cached list view (best effort).
func (g *Gateway) invalidate(ctx context.Context, owner string) {
	if err := g.store.InvalidateList(ctx, owner); err != nil {
		g.logger.Warn("failed to invalidate list cache",
			logger.String("owner", owner),
			logger.Error(err))
	}
}
