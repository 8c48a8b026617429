package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mgaultier/marks/internal/domain"
	"github.com/mgaultier/marks/internal/gateway"
	"github.com/mgaultier/marks/internal/logger"
	"github.com/mgaultier/marks/internal/notify"
	"github.com/mgaultier/marks/internal/session"
)

var (
	// ErrNotFound is returned when a local mutation targets an id that
	// is not in the current view.
	ErrNotFound = errors.New("bookmark is not in the current view")
	// ErrBusy is returned when another local mutation is already in
	// flight for the same id.
	ErrBusy = errors.New("another operation is in flight for this bookmark")
	// ErrStopped is returned when the engine's loop is no longer running.
	ErrStopped = errors.New("engine stopped")
)

// Engine is the single-threaded reconciliation loop. Every store
// transition (optimistic applies, mutation completions and realtime
// merges) executes on the loop goroutine, so interleaved operations
// cannot corrupt the list even though network calls complete in any
// order. In-flight mutation completions arriving after the loop has
// stopped are dropped.
type Engine struct {
	store    *Store
	gateway  *gateway.Gateway
	notifier notify.Notifier
	logger   logger.Logger
	sess     session.Session

	apply chan func()
	done  chan struct{}
}

// NewEngine creates an engine over a seeded store, operating as the
// given session
func NewEngine(store *Store, gw *gateway.Gateway, notifier notify.Notifier, log logger.Logger, sess session.Session) *Engine {
	return &Engine{
		store:    store,
		gateway:  gw,
		notifier: notifier,
		logger:   log,
		sess:     sess,
		apply:    make(chan func(), 16),
		done:     make(chan struct{}),
	}
}

// Store exposes the underlying view for rendering
func (e *Engine) Store() *Store {
	return e.store
}

// Items returns a snapshot of the current view, newest first
func (e *Engine) Items() []Item {
	return e.store.Items()
}

// Run consumes local transitions and realtime events until ctx is
// cancelled. It must run in exactly one goroutine.
func (e *Engine) Run(ctx context.Context, events <-chan domain.Change) {
	defer close(e.done)

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-e.apply:
			fn()
		case change, ok := <-events:
			if !ok {
				// Feed ended; keep serving local operations.
				events = nil
				continue
			}
			e.merge(change)
		}
	}
}

// Create optimistically places the bookmark under a temporary id, then
// persists it. On confirmation the temporary item is swapped for the
// server record in one transition; on failure it vanishes without a
// trace and the error is surfaced to the notifier.
// Validation failures are returned to the caller and never reach the
// notifier.
func (e *Engine) Create(ctx context.Context, title, rawURL string) error {
	input, fieldErrs := domain.Validate(title, rawURL)
	if fieldErrs != nil {
		return fieldErrs
	}

	owner, _ := e.sess.Owner()
	tempID := "temp-" + uuid.NewString()
	optimistic := Item{
		Bookmark: domain.Bookmark{
			ID:        tempID,
			Owner:     owner,
			Title:     input.Title,
			URL:       input.URL,
			CreatedAt: time.Now().UTC(),
		},
		Syncing: true,
	}

	if !e.transition(func() { e.store.Upsert(optimistic) }) {
		return ErrStopped
	}

	go func() {
		bookmark, err := e.gateway.Create(ctx, e.sess, input.Title, input.URL)
		e.transition(func() {
			if err != nil {
				e.store.Remove(tempID)
				e.notifier.Error(gateway.Classify(err))
				return
			}
			e.store.Replace(tempID, Item{Bookmark: *bookmark})
			e.notifier.Success("Bookmark added")
		})
	}()
	return nil
}

// Update optimistically applies the new content to the targeted item,
// then persists it. A failure rolls the item back to its pre-update
// snapshot. Targets that are absent or already busy fail fast without
// mutating the view.
func (e *Engine) Update(ctx context.Context, id, title, rawURL string) error {
	input, fieldErrs := domain.Validate(title, rawURL)
	if fieldErrs != nil {
		return fieldErrs
	}

	type started struct {
		prev Item
		err  error
	}
	res := make(chan started, 1)
	posted := e.transition(func() {
		prev, ok := e.store.Get(id)
		if !ok {
			res <- started{err: ErrNotFound}
			return
		}
		if e.store.IsPendingUpdate(id) || e.store.IsPendingDelete(id) {
			res <- started{err: ErrBusy}
			return
		}
		e.store.MarkPendingUpdate(id)
		optimistic := prev
		optimistic.Title = input.Title
		optimistic.URL = input.URL
		e.store.Upsert(optimistic)
		res <- started{prev: prev}
	})
	if !posted {
		return ErrStopped
	}
	var start started
	select {
	case start = <-res:
	case <-e.done:
		// The loop stopped with the start transition still queued;
		// it will never run, so do not wait for it.
		return ErrStopped
	}
	if start.err != nil {
		return start.err
	}

	go func() {
		bookmark, err := e.gateway.Update(ctx, e.sess, id, input.Title, input.URL)
		e.transition(func() {
			defer e.store.ClearPendingUpdate(id)
			if err != nil {
				e.store.Upsert(start.prev)
				e.notifier.Error(gateway.Classify(err))
				return
			}
			e.store.Upsert(Item{Bookmark: *bookmark})
			e.notifier.Success("Bookmark updated")
		})
	}()
	return nil
}

// Delete optimistically removes the item, capturing it for
// restoration, then persists the delete. A failure re-upserts the
// captured item at its original position in the ordering.
func (e *Engine) Delete(ctx context.Context, id string) error {
	type started struct {
		removed Item
		err     error
	}
	res := make(chan started, 1)
	posted := e.transition(func() {
		if e.store.IsPendingDelete(id) {
			res <- started{err: ErrBusy}
			return
		}
		removed, ok := e.store.Remove(id)
		if !ok {
			res <- started{err: ErrNotFound}
			return
		}
		e.store.MarkPendingDelete(id)
		res <- started{removed: removed}
	})
	if !posted {
		return ErrStopped
	}
	var start started
	select {
	case start = <-res:
	case <-e.done:
		return ErrStopped
	}
	if start.err != nil {
		return start.err
	}

	go func() {
		err := e.gateway.Delete(ctx, e.sess, id)
		e.transition(func() {
			defer e.store.ClearPendingDelete(id)
			if err != nil {
				e.store.Upsert(start.removed)
				e.notifier.Error(gateway.Classify(err))
				return
			}
			e.notifier.Success("Bookmark deleted")
		})
	}()
	return nil
}

// merge applies one realtime change through the same primitives the
// local flows use. Races against in-flight local mutations resolve as
// last-writer-wins; pending flags do not block external events.
func (e *Engine) merge(change domain.Change) {
	switch change.Type {
	case domain.ChangeInsert, domain.ChangeUpdate:
		if change.New == nil {
			return
		}
		e.store.Upsert(Item{Bookmark: *change.New})
	case domain.ChangeDelete:
		if change.OldID == "" {
			return
		}
		e.store.Remove(change.OldID)
	default:
		e.logger.Debug("ignoring unknown change type",
			logger.String("type", string(change.Type)))
	}
}

// transition schedules fn on the loop goroutine. It reports false if
// the loop has stopped, in which case fn is dropped: completions
// after teardown are ignored.
func (e *Engine) transition(fn func()) bool {
	select {
	case e.apply <- fn:
		return true
	case <-e.done:
		return false
	}
}
