package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mgaultier/marks/internal/domain"
)

// Store handles Redis operations for bookmarks: owner-scoped CRUD, the
// per-owner change feed, and the cached list view.
// Row-level authorization is enforced here: update and delete verify
// the stored record's owner before touching anything.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Insert creates a bookmark for the owner and returns the persisted
// record with its server-assigned id and timestamp.
// A URL already present in the owner's set fails with a unique
// violation.
func (s *Store) Insert(ctx context.Context, owner, title, url string) (*domain.Bookmark, error) {
	added, err := s.client.SAdd(ctx, OwnerURLsKey(owner), url).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to reserve bookmark url: %w", err)
	}
	if added == 0 {
		return nil, uniqueViolation()
	}

	bookmark := &domain.Bookmark{
		ID:        uuid.NewString(),
		Owner:     owner,
		Title:     title,
		URL:       url,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.save(ctx, bookmark); err != nil {
		// Release the URL reservation so a retry can succeed.
		_ = s.client.SRem(ctx, OwnerURLsKey(owner), url).Err()
		return nil, err
	}

	s.publish(ctx, owner, domain.Change{Type: domain.ChangeInsert, New: bookmark})
	return bookmark, nil
}

// Update replaces the title and URL of the record matching both id and
// owner. A missing record fails with not-found; an owner mismatch
// fails with permission denied and leaves the record untouched.
func (s *Store) Update(ctx context.Context, id, owner, title, url string) (*domain.Bookmark, error) {
	existing, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Owner != owner {
		return nil, permissionDenied()
	}

	urlChanged := url != existing.URL
	if urlChanged {
		added, err := s.client.SAdd(ctx, OwnerURLsKey(owner), url).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to reserve bookmark url: %w", err)
		}
		if added == 0 {
			return nil, uniqueViolation()
		}
	}

	updated := &domain.Bookmark{
		ID:        existing.ID,
		Owner:     existing.Owner,
		Title:     title,
		URL:       url,
		CreatedAt: existing.CreatedAt,
	}

	data, err := json.Marshal(updated)
	if err != nil {
		if urlChanged {
			_ = s.client.SRem(ctx, OwnerURLsKey(owner), url).Err()
		}
		return nil, fmt.Errorf("failed to marshal bookmark: %w", err)
	}

	// Old URL release and record write commit together, so a failure
	// cannot leave the uniqueness set swapped against the record.
	pipe := s.client.Pipeline()
	if urlChanged {
		pipe.SRem(ctx, OwnerURLsKey(owner), existing.URL)
	}
	pipe.Set(ctx, BookmarkKey(updated.ID), data, 0)
	pipe.ZAdd(ctx, OwnerIndexKey(owner), redis.Z{
		Score:  float64(updated.CreatedAt.UnixNano()),
		Member: updated.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		if urlChanged {
			// Release the new reservation so a retry can succeed.
			_ = s.client.SRem(ctx, OwnerURLsKey(owner), url).Err()
		}
		return nil, fmt.Errorf("failed to save bookmark: %w", err)
	}

	s.publish(ctx, owner, domain.Change{Type: domain.ChangeUpdate, New: updated})
	return updated, nil
}

// Delete removes the record matching both id and owner.
// Deleting an id that no longer exists is a no-op success; an owner
// mismatch fails with permission denied.
func (s *Store) Delete(ctx context.Context, id, owner string) error {
	existing, err := s.get(ctx, id)
	if err != nil {
		var storeErr *Error
		if errors.As(err, &storeErr) && storeErr.Code == "" {
			// Already gone: nothing to delete, nothing to report.
			return nil
		}
		return err
	}
	if existing.Owner != owner {
		return permissionDenied()
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, BookmarkKey(id))
	pipe.ZRem(ctx, OwnerIndexKey(owner), id)
	pipe.SRem(ctx, OwnerURLsKey(owner), existing.URL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}

	s.publish(ctx, owner, domain.Change{Type: domain.ChangeDelete, OldID: id})
	return nil
}

// List returns all of the owner's bookmarks ordered by creation time
// descending.
func (s *Store) List(ctx context.Context, owner string) ([]*domain.Bookmark, error) {
	ids, err := s.client.ZRevRange(ctx, OwnerIndexKey(owner), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmark IDs: %w", err)
	}

	bookmarks := make([]*domain.Bookmark, 0, len(ids))
	for _, id := range ids {
		bookmark, err := s.get(ctx, id)
		if err != nil {
			// Skip records that vanished between the index read and now.
			continue
		}
		bookmarks = append(bookmarks, bookmark)
	}

	return bookmarks, nil
}

// save writes the record and indexes it in the owner's sorted set.
func (s *Store) save(ctx context.Context, bookmark *domain.Bookmark) error {
	data, err := json.Marshal(bookmark)
	if err != nil {
		return fmt.Errorf("failed to marshal bookmark: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, BookmarkKey(bookmark.ID), data, 0)
	pipe.ZAdd(ctx, OwnerIndexKey(bookmark.Owner), redis.Z{
		Score:  float64(bookmark.CreatedAt.UnixNano()),
		Member: bookmark.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save bookmark: %w", err)
	}

	return nil
}

// get retrieves a bookmark by ID
func (s *Store) get(ctx context.Context, id string) (*domain.Bookmark, error) {
	data, err := s.client.Get(ctx, BookmarkKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("failed to get bookmark: %w", err)
	}

	var bookmark domain.Bookmark
	if err := json.Unmarshal(data, &bookmark); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bookmark: %w", err)
	}

	return &bookmark, nil
}

// publish pushes a change event onto the owner's feed.
// The feed is advisory: a publish failure never fails the mutation
// that already committed.
func (s *Store) publish(ctx context.Context, owner string, change domain.Change) {
	data, err := json.Marshal(change)
	if err != nil {
		return
	}
	_ = s.client.Publish(ctx, EventsChannel(owner), data).Err()
}
