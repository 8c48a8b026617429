package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/mgaultier/marks/internal/domain"
	"github.com/mgaultier/marks/internal/logger"
	"github.com/mgaultier/marks/internal/session"
	storeredis "github.com/mgaultier/marks/internal/store/redis"
)

func setupGateway(t *testing.T) (*Gateway, *storeredis.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := storeredis.NewStore(client)
	return New(store, logger.New("error", false)), store
}

func ownerSession(owner string) session.Session {
	return session.New(owner, "test-token")
}

func TestCreateRequiresOwner(t *testing.T) {
	g, _ := setupGateway(t)

	_, err := g.Create(context.Background(), session.Session{}, "t", "example.com")
	if !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Create without owner = %v, want ErrUnauthenticated", err)
	}
}

func TestCreateValidatesInput(t *testing.T) {
	g, _ := setupGateway(t)

	_, err := g.Create(context.Background(), ownerSession("owner-1"), "", "example.com")
	var fieldErrs domain.FieldErrors
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("Create with empty title = %v, want FieldErrors", err)
	}
	if fieldErrs["title"] == "" {
		t.Errorf("want a title-scoped error, got %v", fieldErrs)
	}
}

func TestCreateNormalizesAndPersists(t *testing.T) {
	g, store := setupGateway(t)
	ctx := context.Background()

	bookmark, err := g.Create(ctx, ownerSession("owner-1"), "  Example  ", "example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if bookmark.Title != "Example" {
		t.Errorf("title = %q, want trimmed %q", bookmark.Title, "Example")
	}
	if bookmark.URL != "https://example.com/" {
		t.Errorf("url = %q, want normalized %q", bookmark.URL, "https://example.com/")
	}

	list, err := store.List(ctx, "owner-1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != bookmark.ID {
		t.Errorf("persisted list = %v, want the created record", list)
	}
}

func TestCreateInvalidatesListCache(t *testing.T) {
	g, store := setupGateway(t)
	ctx := context.Background()

	if err := store.CacheList(ctx, "owner-1", []byte("stale"), storeredis.DefaultListCacheTTL); err != nil {
		t.Fatalf("CacheList failed: %v", err)
	}

	if _, err := g.Create(ctx, ownerSession("owner-1"), "t", "example.com"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	cached, err := store.CachedList(ctx, "owner-1")
	if err != nil {
		t.Fatalf("CachedList failed: %v", err)
	}
	if cached != nil {
		t.Errorf("list cache should be invalidated after create, got %q", cached)
	}
}

func TestUpdateRequiresID(t *testing.T) {
	g, _ := setupGateway(t)

	_, err := g.Update(context.Background(), ownerSession("owner-1"), "", "t", "example.com")
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Update with empty id = %v, want ErrInvalidArgument", err)
	}
}

func TestUpdateReplacesRecord(t *testing.T) {
	g, _ := setupGateway(t)
	ctx := context.Background()
	sess := ownerSession("owner-1")

	created, err := g.Create(ctx, sess, "Old", "old.example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := g.Update(ctx, sess, created.ID, "New", "new.example.com")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Title != "New" || updated.URL != "https://new.example.com/" {
		t.Errorf("Update result = %+v", updated)
	}
}

func TestUpdateCrossOwnerClassifies(t *testing.T) {
	g, _ := setupGateway(t)
	ctx := context.Background()

	created, err := g.Create(ctx, ownerSession("owner-1"), "Mine", "mine.example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = g.Update(ctx, ownerSession("owner-2"), created.ID, "Theirs", "theirs.example.com")
	if err == nil {
		t.Fatal("cross-owner update should fail")
	}
	if got := Classify(err); got != "Not authorized for this action." {
		t.Errorf("Classify(cross-owner update) = %q", got)
	}
}

func TestDeleteRequiresID(t *testing.T) {
	g, _ := setupGateway(t)

	err := g.Delete(context.Background(), ownerSession("owner-1"), "")
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Delete with empty id = %v, want ErrInvalidArgument", err)
	}
}

func TestDeleteRemovesRecord(t *testing.T) {
	g, store := setupGateway(t)
	ctx := context.Background()
	sess := ownerSession("owner-1")

	created, err := g.Create(ctx, sess, "Gone", "gone.example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := g.Delete(ctx, sess, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	list, _ := store.List(ctx, "owner-1")
	if len(list) != 0 {
		t.Errorf("list after delete = %v, want empty", list)
	}
}

func TestDuplicateCreateClassifies(t *testing.T) {
	g, _ := setupGateway(t)
	ctx := context.Background()
	sess := ownerSession("owner-1")

	if _, err := g.Create(ctx, sess, "First", "example.com"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err := g.Create(ctx, sess, "Second", "example.com")
	if err == nil {
		t.Fatal("duplicate create should fail")
	}
	if got := Classify(err); got != "Bookmark already exists." {
		t.Errorf("Classify(duplicate create) = %q", got)
	}
}
