package integration

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/mgaultier/marks/internal/gateway"
	"github.com/mgaultier/marks/internal/logger"
	"github.com/mgaultier/marks/internal/notify"
	"github.com/mgaultier/marks/internal/realtime"
	"github.com/mgaultier/marks/internal/reconcile"
	"github.com/mgaultier/marks/internal/session"
	storeredis "github.com/mgaultier/marks/internal/store/redis"
)

// client bundles everything one connected consumer holds: its own
// reconciled view, a live subscription to the owner's change feed,
// and the shared mutation gateway.
type client struct {
	engine *reconcile.Engine
	sub    *realtime.Subscriber
}

type env struct {
	t        *testing.T
	ctx      context.Context
	redis    *redis.Client
	store    *storeredis.Store
	gateway  *gateway.Gateway
	verifier *session.TokenVerifier
}

func setupEnv(t *testing.T) *env {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := logger.New("error", false)
	store := storeredis.NewStore(client)
	return &env{
		t:        t,
		ctx:      ctx,
		redis:    client,
		store:    store,
		gateway:  gateway.New(store, log),
		verifier: session.NewTokenVerifier("integration-secret"),
	}
}

// connect opens one consumer for the owner: a live subscription plus
// a reconciliation engine fed by it.
func (e *env) connect(owner string) *client {
	e.t.Helper()
	token, err := e.verifier.Issue(owner, time.Hour)
	if err != nil {
		e.t.Fatalf("failed to issue token: %v", err)
	}
	sess := session.New(owner, token)

	log := logger.New("error", false)
	sub := realtime.NewSubscriber(e.redis, e.verifier, log, owner, realtime.Handlers{})
	if err := sub.Start(e.ctx, sess); err != nil {
		e.t.Fatalf("failed to start subscriber: %v", err)
	}
	e.t.Cleanup(sub.Close)

	initial, err := e.store.List(e.ctx, owner)
	if err != nil {
		e.t.Fatalf("failed to load initial list: %v", err)
	}

	engine := reconcile.NewEngine(reconcile.NewStore(initial), e.gateway, notify.NewRecorder(), log, sess)
	go engine.Run(e.ctx, sub.Events())
	return &client{engine: engine, sub: sub}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestCreatePropagatesAcrossConsumers(t *testing.T) {
	e := setupEnv(t)
	tabA := e.connect("owner-1")
	tabB := e.connect("owner-1")

	if err := tabA.engine.Create(e.ctx, "Example", "example.com"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// The creating view confirms the optimistic item with the server id.
	waitFor(t, func() bool {
		items := tabA.engine.Items()
		return len(items) == 1 && !strings.HasPrefix(items[0].ID, "temp-") && !items[0].Syncing
	}, "tab A never confirmed the created bookmark")

	// The other view learns about it from the change feed.
	waitFor(t, func() bool {
		items := tabB.engine.Items()
		return len(items) == 1 && items[0].URL == "https://example.com/"
	}, "tab B never received the insert event")
}

func TestDeletePropagatesAcrossConsumers(t *testing.T) {
	e := setupEnv(t)
	tabA := e.connect("owner-1")
	tabB := e.connect("owner-1")

	if err := tabA.engine.Create(e.ctx, "Example", "example.com"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	waitFor(t, func() bool { return len(tabB.engine.Items()) == 1 }, "tab B never saw the bookmark")

	id := tabB.engine.Items()[0].ID
	if err := tabB.engine.Delete(e.ctx, id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	waitFor(t, func() bool { return len(tabA.engine.Items()) == 0 }, "tab A never saw the delete")
	waitFor(t, func() bool { return len(tabB.engine.Items()) == 0 }, "tab B still shows the bookmark")
}

func TestUpdatePropagatesAcrossConsumers(t *testing.T) {
	e := setupEnv(t)
	tabA := e.connect("owner-1")
	tabB := e.connect("owner-1")

	if err := tabA.engine.Create(e.ctx, "Old title", "example.com"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	waitFor(t, func() bool {
		items := tabA.engine.Items()
		return len(items) == 1 && !strings.HasPrefix(items[0].ID, "temp-")
	}, "bookmark never confirmed")

	id := tabA.engine.Items()[0].ID
	if err := tabA.engine.Update(e.ctx, id, "New title", "example.com"); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	waitFor(t, func() bool {
		items := tabB.engine.Items()
		return len(items) == 1 && items[0].Title == "New title"
	}, "tab B never received the update event")
}

func TestOwnersAreIsolated(t *testing.T) {
	e := setupEnv(t)
	mine := e.connect("owner-1")
	theirs := e.connect("owner-2")

	if err := mine.engine.Create(e.ctx, "Private", "private.example.com"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	waitFor(t, func() bool { return len(mine.engine.Items()) == 1 }, "owner-1 never saw own bookmark")

	// Give the feed a moment; the other owner must see nothing.
	time.Sleep(100 * time.Millisecond)
	if items := theirs.engine.Items(); len(items) != 0 {
		t.Errorf("owner-2 view = %v, want empty", items)
	}
}

func TestReconnectLoadsExistingState(t *testing.T) {
	e := setupEnv(t)
	first := e.connect("owner-1")

	if err := first.engine.Create(e.ctx, "Example", "example.com"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	waitFor(t, func() bool {
		items := first.engine.Items()
		return len(items) == 1 && !strings.HasPrefix(items[0].ID, "temp-")
	}, "bookmark never confirmed")

	// A fresh consumer starts from the persisted list, not empty.
	second := e.connect("owner-1")
	items := second.engine.Items()
	if len(items) != 1 || items[0].URL != "https://example.com/" {
		t.Errorf("fresh consumer view = %v, want the persisted bookmark", items)
	}
}
