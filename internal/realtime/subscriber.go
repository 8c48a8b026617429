// Package realtime maintains a live subscription to one owner's
// change feed and translates raw feed messages into typed events.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/mgaultier/marks/internal/domain"
	"github.com/mgaultier/marks/internal/logger"
	"github.com/mgaultier/marks/internal/session"
	storeredis "github.com/mgaultier/marks/internal/store/redis"
	"github.com/mgaultier/marks/internal/utils"
)

// Status is the subscriber lifecycle state.
type Status int

const (
	StatusIdle Status = iota
	StatusAuthorizing
	StatusSubscribed
	StatusError
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusAuthorizing:
		return "authorizing"
	case StatusSubscribed:
		return "subscribed"
	case StatusError:
		return "error"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var (
	// ErrUnauthorized is returned when the session token is missing,
	// invalid, or grants a different owner than the requested channel.
	ErrUnauthorized = errors.New("realtime channel not authorized for this session")
	// ErrAlreadyStarted is returned on a second Start.
	ErrAlreadyStarted = errors.New("subscriber already started")
)

// Handlers are the typed callbacks a consumer registers for change
// events. Any of them may be nil.
type Handlers struct {
	OnInsert func(bookmark domain.Bookmark)
	OnUpdate func(bookmark domain.Bookmark)
	OnDelete func(id string)
}

// Subscriber holds exactly one feed channel scoped to one owner.
// It does not retry on channel failure; re-subscription is the
// caller's responsibility on remount.
type Subscriber struct {
	client   *redis.Client
	verifier *session.TokenVerifier
	logger   logger.Logger
	owner    string
	handlers Handlers

	mu        sync.Mutex
	status    Status
	cancelled bool
	closed    bool
	pubsub    *redis.PubSub

	events chan domain.Change
}

// NewSubscriber creates an idle subscriber for one owner's feed
func NewSubscriber(client *redis.Client, verifier *session.TokenVerifier, log logger.Logger, owner string, handlers Handlers) *Subscriber {
	return &Subscriber{
		client:   client,
		verifier: verifier,
		logger:   log,
		owner:    owner,
		handlers: handlers,
		status:   StatusIdle,
		events:   make(chan domain.Change, 32),
	}
}

// Start authorizes the session token for this owner's channel and
// opens the subscription. The feed is fail-closed: without a token
// that verifies to the same owner, no channel is opened.
// If Close raced the authorization step, Start returns nil without
// subscribing.
func (s *Subscriber) Start(ctx context.Context, sess session.Session) error {
	s.mu.Lock()
	if s.status != StatusIdle {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.status = StatusAuthorizing
	s.mu.Unlock()

	token, ok := sess.Token()
	if !ok {
		s.setStatus(StatusError)
		return ErrUnauthorized
	}
	verified, err := s.verifier.Verify(token)
	if err != nil {
		s.setStatus(StatusError)
		return ErrUnauthorized
	}
	if owner, _ := verified.Owner(); owner != s.owner {
		s.setStatus(StatusError)
		return ErrUnauthorized
	}

	s.mu.Lock()
	if s.cancelled {
		// Teardown won the race: do not act on a stale authorization.
		s.mu.Unlock()
		return nil
	}
	pubsub := s.client.Subscribe(ctx, storeredis.EventsChannel(s.owner))
	s.pubsub = pubsub
	s.mu.Unlock()

	if _, err := pubsub.Receive(ctx); err != nil {
		s.setStatus(StatusError)
		s.logger.Error("realtime channel subscribe failed",
			logger.String("owner", s.owner),
			logger.Error(err))
		return err
	}

	s.setStatus(StatusSubscribed)
	go s.receive(pubsub)
	return nil
}

// Events exposes the feed as a typed channel for loop-style consumers.
// The channel is closed when the subscription ends.
func (s *Subscriber) Events() <-chan domain.Change {
	return s.events
}

// Status reports the current lifecycle state
func (s *Subscriber) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Close unconditionally releases the channel. Safe to call at any
// point of the lifecycle, including while Start is authorizing, and
// idempotent: later calls do nothing.
func (s *Subscriber) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancelled = true
	if s.status != StatusError {
		s.status = StatusClosed
	}
	pubsub := s.pubsub
	s.pubsub = nil
	s.mu.Unlock()

	if pubsub != nil {
		// receive's deferred close owns the events channel.
		utils.Close(pubsub)
	} else {
		// Never subscribed: close the events channel ourselves so
		// consumers do not hang.
		close(s.events)
	}
}

func (s *Subscriber) setStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled && status != StatusClosed {
		return
	}
	s.status = status
}

// receive pumps raw feed messages into typed callbacks and the events
// channel until the pubsub closes.
func (s *Subscriber) receive(pubsub *redis.PubSub) {
	defer close(s.events)

	for msg := range pubsub.Channel() {
		var change domain.Change
		if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
			s.logger.Warn("dropping malformed change event",
				logger.String("owner", s.owner),
				logger.Error(err))
			continue
		}
		s.dispatch(change)
	}

	s.mu.Lock()
	cancelled := s.cancelled
	if !cancelled {
		s.status = StatusError
	}
	s.mu.Unlock()

	if !cancelled {
		s.logger.Error("realtime channel closed unexpectedly",
			logger.String("owner", s.owner))
	}
}

func (s *Subscriber) dispatch(change domain.Change) {
	switch change.Type {
	case domain.ChangeInsert:
		if change.New != nil && s.handlers.OnInsert != nil {
			s.handlers.OnInsert(*change.New)
		}
	case domain.ChangeUpdate:
		if change.New != nil && s.handlers.OnUpdate != nil {
			s.handlers.OnUpdate(*change.New)
		}
	case domain.ChangeDelete:
		if change.OldID != "" && s.handlers.OnDelete != nil {
			s.handlers.OnDelete(change.OldID)
		}
	default:
		s.logger.Debug("ignoring unknown change type",
			logger.String("type", string(change.Type)))
		return
	}

	select {
	case s.events <- change:
	default:
		// Feed is advisory: a slow consumer loses events rather than
		// blocking the receive loop.
		s.logger.Warn("events channel full, dropping change",
			logger.String("owner", s.owner),
			logger.String("type", string(change.Type)))
	}
}
