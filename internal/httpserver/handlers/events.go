package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mgaultier/marks/internal/httpserver/deps"
	"github.com/mgaultier/marks/internal/httpserver/mw"
	"github.com/mgaultier/marks/internal/logger"
	"github.com/mgaultier/marks/internal/realtime"
)

const keepAliveInterval = 25 * time.Second

// Events streams the owner's change feed as server-sent events. The
// subscription is scoped to the authenticated owner only; disconnect
// ends it, and the client re-subscribes on reconnect.
func Events(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := mw.SessionFrom(r.Context())
		owner, ok := sess.Owner()
		if !ok {
			http.Error(w, "You need to be logged in.", http.StatusUnauthorized)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		sub := realtime.NewSubscriber(d.RedisClient, d.Verifier, d.Logger, owner, realtime.Handlers{})
		if err := sub.Start(r.Context(), sess); err != nil {
			d.Logger.Warn("event stream refused",
				logger.String("owner", owner),
				logger.Error(err))
			http.Error(w, "Not authorized for this action.", http.StatusForbidden)
			return
		}
		defer sub.Close()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		keepAlive := time.NewTicker(keepAliveInterval)
		defer keepAlive.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-keepAlive.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				flusher.Flush()
			case change, open := <-sub.Events():
				if !open {
					return
				}
				data, err := json.Marshal(change)
				if err != nil {
					d.Logger.Warn("failed to encode change event", logger.Error(err))
					continue
				}
				if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", change.Type, data); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
