package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/mgaultier/marks/internal/httpserver/deps"
	"github.com/mgaultier/marks/internal/httpserver/handlers"
	"github.com/mgaultier/marks/internal/httpserver/mw"
)

func init() { Register(registerEvents) }

// No request timeout here: the event stream is long-lived.
func registerEvents(r chi.Router, d deps.Deps) {
	r.With(mw.Auth(d.Verifier, d.Logger)).Get("/events", handlers.Events(d))
}
