package mw

import (
	"context"
	"net/http"
	"strings"

	"github.com/mgaultier/marks/internal/logger"
	"github.com/mgaultier/marks/internal/session"
)

type sessionKey struct{}

// SessionFrom returns the session resolved by the Auth middleware.
// Without the middleware it returns the anonymous zero session.
func SessionFrom(ctx context.Context) session.Session {
	if sess, ok := ctx.Value(sessionKey{}).(session.Session); ok {
		return sess
	}
	return session.Session{}
}

// Auth resolves the owner identity from the Authorization bearer token
// and stores the session in the request context. Requests without a
// valid token are rejected with 401 before reaching the handler.
func Auth(verifier *session.TokenVerifier, loggerClient logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				http.Error(w, "You need to be logged in.", http.StatusUnauthorized)
				return
			}

			sess, err := verifier.Verify(raw)
			if err != nil {
				loggerClient.Debug("rejected request with invalid token",
					logger.String("path", r.URL.Path),
					logger.Error(err))
				http.Error(w, "You need to be logged in.", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		// Fallback for SSE clients that cannot set headers.
		return r.URL.Query().Get("access_token")
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
