package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const SessionCookie = "session_id"

type ctxKey struct{}

// Sessions resumes known sessions and opens new ones under server-minted ids.
type Sessions interface {
	Resume(id uuid.UUID) bool
	Open() uuid.UUID
}

// SessionMiddleware makes sure every request carries a live session id,
// issuing a new cookie when the client has none or one the server does not know.
func SessionMiddleware(sessions Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := sessionFromCookie(r)
			if !ok || !sessions.Resume(id) {
				id = sessions.Open()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    id.String(),
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
					Expires:  time.Now().Add(30 * 24 * time.Hour),
				})
			}

			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), id)))
		})
	}
}

func sessionFromCookie(r *http.Request) (uuid.UUID, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(c.Value)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func WithSessionID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// SessionID returns the id set by SessionMiddleware
func SessionID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxKey{}).(uuid.UUID)
	return id, ok
}
