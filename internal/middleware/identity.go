package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/match-results/backend/internal/domain"
)

type ctxKey int

const (
	authKey ctxKey = iota
	sessionKey
)

// NewIdentity returns a middleware that builds the request's
// domain.AuthContext from userHeader. The header is set by the upstream
// authentication proxy; this service never authenticates users itself.
// A missing or blank header yields a logged-out context.
func NewIdentity(userHeader string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(userHeader))
			auth := domain.AuthContext{IsLoggedIn: userID != "", UserID: userID}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), authKey, auth)))
		})
	}
}

// AuthFromContext returns the AuthContext stored by NewIdentity, or a
// logged-out context when there is none.
func AuthFromContext(ctx context.Context) domain.AuthContext {
	auth, _ := ctx.Value(authKey).(domain.AuthContext)
	return auth
}

// userSessionPrefix marks session ids derived from the user id rather than
// from a cookie.
const userSessionPrefix = "user:"

// NewSession returns a middleware that attaches a session id to every
// request. The id comes from cookieName when it holds a UUID.
//
// Without a valid cookie, an identified request is keyed by its user id, so
// clients that drop cookies still share one session per user and never start
// a second run. Anonymous requests get a fresh UUID set on the response.
// NewIdentity must run first.
func NewSession(cookieName string, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(cookieName); err == nil {
				if parsed, err := uuid.Parse(c.Value); err == nil {
					id = parsed.String()
				}
			}
			if id == "" {
				if auth := AuthFromContext(r.Context()); auth.Identified() {
					id = userSessionPrefix + auth.UserID
				}
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    id,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, id)))
		})
	}
}

// SessionIDFromContext returns the id stored by NewSession, or "".
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey).(string)
	return id
}
