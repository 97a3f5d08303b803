package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/neexbeast/travelplanner/internal/auth"
	"github.com/neexbeast/travelplanner/internal/travel"
)

type claimsKey struct{}

func claimsFrom(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return c, ok
}

// RequireUser resolves the session cookie to a principal. Requests without
// a valid, unrevoked session are redirected to the login page.
func (h *Handlers) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil || cookie.Value == "" {
			redirectToLogin(w, r)
			return
		}

		claims, err := h.sessions.Parse(cookie.Value)
		if err != nil {
			http.SetCookie(w, h.cookie("", -1))
			redirectToLogin(w, r)
			return
		}

		revoked, err := h.revoker.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			h.log.Error("session revocation check failed", "err", err)
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}
		if revoked {
			http.SetCookie(w, h.cookie("", -1))
			redirectToLogin(w, r)
			return
		}

		u, err := h.repo.GetUser(r.Context(), claims.UserID)
		if errors.Is(err, travel.ErrNotFound) {
			http.SetCookie(w, h.cookie("", -1))
			redirectToLogin(w, r)
			return
		}
		if err != nil {
			h.log.Error("loading session user failed", "user_id", claims.UserID, "err", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		ctx := auth.WithUser(r.Context(), u)
		ctx = context.WithValue(ctx, claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, loginPath+"?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
}

// AccessLog logs one line per request with the chi request id.
func AccessLog(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
