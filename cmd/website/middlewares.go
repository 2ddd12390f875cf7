package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/adampresley/adamgokit/sessions"
	"github.com/adampresley/photogallery/pkg/models"
	"github.com/google/uuid"
)

func newAdminMiddleware(sessionService sessions.Session[*models.AdminSession]) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				err     error
				session *models.AdminSession
			)

			if session, err = sessionService.Get(r); err != nil || !session.IsAdmin() {
				http.Redirect(w, r, "/admin", http.StatusFound)
				return
			}

			ctx := context.WithValue(r.Context(), "admin", session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

func newRequestLogger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")

			if requestID == "" {
				requestID = uuid.NewString()
			}

			w.Header().Set("X-Request-ID", requestID)
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(recorder, r)

			slog.Debug("request",
				"requestID", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"status", recorder.status,
				"duration", time.Since(start),
			)
		})
	}
}
