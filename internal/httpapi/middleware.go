package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.com/gharnivas/api/estate-crm-leads/internal/actor"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/observer"
	"gitlab.com/gharnivas/api/estate-crm-leads/pkg/logger"
)

// requestContext stamps every request with a request ID and, when the client
// sends one, the acting admin. The admin ID is what grouped drops self-assign
// under.
func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = actor.WithRequestID(ctx, requestID)

		log := s.logger.With(
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)

		if adminID := r.Header.Get("X-Admin-ID"); adminID != "" {
			ctx = actor.WithAdminID(ctx, adminID)
			log = log.With(zap.String("admin_id", adminID))
		}

		ctx = logger.WithLogger(ctx, log)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// metricsMiddleware records per-route request durations.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		observer.ObserveHTTPRequest(r.Method, route, strconv.Itoa(ww.Status()), time.Since(start))
	})
}
