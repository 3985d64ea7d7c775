package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/basementofbooks/internal/common"
	"github.com/dmitrijs2005/basementofbooks/internal/logging"
	"github.com/dmitrijs2005/basementofbooks/internal/server/auth"
	"github.com/go-chi/chi/v5/middleware"
)

// bearerToken extracts the token from an Authorization header value.
// The scheme is matched case-insensitively.
func bearerToken(header string) string {
	if len(header) < len(common.BearerPrefix) || !strings.EqualFold(header[:len(common.BearerPrefix)], common.BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(common.BearerPrefix):])
}

// authenticate verifies the bearer token and puts its email on the request
// context. No token is 401; a bad or expired one is 403.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get(common.AuthorizationHeaderName))

		email, err := h.svc.Tokens.Verify(token)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithEmail(r.Context(), email)))
	})
}

func accessLog(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
