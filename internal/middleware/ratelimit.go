package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
	"github.com/sirupsen/logrus"

	"adroute-backend/pkg/utils"
)

// RateLimit limits each client IP to limit requests per window
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			logrus.WithFields(logrus.Fields{
				"path":   r.URL.Path,
				"remote": r.RemoteAddr,
			}).Warn("🚫 Rate limit exceeded")
			w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
			utils.RespondError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		}),
	)
}
