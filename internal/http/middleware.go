package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fairyhunter13/hampers-storefront/internal/obs"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeySessionID
)

func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID).(string)
	return v
}

// SessionIDFromContext returns the browser session bound by WithSession.
func SessionIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeySessionID).(string)
	return v
}

func logFor(r *http.Request) *logrus.Entry {
	return obs.Logger.WithFields(logrus.Fields{
		"request_id": RequestIDFromContext(r.Context()),
		"session_id": SessionIDFromContext(r.Context()),
	})
}

type statusRecorder struct {
	h  http.ResponseWriter
	st int
	n  int
}

func (w *statusRecorder) Header() http.Header { return w.h.Header() }
func (w *statusRecorder) WriteHeader(code int) {
	w.st = code
	w.h.WriteHeader(code)
}
func (w *statusRecorder) Write(b []byte) (int, error) {
	n, err := w.h.Write(b)
	w.n += n
	return n, err
}

func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, reqID)))
	})
}

func WithLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{h: w, st: 200}
		next.ServeHTTP(sr, r)
		lat := time.Since(start)
		obs.Logger.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     sr.st,
			"bytes":      sr.n,
			"latency_ms": float64(lat.Microseconds()) / 1000.0,
			"request_id": RequestIDFromContext(r.Context()),
		}).Info("http_request")
	})
}

// WithSession binds the request to a browser session, minting a new id
// when the request carries none or a malformed one. The cookie is written
// on every response. While shutting down only reads are served.
func (a *App) WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.closing.Load() && r.Method != http.MethodGet {
			WriteJSONError(w, http.StatusServiceUnavailable, "shutting_down", "")
			return
		}
		sid := ""
		if c, err := r.Cookie(a.Cfg.SessionCookie); err == nil {
			if _, err := uuid.Parse(c.Value); err == nil {
				sid = c.Value
			}
		}
		if sid == "" {
			sid = uuid.NewString()
		}
		// browser expiry follows the server-side idle TTL
		http.SetCookie(w, &http.Cookie{
			Name:     a.Cfg.SessionCookie,
			Value:    sid,
			Path:     "/",
			MaxAge:   int(a.Cfg.SessionTTL.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeySessionID, sid)))
	})
}
