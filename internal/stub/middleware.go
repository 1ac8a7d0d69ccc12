package stub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	logctx "github.com/pribylovaa/go-slides-client/internal/pkg/log"
)

type ctxKey int

const (
	ctxUserID ctxKey = iota
	ctxRequestID
)

// Middleware - стандартный net/http мидлвар.
type Middleware func(http.Handler) http.Handler

// statusWriter перехватывает статус и размер ответа.
type statusWriter struct {
	http.ResponseWriter
	status int
	count  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.count += n
	return n, err
}

// requestIDHeader - тот же заголовок, что ставит клиентский pipeline.
const requestIDHeader = "X-Request-Id"

// RequestID сохраняет id запроса клиента (или выдаёт uuid) в контекст и в ответ.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxRequestID, id)))
		})
	}
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxRequestID).(string)
	return id
}

// Logging кладёт request-scoped логгер в контекст и пишет запись "http".
func Logging(l *slog.Logger) Middleware {
	if l == nil {
		l = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := l
			if rid := requestID(r.Context()); rid != "" {
				reqLogger = reqLogger.With(slog.String("request_id", rid))
			}

			r = r.WithContext(logctx.Into(r.Context(), reqLogger))
			sw := &statusWriter{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(sw, r)

			reqLogger.LogAttrs(r.Context(), slog.LevelInfo, "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", sw.status),
				slog.Duration("dur", time.Since(start)),
				slog.Int("bytes", sw.count),
			)
		})
	}
}

// Recover превращает панику в 500 без деталей наружу.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logctx.From(r.Context()).LogAttrs(r.Context(), slog.LevelError, "panic",
						slog.String("path", r.URL.Path),
						slog.Any("reason", rec),
					)
					writeError(w, fmt.Errorf("panic"))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// Timeout ограничивает обработку запроса; по истечении chi отвечает 504.
// d <= 0 - без ограничения.
func Timeout(d time.Duration) Middleware {
	if d <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return chimw.Timeout(d)
}

// RequireAuth проверяет Bearer-токен и кладёт id пользователя в контекст.
// Нет заголовка, битый или истёкший токен - 401.
func RequireAuth(tokens *Tokens) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const prefix = "Bearer "

			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, prefix) {
				writeError(w, fmt.Errorf("missing bearer token: %w", ErrUnauthenticated))
				return
			}

			uid, err := tokens.Verify(strings.TrimSpace(auth[len(prefix):]))
			if err != nil {
				logctx.From(r.Context()).Warn("token_rejected", slog.String("err", err.Error()))
				cause := ErrInvalidToken
				if errors.Is(err, ErrTokenExpired) {
					cause = ErrTokenExpired
				}
				writeError(w, fmt.Errorf("%w: %w", ErrUnauthenticated, cause))
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserID, uid)))
		})
	}
}

func userID(ctx context.Context) uint {
	id, _ := ctx.Value(ctxUserID).(uint)
	return id
}

// Metrics считает запросы по шаблону маршрута chi и статусу.
type Metrics struct {
	requests *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slides",
			Subsystem: "stub",
			Name:      "http_requests_total",
			Help:      "Requests served by the API stub.",
		}, []string{"method", "route", "status"}),
	}

	if reg != nil {
		reg.MustRegister(m.requests)
	}

	return m
}

func (m *Metrics) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)

			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}

			status := sw.status
			if status == 0 {
				status = http.StatusOK
			}

			m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		})
	}
}
