// Package stub - поддельный REST API генератора презентаций для локальной
// разработки и сквозных тестов клиента. Данные живут только в памяти.
package stub

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Значения по умолчанию совпадают с секцией stub конфига.
const (
	DefaultSecret   = "dev-secret"
	DefaultTokenTTL = 24 * time.Hour
	DefaultIssuer   = "slides-stub"
)

// Options - параметры сборки роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api/v1"; пустой - роуты на корне.
	Store    *Store
	Tokens   *Tokens
	Metrics  *Metrics
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(opts Options) http.Handler {
	root := chi.NewRouter()

	root.Use(
		Recover(),
		RequestID(),
		Logging(opts.Logger),
	)
	if opts.Metrics != nil {
		root.Use(opts.Metrics.Middleware())
	}
	if opts.Timeout > 0 {
		root.Use(Timeout(opts.Timeout))
	}

	store := opts.Store
	if store == nil {
		store = NewStore()
	}

	tokens := opts.Tokens
	if tokens == nil {
		tokens = NewTokens(DefaultSecret, DefaultTokenTTL, DefaultIssuer)
	}

	h := &handlers{store: store, tokens: tokens}

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h)
	return root
}

func registerRoutes(r chi.Router, h *handlers) {
	// auth
	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(h.tokens))

		r.Get("/auth/profile", h.profile)

		// knowledge
		r.Post("/knowledge/upload", h.upload)
		r.Get("/knowledge/list", h.listDocuments)
		r.Post("/knowledge/search", h.search)
		r.Get("/knowledge/{id}", h.getDocument)
		r.Delete("/knowledge/{id}", h.deleteDocument)

		// ppt
		r.Post("/ppt/generate", h.generate)
		r.Get("/ppt/templates", h.templates)
		r.Post("/ppt/compile", h.compile)
		r.Get("/ppt/history", h.history)
		r.Get("/ppt/{id}", h.getDeck)
		r.Delete("/ppt/{id}", h.deleteDeck)
		r.Get("/ppt/{id}/download", h.download)
	})
}
