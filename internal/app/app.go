// Package app собирает клиент из конфига: хранилище учётных данных, сессию,
// роутер, pipeline и клиенты API. Глобального состояния нет: всё живёт
// в одном Client, который владелец передаёт дальше явно.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pribylovaa/go-slides-client/internal/api"
	"github.com/pribylovaa/go-slides-client/internal/config"
	"github.com/pribylovaa/go-slides-client/internal/credentials"
	"github.com/pribylovaa/go-slides-client/internal/guard"
	"github.com/pribylovaa/go-slides-client/internal/models"
	"github.com/pribylovaa/go-slides-client/internal/pipeline"
	"github.com/pribylovaa/go-slides-client/internal/session"
)

// Options - зависимости, которые приходят снаружи конфига.
type Options struct {
	Logger     *slog.Logger
	Notifier   pipeline.Notifier
	Registerer prometheus.Registerer
	HTTPClient *http.Client
	// KV подменяет backend из конфига (тесты).
	KV credentials.KV
}

type Client struct {
	Config    config.Config
	Log       *slog.Logger
	State     *session.State
	Session   *session.Service
	Router    *guard.Router
	Pipeline  *pipeline.Pipeline
	Auth      *api.Auth
	Knowledge *api.Knowledge
	PPT       *api.PPT

	closer io.Closer

	mu      sync.Mutex
	current *models.PPTRecord
}

// New собирает клиент. Порядок важен: State поднимается из хранилища до того,
// как роутер сможет проверить первый переход.
func New(ctx context.Context, cfg config.Config, opts Options) (*Client, error) {
	const op = "app.New"

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	kv, closer := opts.KV, io.Closer(nil)
	if kv == nil {
		var err error
		kv, closer, err = newKV(ctx, cfg.Credentials)
		if err != nil {
			// Недоступное хранилище не фатально: сессия живёт до выхода из процесса.
			log.Warn("credentials_backend_unavailable",
				slog.String("backend", cfg.Credentials.Backend),
				slog.String("err", err.Error()),
			)
			kv, closer = credentials.NewMemory(), nil
		}
	}

	store := credentials.New(kv, credentials.Keys{Token: cfg.Credentials.TokenKey, User: cfg.Credentials.UserKey})
	state := session.NewState(ctx, store, log)
	router := guard.NewRouter(guard.DefaultRoutes(), state, cfg.Routes.LoginPath, log)

	c := &Client{
		Config: cfg,
		Log:    log,
		State:  state,
		Router: router,
		closer: closer,
	}

	var metrics *pipeline.Metrics
	if opts.Registerer != nil {
		metrics = pipeline.NewMetrics(opts.Registerer)
	}

	p, err := pipeline.New(pipeline.Options{
		BaseURL:        cfg.API.BaseURL,
		Timeout:        cfg.API.Timeout,
		UserAgent:      cfg.API.UserAgent,
		HTTPClient:     opts.HTTPClient,
		Tokens:         state,
		Notifier:       opts.Notifier,
		OnUnauthorized: c.onUnauthorized,
		Logger:         log,
		Metrics:        metrics,
	})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.Pipeline = p
	c.Auth = api.NewAuth(p)
	c.Knowledge = api.NewKnowledge(p)
	c.PPT = api.NewPPT(p)
	c.Session = session.NewService(state, c.Auth)

	return c, nil
}

// onUnauthorized - реакция на любой 401: сессия и хранилище очищаются,
// пользователь уходит на логин.
func (c *Client) onUnauthorized(ctx context.Context, e *pipeline.Error) {
	c.Log.Warn("unauthorized",
		slog.String("method", e.Method),
		slog.String("path", e.Path),
		slog.Bool("auth_attempt", e.AuthAttempt),
	)

	c.State.Clear(ctx)
	c.SetCurrent(nil)
	c.Router.ForceLogin(ctx)
}

// Login входит и возвращает пользователя на запомненный экран.
// resumed - адрес после возврата ("" если возвращаться некуда).
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.User, string, error) {
	u, err := c.Session.Login(ctx, req)
	if err != nil {
		return nil, "", err
	}

	resumed, err := c.resume(ctx)
	return u, resumed, err
}

// Register - как Login, но с созданием аккаунта.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.User, string, error) {
	u, err := c.Session.Register(ctx, req)
	if err != nil {
		return nil, "", err
	}

	resumed, err := c.resume(ctx)
	return u, resumed, err
}

// resume забирает цель возврата ровно один раз и переходит на неё.
func (c *Client) resume(ctx context.Context) (string, error) {
	const op = "app.Client.resume"

	p, ok := c.Router.ConsumePending()
	if !ok {
		return "", nil
	}

	if _, err := c.Router.Navigate(ctx, p.Target); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	c.Log.Info("navigation_resumed", slog.String("target", p.Target))

	return c.Router.Current(), nil
}

func newKV(ctx context.Context, cfg config.CredentialsConfig) (credentials.KV, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return credentials.NewMemory(), nil, nil
	case config.BackendRedis:
		r, err := credentials.NewRedis(ctx, cfg.RedisURL, cfg.Prefix)
		if err != nil {
			return nil, nil, err
		}
		return r, r, nil
	default:
		f, err := credentials.NewFile(cfg.FilePath)
		if err != nil {
			return nil, nil, err
		}
		return f, nil, nil
	}
}

// Current - презентация, с которой пользователь работает в этом процессе.
func (c *Client) Current() *models.PPTRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.current
}

func (c *Client) SetCurrent(rec *models.PPTRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = rec
}

func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}

	return c.closer.Close()
}
