package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pribylovaa/go-slides-client/internal/models"
	logctx "github.com/pribylovaa/go-slides-client/internal/pkg/log"
	"github.com/pribylovaa/go-slides-client/internal/pkg/redact"
)

var (
	// ErrEmptyCredentials - не задан логин или пароль; в сеть не ходим.
	ErrEmptyCredentials = errors.New("username and password are required")
	// ErrEmptyToken - сервер ответил 2xx без токена.
	ErrEmptyToken = errors.New("empty token in auth response")
)

//go:generate mockgen -source=service.go -destination=mocks/authenticator.go -package=mocks Authenticator

// Authenticator - сетевые вызовы аутентификации (реализует api.Auth).
type Authenticator interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Profile(ctx context.Context) (*models.User, error)
}

type Service struct {
	state *State
	auth  Authenticator
}

func NewService(state *State, auth Authenticator) *Service {
	return &Service{state: state, auth: auth}
}

// State отдаёт сессию, которой управляет сервис.
func (s *Service) State() *State { return s.state }

// Login: Anonymous -> Authenticated. При ошибке состояние не меняется,
// ошибка pipeline возвращается как есть.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	const op = "session.Service.Login"

	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyCredentials)
	}

	ctx, l := logctx.With(ctx, slog.String("op", op), slog.String("username", req.Username))

	resp, err := s.auth.Login(ctx, req)
	if err != nil {
		l.Warn("login_failed", slog.String("err", err.Error()))
		return nil, err
	}

	return s.accept(ctx, l, op, resp)
}

// Register - тот же контракт, что у Login.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	const op = "session.Service.Register"

	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyCredentials)
	}

	ctx, l := logctx.With(ctx,
		slog.String("op", op),
		slog.String("username", req.Username),
		slog.String("email", redact.Email(req.Email)),
	)

	resp, err := s.auth.Register(ctx, req)
	if err != nil {
		l.Warn("register_failed", slog.String("err", err.Error()))
		return nil, err
	}

	return s.accept(ctx, l, op, resp)
}

func (s *Service) accept(ctx context.Context, l *slog.Logger, op string, resp *models.AuthResponse) (*models.User, error) {
	if resp == nil || resp.Token == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyToken)
	}

	u := resp.User
	s.state.Authenticate(ctx, resp.Token, &u)
	l.Info("session_authenticated", slog.Uint64("user_id", uint64(u.ID)), slog.String("token", redact.Bearer(resp.Token)))

	return &u, nil
}

// FetchProfile обновляет только профиль. Без токена сервер ответит 401,
// и pipeline отработает стандартную реакцию.
func (s *Service) FetchProfile(ctx context.Context) (*models.User, error) {
	u, err := s.auth.Profile(ctx)
	if err != nil {
		return nil, err
	}

	s.state.SetUser(ctx, u)

	return u, nil
}

// Logout: в сеть не ходит, не падает, повторный вызов ничего не меняет.
func (s *Service) Logout(ctx context.Context) {
	s.state.Clear(ctx)
}

func (s *Service) IsAuthenticated() bool {
	return s.state.IsAuthenticated()
}
