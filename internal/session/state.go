// Package session - единственный источник правды о том, вошёл ли пользователь.
//
// State владеет снимком {User, Token} и зеркалит каждое изменение
// в credentials.Store. Service выполняет login/register/fetchProfile/logout
// поверх Authenticator и меняет State только после успешного вызова.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/pribylovaa/go-slides-client/internal/credentials"
	"github.com/pribylovaa/go-slides-client/internal/models"
	logctx "github.com/pribylovaa/go-slides-client/internal/pkg/log"
	"github.com/pribylovaa/go-slides-client/internal/pkg/redact"
)

// Snapshot - состояние сессии на момент чтения.
// Token != "" тогда и только тогда, когда пользователь аутентифицирован.
type Snapshot struct {
	User  *models.User
	Token string
}

// Authenticated - удобный предикат над снимком.
func (s Snapshot) Authenticated() bool { return s.Token != "" }

type State struct {
	mu    sync.RWMutex
	snap  Snapshot
	store *credentials.Store
	log   *slog.Logger
}

// NewState создаёт сессию и один раз поднимает её из хранилища.
// Ошибки хранилища не фатальны: сессия продолжает жить в памяти.
// store == nil - сессия только в памяти.
func NewState(ctx context.Context, store *credentials.Store, log *slog.Logger) *State {
	if log == nil {
		log = logctx.From(ctx)
	}

	s := &State{store: store, log: log}
	s.hydrate(ctx)

	return s
}

func (s *State) hydrate(ctx context.Context) {
	if s.store == nil {
		return
	}

	rec, err := s.store.Get(ctx)
	if err != nil {
		if errors.Is(err, credentials.ErrCorruptRecord) {
			s.log.Warn("credentials_user_corrupt", slog.String("err", err.Error()))
		} else {
			s.log.Warn("credentials_read_failed", slog.String("err", err.Error()))
		}
	}

	if rec.Token == "" {
		return
	}

	if rec.User == nil {
		s.log.Warn("session_hydrated_without_user")
	}

	s.snap = Snapshot{User: rec.User, Token: rec.Token}
	s.log.Debug("session_hydrated",
		slog.String("token", redact.Bearer(rec.Token)),
		slog.Bool("user", rec.User != nil),
	)
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snap
}

// Token реализует pipeline.TokenSource.
func (s *State) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snap.Token
}

func (s *State) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snap.User
}

func (s *State) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snap.Token != ""
}

// Authenticate ставит токен и профиль одним присваиванием и пишет их в хранилище.
func (s *State) Authenticate(ctx context.Context, token string, user *models.User) {
	s.mu.Lock()
	s.snap = Snapshot{User: user, Token: token}
	s.mu.Unlock()

	if s.store == nil {
		return
	}

	if err := s.store.Set(ctx, token, user); err != nil {
		s.log.Warn("credentials_write_failed", slog.String("err", err.Error()))
	}
}

// SetUser обновляет только профиль, токен не трогает.
func (s *State) SetUser(ctx context.Context, user *models.User) {
	s.mu.Lock()
	s.snap.User = user
	s.mu.Unlock()

	if s.store == nil {
		return
	}

	if err := s.store.SetUser(ctx, user); err != nil {
		s.log.Warn("credentials_write_failed", slog.String("err", err.Error()))
	}
}

// Clear переводит сессию в Anonymous. Идемпотентен.
func (s *State) Clear(ctx context.Context) {
	s.mu.Lock()
	s.snap = Snapshot{}
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Clear(ctx); err != nil {
			s.log.Warn("credentials_clear_failed", slog.String("err", err.Error()))
		}
	}

	s.log.Info("session_cleared")
}
