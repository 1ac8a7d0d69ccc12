// credentials хранит токен и закэшированный профиль пользователя между запусками.
//
// Store не валидирует токен (это непрозрачная строка) и не знает, где лежат
// данные: хранилище подставляется через KV (memory, file, redis).
// Ошибки KV возвращаются вызывающему; решение "продолжить в памяти"
// принимает session.State.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pribylovaa/go-slides-client/internal/models"
)

var (
	// ErrCorruptRecord - сохранённый профиль не удаётся разобрать.
	ErrCorruptRecord = errors.New("corrupt credential record")
)

const (
	DefaultTokenKey = "auth_token"
	DefaultUserKey  = "user_info"
)

// KV - минимальная возможность key-value хранилища.
type KV interface {
	// Get возвращает значение и признак его наличия.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Remove идемпотентен: отсутствие ключа не ошибка.
	Remove(ctx context.Context, key string) error
}

// Keys - имена двух записей в хранилище.
type Keys struct {
	Token string
	User  string
}

// Record - сохранённое зеркало сессии. Пустой Token означает отсутствие.
type Record struct {
	Token string
	User  *models.User
}

type Store struct {
	kv   KV
	keys Keys
}

// New создаёт Store; пустые ключи заменяются значениями по умолчанию.
func New(kv KV, keys Keys) *Store {
	if keys.Token == "" {
		keys.Token = DefaultTokenKey
	}

	if keys.User == "" {
		keys.User = DefaultUserKey
	}

	return &Store{kv: kv, keys: keys}
}

// Get читает обе записи. Битый профиль возвращается как отсутствующий
// вместе с ErrCorruptRecord, токен при этом сохраняется.
func (s *Store) Get(ctx context.Context) (Record, error) {
	const op = "credentials.Store.Get"

	var rec Record

	token, ok, err := s.kv.Get(ctx, s.keys.Token)
	if err != nil {
		return Record{}, fmt.Errorf("%s: token: %w", op, err)
	}

	if ok {
		rec.Token = token
	}

	raw, ok, err := s.kv.Get(ctx, s.keys.User)
	if err != nil {
		return rec, fmt.Errorf("%s: user: %w", op, err)
	}

	if !ok || raw == "" {
		return rec, nil
	}

	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return rec, fmt.Errorf("%s: %w: %v", op, ErrCorruptRecord, err)
	}

	rec.User = &u

	return rec, nil
}

// Set пишет токен и профиль последовательно.
func (s *Store) Set(ctx context.Context, token string, user *models.User) error {
	const op = "credentials.Store.Set"

	if err := s.kv.Set(ctx, s.keys.Token, token); err != nil {
		return fmt.Errorf("%s: token: %w", op, err)
	}

	if err := s.SetUser(ctx, user); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// SetUser перезаписывает только профиль; nil удаляет запись.
func (s *Store) SetUser(ctx context.Context, user *models.User) error {
	const op = "credentials.Store.SetUser"

	if user == nil {
		if err := s.kv.Remove(ctx, s.keys.User); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		return nil
	}

	b, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("%s: encode: %w", op, err)
	}

	if err := s.kv.Set(ctx, s.keys.User, string(b)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Clear удаляет обе записи. Пытается удалить обе даже если первая упала.
func (s *Store) Clear(ctx context.Context) error {
	const op = "credentials.Store.Clear"

	errTok := s.kv.Remove(ctx, s.keys.Token)
	errUsr := s.kv.Remove(ctx, s.keys.User)

	if err := errors.Join(errTok, errUsr); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
