package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-slides-client/internal/credentials"
	"github.com/pribylovaa/go-slides-client/internal/models"
	"github.com/pribylovaa/go-slides-client/internal/pipeline"
	"github.com/pribylovaa/go-slides-client/internal/session/mocks"
)

var errStorage = errors.New("storage disabled")

// brokenKV - хранилище, которое падает на каждой операции.
type brokenKV struct{}

func (brokenKV) Get(context.Context, string) (string, bool, error) { return "", false, errStorage }
func (brokenKV) Set(context.Context, string, string) error         { return errStorage }
func (brokenKV) Remove(context.Context, string) error              { return errStorage }

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func alice() models.User {
	return models.User{
		ID:        1,
		Username:  "alice",
		Email:     "alice@example.com",
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		UpdatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func newSvc(t *testing.T) (*Service, *mocks.MockAuthenticator, *credentials.Store, *gomock.Controller) {
	t.Helper()

	ctrl := gomock.NewController(t)
	auth := mocks.NewMockAuthenticator(ctrl)
	store := credentials.New(credentials.NewMemory(), credentials.Keys{})
	st := NewState(context.Background(), store, discard())

	return NewService(st, auth), auth, store, ctrl
}

func TestNewState_EmptyStore_Anonymous(t *testing.T) {
	t.Parallel()

	st := NewState(context.Background(), credentials.New(credentials.NewMemory(), credentials.Keys{}), discard())
	require.False(t, st.IsAuthenticated())
	require.Equal(t, Snapshot{}, st.Snapshot())
}

func TestNewState_HydratesFromStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := credentials.New(credentials.NewMemory(), credentials.Keys{})
	u := alice()
	require.NoError(t, store.Set(ctx, "t1", &u))

	st := NewState(ctx, store, discard())
	require.True(t, st.IsAuthenticated())
	require.Equal(t, "t1", st.Token())
	require.Equal(t, &u, st.User())
}

func TestNewState_TokenWithoutUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := credentials.NewMemory()
	require.NoError(t, kv.Set(ctx, credentials.DefaultTokenKey, "t1"))

	st := NewState(ctx, credentials.New(kv, credentials.Keys{}), discard())
	require.True(t, st.IsAuthenticated())
	require.Nil(t, st.User())
}

func TestNewState_CorruptUserKeepsToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := credentials.NewMemory()
	require.NoError(t, kv.Set(ctx, credentials.DefaultTokenKey, "t1"))
	require.NoError(t, kv.Set(ctx, credentials.DefaultUserKey, "{not json"))

	st := NewState(ctx, credentials.New(kv, credentials.Keys{}), discard())
	require.Equal(t, "t1", st.Token())
	require.Nil(t, st.User())
}

func TestState_BrokenStorage_ContinuesInMemory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := NewState(ctx, credentials.New(brokenKV{}, credentials.Keys{}), discard())
	require.False(t, st.IsAuthenticated())

	u := alice()
	require.NotPanics(t, func() { st.Authenticate(ctx, "t1", &u) })
	require.Equal(t, "t1", st.Token())

	require.NotPanics(t, func() { st.Clear(ctx) })
	require.False(t, st.IsAuthenticated())
}

func TestState_NilStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := NewState(ctx, nil, nil)

	u := alice()
	st.Authenticate(ctx, "t1", &u)
	require.True(t, st.IsAuthenticated())

	st.SetUser(ctx, nil)
	require.Equal(t, "t1", st.Token())

	st.Clear(ctx)
	require.False(t, st.IsAuthenticated())
}

func TestLogin_OK_StoreAndStateAgree(t *testing.T) {
	t.Parallel()

	svc, auth, store, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	req := models.LoginRequest{Username: "alice", Password: "secret"}
	auth.EXPECT().Login(gomock.Any(), req).Return(&models.AuthResponse{Token: "t1", User: alice()}, nil)

	u, err := svc.Login(ctx, req)
	require.NoError(t, err)
	require.Equal(t, "alice", u.Username)

	require.True(t, svc.IsAuthenticated())
	require.Equal(t, "t1", svc.State().Token())

	rec, err := store.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "t1", rec.Token)
	require.Equal(t, alice(), *rec.User)

	// Повторный подъём из того же хранилища даёт ту же сессию.
	again := NewState(ctx, store, discard())
	require.Equal(t, svc.State().Snapshot(), again.Snapshot())
}

func TestLogin_Failure_StateUnchanged(t *testing.T) {
	t.Parallel()

	svc, auth, store, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	rejected := &pipeline.Error{Kind: pipeline.KindUnauthorized, Status: 401, Message: pipeline.MsgUnauthorized, AuthAttempt: true}
	auth.EXPECT().Login(gomock.Any(), gomock.Any()).Return(nil, rejected)

	_, err := svc.Login(ctx, models.LoginRequest{Username: "alice", Password: "wrong"})
	require.ErrorIs(t, err, pipeline.ErrUnauthorized)

	var pe *pipeline.Error
	require.ErrorAs(t, err, &pe)
	require.True(t, pe.IsCredentialRejection())

	require.False(t, svc.IsAuthenticated())
	rec, err := store.Get(ctx)
	require.NoError(t, err)
	require.Empty(t, rec.Token)
}

func TestLogin_EmptyCredentials_NoNetwork(t *testing.T) {
	t.Parallel()

	svc, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "  ", Password: "x"})
	require.ErrorIs(t, err, ErrEmptyCredentials)

	_, err = svc.Register(context.Background(), models.RegisterRequest{Username: "bob"})
	require.ErrorIs(t, err, ErrEmptyCredentials)
}

func TestLogin_EmptyTokenInResponse(t *testing.T) {
	t.Parallel()

	svc, auth, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	auth.EXPECT().Login(gomock.Any(), gomock.Any()).Return(&models.AuthResponse{User: alice()}, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "secret"})
	require.ErrorIs(t, err, ErrEmptyToken)
	require.False(t, svc.IsAuthenticated())
}

func TestRegister_OK(t *testing.T) {
	t.Parallel()

	svc, auth, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	req := models.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "secret"}
	auth.EXPECT().Register(gomock.Any(), req).Return(&models.AuthResponse{Token: "t2", User: alice()}, nil)

	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "t2", svc.State().Token())
}

func TestFetchProfile_RefreshesUserOnly(t *testing.T) {
	t.Parallel()

	svc, auth, store, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	u := alice()
	svc.State().Authenticate(ctx, "t1", &u)

	fresh := alice()
	fresh.Email = "new@example.com"
	auth.EXPECT().Profile(gomock.Any()).Return(&fresh, nil)

	got, err := svc.FetchProfile(ctx)
	require.NoError(t, err)
	require.Equal(t, "new@example.com", got.Email)

	require.Equal(t, "t1", svc.State().Token())
	require.Equal(t, "new@example.com", svc.State().User().Email)

	rec, err := store.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "t1", rec.Token)
	require.Equal(t, "new@example.com", rec.User.Email)
}

func TestFetchProfile_ErrorPropagates(t *testing.T) {
	t.Parallel()

	svc, auth, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	auth.EXPECT().Profile(gomock.Any()).Return(nil, pipeline.ErrNetwork)

	_, err := svc.FetchProfile(context.Background())
	require.ErrorIs(t, err, pipeline.ErrNetwork)
}

func TestLogout_Idempotent(t *testing.T) {
	t.Parallel()

	svc, _, store, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	u := alice()
	svc.State().Authenticate(ctx, "t1", &u)

	svc.Logout(ctx)
	first := svc.State().Snapshot()
	svc.Logout(ctx)

	require.Equal(t, first, svc.State().Snapshot())
	require.False(t, svc.IsAuthenticated())

	rec, err := store.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, credentials.Record{}, rec)
}

func TestState_ConcurrentReadersAndWriters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := NewState(ctx, credentials.New(credentials.NewMemory(), credentials.Keys{}), discard())
	u := alice()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			st.Authenticate(ctx, "t1", &u)
			st.Clear(ctx)
		}()
		go func() {
			defer wg.Done()
			snap := st.Snapshot()
			// Снимок согласован: профиль без токена не появляется.
			if snap.Token == "" {
				require.Nil(t, snap.User)
			}
		}()
	}
	wg.Wait()
}
