package guard

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type authFlag struct{ v atomic.Bool }

func (a *authFlag) IsAuthenticated() bool { return a.v.Load() }

func TestCheck(t *testing.T) {
	t.Parallel()

	protected := Route{Path: "/generate", RequiresAuth: true}
	public := Route{Path: "/"}

	cases := []struct {
		name  string
		route Route
		auth  bool
		want  Decision
	}{
		{"protected anonymous", protected, false, Decision{Redirect: "/login?redirect=%2Fgenerate", Resume: "/generate"}},
		{"protected authenticated", protected, true, Decision{Proceed: true}},
		{"public anonymous", public, false, Decision{Proceed: true}},
		{"public authenticated", public, true, Decision{Proceed: true}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Check(tc.route.Path, tc.route, tc.auth, ""))
		})
	}
}

func TestCheck_CustomLoginPathAndQuery(t *testing.T) {
	t.Parallel()

	d := Check("/history?page=2", Route{Path: "/history", RequiresAuth: true}, false, "/signin")
	require.False(t, d.Proceed)
	require.Equal(t, "/history?page=2", d.Resume)
	require.Equal(t, "/history?page=2", ResumeTarget(d.Redirect))
	require.Contains(t, d.Redirect, "/signin?")
}

func TestRouter_RedirectAndResume(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	auth := &authFlag{}
	r := NewRouter(DefaultRoutes(), auth, "", nil)

	d, err := r.Navigate(ctx, "/knowledge")
	require.NoError(t, err)
	require.False(t, d.Proceed)
	require.Equal(t, "/login?redirect=%2Fknowledge", r.Current())

	p, ok := r.Pending()
	require.True(t, ok)
	require.Equal(t, "/knowledge", p.Target)

	// Тот же путь после входа открывается без редиректа.
	auth.v.Store(true)
	p, ok = r.ConsumePending()
	require.True(t, ok)

	d, err = r.Navigate(ctx, p.Target)
	require.NoError(t, err)
	require.True(t, d.Proceed)
	require.Equal(t, "/knowledge", r.Current())

	_, ok = r.ConsumePending()
	require.False(t, ok)
}

func TestRouter_UnknownRoute(t *testing.T) {
	t.Parallel()

	r := NewRouter(DefaultRoutes(), &authFlag{}, "", nil)

	_, err := r.Navigate(context.Background(), "/nope")
	require.ErrorIs(t, err, ErrUnknownRoute)
	require.Empty(t, r.Current())
}

func TestRouter_BackForwardRunGuard(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	auth := &authFlag{}
	auth.v.Store(true)
	r := NewRouter(DefaultRoutes(), auth, "", nil)

	_, err := r.Navigate(ctx, "/")
	require.NoError(t, err)
	_, err = r.Navigate(ctx, "/history")
	require.NoError(t, err)

	d, err := r.Back(ctx)
	require.NoError(t, err)
	require.True(t, d.Proceed)
	require.Equal(t, "/", r.Current())

	// Сессия истекла: шаг вперёд на защищённую запись уводит на логин.
	auth.v.Store(false)
	d, err = r.Forward(ctx)
	require.NoError(t, err)
	require.False(t, d.Proceed)
	require.Equal(t, "/login?redirect=%2Fhistory", r.Current())

	_, err = r.Forward(ctx)
	require.ErrorIs(t, err, ErrNoHistory)
}

func TestRouter_ForceLogin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	auth := &authFlag{}
	auth.v.Store(true)
	r := NewRouter(DefaultRoutes(), auth, "", nil)

	_, err := r.Navigate(ctx, "/generate")
	require.NoError(t, err)

	loc := r.ForceLogin(ctx)
	require.Equal(t, "/login?redirect=%2Fgenerate", loc)
	require.Equal(t, loc, r.Current())

	p, ok := r.Pending()
	require.True(t, ok)
	require.Equal(t, "/generate", p.Target)

	// Повторный 401 на экране логина цель не перетирает.
	require.Equal(t, "/login", r.ForceLogin(ctx))
	p, _ = r.Pending()
	require.Equal(t, "/generate", p.Target)
}

func TestRouter_ForceLogin_BeforeFirstNavigation(t *testing.T) {
	t.Parallel()

	r := NewRouter(nil, nil, "/signin", nil)

	require.Equal(t, "/signin", r.ForceLogin(context.Background()))
	_, ok := r.Pending()
	require.False(t, ok)

	route, ok := r.Lookup("/signin?redirect=x")
	require.True(t, ok)
	require.False(t, route.RequiresAuth)
}

func TestRouter_HistoryRedirectReplacesEntryInPlace(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	auth := &authFlag{}
	auth.v.Store(true)
	r := NewRouter(DefaultRoutes(), auth, "", nil)

	for _, p := range []string{"/", "/history", "/knowledge"} {
		_, err := r.Navigate(ctx, p)
		require.NoError(t, err)
	}

	_, err := r.Back(ctx)
	require.NoError(t, err)
	_, err = r.Back(ctx)
	require.NoError(t, err)
	require.Equal(t, "/", r.Current())

	auth.v.Store(false)
	d, err := r.Forward(ctx)
	require.NoError(t, err)
	require.False(t, d.Proceed)
	require.Equal(t, "/login?redirect=%2Fhistory", r.Current())

	// Запись после подменённой осталась в истории.
	auth.v.Store(true)
	d, err = r.Forward(ctx)
	require.NoError(t, err)
	require.True(t, d.Proceed)
	require.Equal(t, "/knowledge", r.Current())

	_, err = r.Back(ctx)
	require.NoError(t, err)
	require.Equal(t, "/login?redirect=%2Fhistory", r.Current())
}
