package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	logctx "github.com/pribylovaa/go-slides-client/internal/pkg/log"
)

var (
	// ErrUnknownRoute - путь отсутствует в таблице маршрутов.
	ErrUnknownRoute = errors.New("unknown route")
	// ErrNoHistory - Back/Forward упёрлись в край истории.
	ErrNoHistory = errors.New("no history entry")
)

// AuthChecker - источник признака аутентификации (session.State).
type AuthChecker interface {
	IsAuthenticated() bool
}

// Pending - цель, запомненная при редиректе на логин. Живёт только в памяти
// и забирается один раз (ConsumePending).
type Pending struct {
	Target string
}

type Router struct {
	mu        sync.Mutex
	routes    map[string]Route
	auth      AuthChecker
	loginPath string
	log       *slog.Logger

	history []string
	idx     int
	pending *Pending
}

// NewRouter создаёт роутер с пустой историей. Первый Navigate - это
// "первая загрузка", guard на нём тоже срабатывает.
func NewRouter(routes []Route, auth AuthChecker, loginPath string, log *slog.Logger) *Router {
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}

	if log == nil {
		log = slog.Default()
	}

	table := make(map[string]Route, len(routes)+1)
	for _, r := range routes {
		table[r.Path] = r
	}

	if _, ok := table[loginPath]; !ok {
		table[loginPath] = Route{Path: loginPath, Name: "Login"}
	}

	return &Router{
		routes:    table,
		auth:      auth,
		loginPath: loginPath,
		log:       log,
		idx:       -1,
	}
}

// LoginPath - путь экрана логина.
func (r *Router) LoginPath() string { return r.loginPath }

// Lookup ищет маршрут по пути (query игнорируется).
func (r *Router) Lookup(target string) (Route, bool) {
	route, ok := r.routes[pathOf(target)]
	return route, ok
}

// Navigate переходит на target. Возвращает решение guard и итоговый адрес.
func (r *Router) Navigate(ctx context.Context, target string) (Decision, error) {
	const op = "guard.Router.Navigate"

	route, ok := r.Lookup(target)
	if !ok {
		return Decision{}, fmt.Errorf("%s: %q: %w", op, target, ErrUnknownRoute)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	d := r.decide(ctx, target, route)
	r.push(r.location(target, d))

	return d, nil
}

// Back - шаг назад по истории с повторной проверкой guard.
func (r *Router) Back(ctx context.Context) (Decision, error) {
	return r.move(ctx, -1)
}

// Forward - шаг вперёд по истории с повторной проверкой guard.
func (r *Router) Forward(ctx context.Context) (Decision, error) {
	return r.move(ctx, +1)
}

func (r *Router) move(ctx context.Context, step int) (Decision, error) {
	const op = "guard.Router.move"

	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.idx + step
	if next < 0 || next >= len(r.history) {
		return Decision{}, fmt.Errorf("%s: %w", op, ErrNoHistory)
	}

	target := r.history[next]
	route, _ := r.Lookup(target)

	d := r.decide(ctx, target, route)
	if d.Proceed {
		r.idx = next
		return d, nil
	}

	// Защищённая запись истории без сессии подменяется логином на своём месте.
	r.idx = next
	r.history[next] = d.Redirect

	return d, nil
}

// ForceLogin безусловно уводит на логин (реакция на 401). Текущий адрес,
// если он не сам логин, запоминается как цель возврата.
func (r *Router) ForceLogin(ctx context.Context) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	from := r.current()
	loc := r.loginPath

	if from != "" && pathOf(from) != r.loginPath {
		d := Check(from, Route{Path: pathOf(from), RequiresAuth: true}, false, r.loginPath)
		r.pending = &Pending{Target: d.Resume}
		loc = d.Redirect
	}

	r.push(loc)
	logctx.From(ctx).Info("forced_login", slog.String("from", from))

	return loc
}

// Current - текущий адрес ("" до первого перехода).
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.current()
}

// Pending возвращает запомненную цель, не забирая её.
func (r *Router) Pending() (Pending, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending == nil {
		return Pending{}, false
	}

	return *r.pending, true
}

// ConsumePending забирает цель возврата; второй вызов вернёт false.
func (r *Router) ConsumePending() (Pending, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending == nil {
		return Pending{}, false
	}

	p := *r.pending
	r.pending = nil

	return p, true
}

func (r *Router) decide(ctx context.Context, target string, route Route) Decision {
	d := Check(target, route, r.auth != nil && r.auth.IsAuthenticated(), r.loginPath)
	if !d.Proceed {
		r.pending = &Pending{Target: d.Resume}
		logctx.From(ctx).Info("route_redirect",
			slog.String("target", target),
			slog.String("redirect", d.Redirect),
		)
	}

	return d
}

func (r *Router) location(target string, d Decision) string {
	if d.Proceed {
		return target
	}

	return d.Redirect
}

// push обрезает "вперёд" историю, как браузер при новом переходе.
func (r *Router) push(loc string) {
	r.history = append(r.history[:r.idx+1], loc)
	r.idx = len(r.history) - 1
}

func (r *Router) current() string {
	if r.idx < 0 {
		return ""
	}

	return r.history[r.idx]
}
