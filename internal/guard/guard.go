// Package guard решает, можно ли перейти на маршрут, и ведёт историю переходов.
//
// Check - чистая функция от маршрута и признака аутентификации, без сети.
// Router вызывает её на каждом переходе, включая Back/Forward и первый вход.
package guard

import (
	"net/url"
	"strings"
)

// DefaultLoginPath - куда уводим неаутентифицированного пользователя.
const DefaultLoginPath = "/login"

// RedirectParam - параметр, в котором сохраняется исходный путь.
const RedirectParam = "redirect"

type Route struct {
	Path         string
	Name         string
	RequiresAuth bool
}

// DefaultRoutes - таблица маршрутов клиента.
func DefaultRoutes() []Route {
	return []Route{
		{Path: "/", Name: "Home"},
		{Path: "/login", Name: "Login"},
		{Path: "/generate", Name: "Generate", RequiresAuth: true},
		{Path: "/knowledge", Name: "Knowledge", RequiresAuth: true},
		{Path: "/history", Name: "History", RequiresAuth: true},
		{Path: "/profile", Name: "Profile", RequiresAuth: true},
	}
}

// Decision - итог проверки: либо Proceed, либо Redirect с Resume.
type Decision struct {
	Proceed  bool
	Redirect string
	// Resume - исходная цель, куда вернуться после входа.
	Resume string
}

// Check: защищённая цель без аутентификации -> редирект на loginPath
// с сохранённой целью; иначе переход разрешён.
func Check(target string, route Route, authenticated bool, loginPath string) Decision {
	if !route.RequiresAuth || authenticated {
		return Decision{Proceed: true}
	}

	if loginPath == "" {
		loginPath = DefaultLoginPath
	}

	q := url.Values{RedirectParam: {target}}

	return Decision{
		Redirect: loginPath + "?" + q.Encode(),
		Resume:   target,
	}
}

// ResumeTarget достаёт сохранённую цель из адреса логина ("" если её нет).
func ResumeTarget(loginURL string) string {
	u, err := url.Parse(loginURL)
	if err != nil {
		return ""
	}

	return u.Query().Get(RedirectParam)
}

// pathOf отрезает query и фрагмент.
func pathOf(target string) string {
	if i := strings.IndexAny(target, "?#"); i >= 0 {
		target = target[:i]
	}

	if target == "" {
		return "/"
	}

	return target
}
