package session

import (
	"net/url"
	"strings"
)

// RedirectParam — query-параметр, в котором логин получает исходный путь
const RedirectParam = "redirect"

// LoginURL строит адрес страницы логина с целью возврата.
func LoginURL(loginPath, returnTo string) string {
	u := url.URL{Path: loginPath}
	if returnTo != "" {
		u.RawQuery = url.Values{RedirectParam: {returnTo}}.Encode()
	}
	return u.String()
}

// ReturnTarget достает цель возврата из адреса логина и санирует её.
func ReturnTarget(loginURL string) string {
	u, err := url.Parse(loginURL)
	if err != nil {
		return "/"
	}
	return SanitizeReturn(u.Query().Get(RedirectParam))
}

// SanitizeReturn пропускает только локальные абсолютные пути.
// "//host", "/\host" и полные URL превращаются в "/".
func SanitizeReturn(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") {
		return "/"
	}
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	return target
}
