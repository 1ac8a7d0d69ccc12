// redact маскирует секреты перед записью в логи.
package redact

import "strings"

func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local, domain := parts[0], parts[1]
	if len(local) > 2 {
		local = local[:2] + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Bearer оставляет от токена только хвост, чтобы различать сессии в логах.
func Bearer(token string) string {
	if token == "" {
		return ""
	}

	if len(token) <= 8 {
		return Token()
	}

	return "***" + token[len(token)-4:]
}

func Token() string    { return "[REDACTED_TOKEN]" }
func Password() string { return "[REDACTED_PASSWORD]" }
