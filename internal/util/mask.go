// Package util agrupa helpers chicos sin dependencias del dominio.
package util

import "strings"

// MaskLogin oculta un login para logs de intentos fallidos. Conserva el primer y
// el último carácter; si parece un email, el dominio queda visible.
func MaskLogin(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	user, dom, isEmail := strings.Cut(s, "@")
	r := []rune(user)
	switch {
	case len(r) <= 2:
		user = "***"
	default:
		user = string(r[0]) + "…" + string(r[len(r)-1])
	}
	if isEmail && dom != "" {
		return user + "@" + dom
	}
	return user
}
