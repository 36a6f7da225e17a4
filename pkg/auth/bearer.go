package auth

import "strings"

const bearerScheme = "bearer"

// BearerToken extracts the token from an Authorization header value. The
// "Bearer" scheme is optional; a bare token is accepted as-is. A header that
// carries only the scheme word has no token.
func BearerToken(header string) (string, bool) {
	token := strings.TrimLeft(header, " \t")
	n := len(bearerScheme)
	if len(token) >= n && strings.EqualFold(token[:n], bearerScheme) {
		if len(token) == n {
			return "", false
		}
		if rest := token[n:]; rest[0] == ' ' || rest[0] == '\t' {
			token = rest
		}
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
