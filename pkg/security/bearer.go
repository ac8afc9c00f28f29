package security

import (
	"crypto/subtle"
)

// BearerScheme is the Authorization scheme accepted by the API.
const BearerScheme = "Bearer"

// BearerHeader returns the exact Authorization header value for token.
func BearerHeader(token string) string {
	return BearerScheme + " " + token
}

// MatchBearer reports whether header is exactly "Bearer <token>".
// The scheme is case-sensitive and no surrounding whitespace is tolerated.
// An empty token never matches.
func MatchBearer(header, token string) bool {
	if token == "" {
		return false
	}
	expected := BearerHeader(token)
	return subtle.ConstantTimeCompare([]byte(header), []byte(expected)) == 1
}
