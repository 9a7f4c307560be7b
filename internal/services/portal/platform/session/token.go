package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpiry reads the exp claim from a JWT bearer token without verifying
// its signature; only the backend can do that. Opaque tokens report no expiry.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// tokenExpired reports whether token carries an exp claim at or before now.
func tokenExpired(token string, now time.Time) bool {
	expiresAt, ok := tokenExpiry(token)
	return ok && !now.Before(expiresAt)
}
