package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expiryFromResponse converts the backend's expiresIn (seconds) into an instant
func expiryFromResponse(now time.Time, expiresIn int) time.Time {
	if expiresIn <= 0 {
		return time.Time{}
	}
	return now.Add(time.Duration(expiresIn) * time.Second)
}

// expiryFromToken reads the exp claim of a JWT access token without verifying it.
// The persisted record doesn't carry expiresIn, so this is the only source of the
// expiry after a restart. Opaque tokens give the zero time.
func expiryFromToken(token string) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
