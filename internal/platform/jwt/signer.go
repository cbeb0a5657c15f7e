package jwt

import (
	"time"
)

// Claims represents the JWT claims that are processed for authentication.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// Signer defines methods for signing and verifying JWT tokens.
type Signer interface {
	Sign(subject string, ttl time.Duration) (token string, err error)
	Verify(tokenString string) (*Claims, error)
}
