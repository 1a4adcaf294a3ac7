package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken covers missing, malformed, or expired credentials.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrUnknownUser is returned by Issue for users outside the allow-list.
	ErrUnknownUser = errors.New("auth: unknown user")
)

// Verifier validates a bearer credential and returns the caller identity.
type Verifier interface {
	Verify(token string) (string, error)
}

// JWT issues and verifies HS256 tokens for a fixed user allow-list.
type JWT struct {
	secret []byte
	ttl    time.Duration
	users  map[string]struct{}
}

// NewJWT builds a JWT authority. When users is empty, any username may log in.
func NewJWT(secret string, ttl time.Duration, users []string) *JWT {
	if ttl == 0 {
		ttl = time.Hour
	}
	set := make(map[string]struct{}, len(users))
	for _, u := range users {
		set[u] = struct{}{}
	}
	return &JWT{secret: []byte(secret), ttl: ttl, users: set}
}

type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Issue returns a signed token for the given username.
func (j *JWT) Issue(username string) (string, error) {
	if len(j.users) > 0 {
		if _, ok := j.users[username]; !ok {
			return "", ErrUnknownUser
		}
	}
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	})
	return tok.SignedString(j.secret)
}

// Verify parses a token and returns the username it was issued to.
func (j *JWT) Verify(token string) (string, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return j.secret, nil
	})
	if err != nil || !parsed.Valid || c.Username == "" {
		return "", ErrInvalidToken
	}
	return c.Username, nil
}
