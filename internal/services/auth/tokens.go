package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mcoot/coursehub/internal/dependencies/clock"
	"github.com/mcoot/coursehub/internal/model"
)

// TokenIssuer is the iss claim on every session token
const TokenIssuer = "coursehub"

// ErrInvalidSession covers bad signatures, wrong algorithms, malformed and expired tokens
var ErrInvalidSession = errors.New("invalid or expired session")

// Session represents an authenticated session. Sessions are stateless
// signed tokens and are never stored server-side.
type Session struct {
	Token     string
	UserID    model.UserID
	User      *model.User
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SessionIssuer signs and verifies HS256 session tokens
type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

// NewSessionIssuer creates an issuer minting tokens valid for ttl
func NewSessionIssuer(secret string, ttl time.Duration, clk clock.Clock) *SessionIssuer {
	return &SessionIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		clock:  clk,
	}
}

// Issue signs a new session token for userID
func (i *SessionIssuer) Issue(userID model.UserID) (*Session, error) {
	now := i.clock.Now()
	expires := now.Add(i.ttl)

	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   string(userID),
		Issuer:    TokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}

	return &Session{
		Token:     token,
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: expires,
	}, nil
}

// Verify checks a token and returns the user it was issued to
func (i *SessionIssuer) Verify(token string) (model.UserID, error) {
	if token == "" {
		return "", ErrInvalidSession
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.clock.Now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidSession
	}
	return model.UserID(claims.Subject), nil
}
