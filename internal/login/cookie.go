package login

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	SessionCookieName = "_session"
	stateCookieName   = "state"
	cookieIssuer      = "sheetclock"
)

var ErrInvalidSession = errors.New("invalid session")

// CookieCodec signs and verifies the session cookie. The cookie is an HS256 JWT whose ID
// claim is the server-side session ID, nothing else about the caller is stored in it.
type CookieCodec struct {
	secret []byte
}

func NewCookieCodec(secret []byte) (*CookieCodec, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("session secret must be at least 32 bytes")
	}
	return &CookieCodec{secret: secret}, nil
}

// Encode returns a signed token for the session.
func (c *CookieCodec) Encode(sessionID uuid.UUID, issuedAt, expiresAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        sessionID.String(),
		Issuer:    cookieIssuer,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signed, nil
}

// Decode verifies the token and returns the session ID it carries.
func (c *CookieCodec) Decode(token string) (uuid.UUID, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("invalid signing method")
		}
		return c.secret, nil
	}, jwt.WithIssuer(cookieIssuer), jwt.WithExpirationRequired())
	if err != nil {
		log.Debug().Err(err).Msg("session token parse error")
		return uuid.Nil, ErrInvalidSession
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return uuid.Nil, ErrInvalidSession
	}

	sessionID, err := uuid.Parse(claims.ID)
	if err != nil {
		return uuid.Nil, ErrInvalidSession
	}

	return sessionID, nil
}
