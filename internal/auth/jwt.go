package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// sessionClaims is the payload carried by the session cookie. The token only
// names a server-side session; revocation happens by dropping that session.
type sessionClaims struct {
	jwt.RegisteredClaims
}

func signSessionToken(secret, sessionID string, userID int64, issuedAt, expiresAt time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("session secret is empty")
	}
	claims := sessionClaims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        sessionID,
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// parseSessionToken validates the signature (and, unless skipExpiry is set,
// the expiry) and extracts the session id and user id.
func parseSessionToken(tokenStr, secret string, now func() time.Time, skipExpiry bool) (string, int64, error) {
	if secret == "" {
		return "", 0, errors.New("session secret is empty")
	}
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return "", 0, errors.New("empty token")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(now),
	}
	if skipExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}
	tok, err := jwt.ParseWithClaims(tokenStr, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil || !tok.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return "", 0, err
	}
	c, _ := tok.Claims.(*sessionClaims)
	if c == nil || c.ID == "" {
		return "", 0, errors.New("invalid claims")
	}
	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return "", 0, errors.New("invalid subject")
	}
	return c.ID, userID, nil
}
