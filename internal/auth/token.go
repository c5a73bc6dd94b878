package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const TokenTTL = 5 * 24 * time.Hour

var (
	ErrMissingAuthHeader = errors.New("missing or malformed Authorization header")
	ErrInvalidToken      = errors.New("invalid auth credentials")
	ErrTokenExpired      = errors.New("token has expired")
)

// Claims carried by magic-link and session tokens.
type Claims struct {
	Email          string    `json:"email"`
	UserID         uint      `json:"id,omitempty"`
	IsAdmin        bool      `json:"isAdmin"`
	ExpirationDate time.Time `json:"expirationDate"`
	jwt.RegisteredClaims
}

func signToken(secret []byte, claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseToken(secret []byte, tokenStr string, now time.Time) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Email == "" || claims.ExpirationDate.IsZero() {
		return nil, ErrInvalidToken
	}
	if claims.ExpirationDate.Before(now) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}

// TokenFromRequest reads the token from the "token" query parameter or a Bearer header.
func TokenFromRequest(r *http.Request) (string, error) {
	if tok := r.URL.Query().Get("token"); tok != "" {
		return tok, nil
	}
	authz := r.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return "", ErrMissingAuthHeader
	}
	tok := strings.TrimPrefix(authz, "Bearer ")
	if tok == "" {
		return "", ErrMissingAuthHeader
	}
	return tok, nil
}
