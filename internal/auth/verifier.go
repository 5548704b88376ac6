package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ModeNone  = "none"
	ModeToken = "token"
	ModeJWT   = "jwt"
)

var ErrUnauthorized = errors.New("unauthorized")

// Verifier checks relay clients. In token mode the presented token must
// equal Token; in jwt mode it must be an HS256 JWT signed with Secret.
type Verifier struct {
	Mode   string
	Token  string
	Secret string
}

func NewVerifier(mode, token, secret string) *Verifier {
	if mode == "" {
		mode = ModeNone
	}
	return &Verifier{Mode: mode, Token: token, Secret: secret}
}

// Verify returns the subject of the token, empty in none and token modes.
func (v *Verifier) Verify(token string) (string, error) {
	switch v.Mode {
	case ModeNone:
		return "", nil
	case ModeToken:
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(v.Token)) != 1 {
			return "", ErrUnauthorized
		}
		return "", nil
	case ModeJWT:
		return v.verifyJWT(token)
	default:
		return "", fmt.Errorf("unknown auth mode: %s", v.Mode)
	}
}

func (v *Verifier) verifyJWT(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrUnauthorized
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(v.Secret), nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return claims.Subject, nil
}

// TokenFrom takes the bearer token from the Authorization header, falling
// back to the token query parameter (browsers cannot set headers on a
// websocket handshake). Other Authorization schemes are ignored.
func TokenFrom(r *http.Request) string {
	const prefix = "Bearer "
	if h := r.Header.Get("Authorization"); len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return r.URL.Query().Get("token")
}

// Middleware aborts with 401 unless the request carries a valid token. The
// token subject is stored under "subject".
func (v *Verifier) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, err := v.Verify(TokenFrom(c.Request))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set("subject", sub)
		c.Next()
	}
}
