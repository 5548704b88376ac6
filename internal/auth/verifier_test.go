package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func signHS256(t *testing.T, secret, sub string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestVerify(t *testing.T) {
	good := signHS256(t, "s3cret", "trader", time.Now().Add(time.Hour))
	expired := signHS256(t, "s3cret", "trader", time.Now().Add(-time.Hour))
	wrongKey := signHS256(t, "other", "trader", time.Now().Add(time.Hour))

	tests := []struct {
		name    string
		v       *Verifier
		token   string
		wantSub string
		wantErr bool
	}{
		{"none accepts anything", NewVerifier("", "", ""), "", "", false},
		{"token match", NewVerifier(ModeToken, "abc", ""), "abc", "", false},
		{"token mismatch", NewVerifier(ModeToken, "abc", ""), "abd", "", true},
		{"token empty", NewVerifier(ModeToken, "abc", ""), "", "", true},
		{"jwt valid", NewVerifier(ModeJWT, "", "s3cret"), good, "trader", false},
		{"jwt expired", NewVerifier(ModeJWT, "", "s3cret"), expired, "", true},
		{"jwt wrong key", NewVerifier(ModeJWT, "", "s3cret"), wrongKey, "", true},
		{"jwt garbage", NewVerifier(ModeJWT, "", "s3cret"), "not.a.jwt", "", true},
		{"unknown mode", NewVerifier("basic", "", ""), "x", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := tt.v.Verify(tt.token)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if sub != tt.wantSub {
				t.Errorf("subject = %q, want %q", sub, tt.wantSub)
			}
		})
	}

	if _, err := NewVerifier(ModeToken, "abc", "").Verify("x"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", NewVerifier(ModeToken, "abc", "").Middleware(), func(c *gin.Context) {
		c.String(http.StatusOK, "in")
	})

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"no token", "", "", http.StatusUnauthorized},
		{"bearer header", "Bearer abc", "", http.StatusOK},
		{"query param", "", "?token=abc", http.StatusOK},
		{"wrong header", "Bearer nope", "?token=abc", http.StatusUnauthorized},
		{"lowercase scheme", "bearer abc", "", http.StatusOK},
		{"raw header", "abc", "", http.StatusUnauthorized},
		{"basic header", "Basic abc", "", http.StatusUnauthorized},
		{"basic header with query", "Basic xyz", "?token=abc", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
