package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef-test-secret"

func newTestAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	tm, err := NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)
	a, err := NewAuthenticator("admin", string(hash), tm)
	require.NoError(t, err)
	return a
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2")))

	_, err = HashPassword("")
	assert.Error(t, err)
}

func TestNewAuthenticatorRejectsPlaintextHash(t *testing.T) {
	tm, err := NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)
	_, err = NewAuthenticator("admin", "not-a-hash", tm)
	assert.Error(t, err)
	_, err = NewAuthenticator("", "$2a$10$abc", tm)
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	a := newTestAuthenticator(t)

	resp, err := a.Login("admin", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "admin", resp.User.Username)
	assert.NotEmpty(t, resp.Token)

	claims, err := a.Tokens().Validate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, Issuer, claims.Issuer)

	for _, tc := range [][2]string{{"admin", "wrong"}, {"root", "s3cret"}, {"", ""}} {
		_, err := a.Login(tc[0], tc[1])
		assert.ErrorIs(t, err, ErrInvalidCredentials, "%q/%q", tc[0], tc[1])
	}
}

func TestTokenValidation(t *testing.T) {
	tm, err := NewTokenManager(testSecret, time.Minute)
	require.NoError(t, err)

	token, exp, err := tm.Issue("admin")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 5*time.Second)

	t.Run("expired", func(t *testing.T) {
		later := *tm
		later.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
		_, err := later.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewTokenManager("another-secret-of-length", time.Minute)
		require.NoError(t, err)
		_, err = other.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "admin",
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = tm.Validate(forged)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("alg none", func(t *testing.T) {
		forged, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Subject: "admin", Issuer: Issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = tm.Validate(forged)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tm.Validate("not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewTokenManagerShortSecret(t *testing.T) {
	_, err := NewTokenManager("short", time.Hour)
	assert.Error(t, err)

	tm, err := NewTokenManager(testSecret, 0)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, tm.TTL())
}

func TestRequireToken(t *testing.T) {
	a := newTestAuthenticator(t)
	resp, err := a.Login("admin", "s3cret")
	require.NoError(t, err)

	e := echo.New()
	handler := RequireToken(a.Tokens())(func(c echo.Context) error {
		claims, ok := ClaimsFrom(c)
		require.True(t, ok)
		return c.String(http.StatusOK, claims.Subject)
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + resp.Token, http.StatusOK},
		{"lowercase scheme", "bearer " + resp.Token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"basic scheme", "Basic YWRtaW46czNjcmV0", http.StatusUnauthorized},
		{"no token", "Bearer ", http.StatusUnauthorized},
		{"bad token", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/projects", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			err := handler(e.NewContext(req, rec))

			if tt.want == http.StatusOK {
				require.NoError(t, err)
				assert.Equal(t, "admin", strings.TrimSpace(rec.Body.String()))
				return
			}
			var he *echo.HTTPError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, tt.want, he.Code)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(60, 2)
	now := time.Now()
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"), "burst exhausted")
	assert.True(t, rl.Allow("2.2.2.2"), "limits are per IP")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("1.1.1.1"), "one token per second refills")

	now = now.Add(10 * time.Minute)
	rl.Allow("3.3.3.3")
	rl.mu.Lock()
	_, stale := rl.visitors["1.1.1.1"]
	rl.mu.Unlock()
	assert.False(t, stale, "idle visitors are dropped")
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	e := echo.New()
	h := rl.Middleware()(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	call := func() error {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		return h(e.NewContext(req, httptest.NewRecorder()))
	}

	require.NoError(t, call())
	var he *echo.HTTPError
	require.ErrorAs(t, call(), &he)
	assert.Equal(t, http.StatusTooManyRequests, he.Code)
}
