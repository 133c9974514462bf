package proxy

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, secret []byte, ttl time.Duration) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	})
	s, err := tok.SignedString(secret)
	require.NoError(t, err)
	return s
}

func TestGuestByCookiePresence(t *testing.T) {
	res := newSessionResolver(SessionOptions{Cookies: []string{"sid"}})
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.True(t, res.Guest(r))

	r.AddCookie(&http.Cookie{Name: "sid", Value: ""})
	assert.True(t, res.Guest(r), "empty cookie")

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "sid", Value: "anything"})
	assert.False(t, res.Guest(r))
}

func TestGuestByToken(t *testing.T) {
	secret := []byte("test-secret")
	res := newSessionResolver(SessionOptions{Cookies: []string{"sid"}, JWTSecret: secret})

	cases := []struct {
		name  string
		setup func(*http.Request)
		guest bool
	}{
		{"no credentials", func(*http.Request) {}, true},
		{"valid cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "sid", Value: signed(t, secret, time.Hour)})
		}, false},
		{"opaque cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "sid", Value: "not-a-token"})
		}, true},
		{"wrong key", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "sid", Value: signed(t, []byte("other"), time.Hour)})
		}, true},
		{"expired", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "sid", Value: signed(t, secret, -time.Hour)})
		}, true},
		{"bearer", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+signed(t, secret, time.Hour))
		}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			tc.setup(r)
			assert.Equal(t, tc.guest, res.Guest(r))
		})
	}
}

func TestGuestRejectsUnsignedToken(t *testing.T) {
	secret := []byte("test-secret")
	res := newSessionResolver(SessionOptions{Cookies: []string{"sid"}, JWTSecret: secret})
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "sid", Value: none})
	assert.True(t, res.Guest(r))
}

func TestComponent(t *testing.T) {
	res := newSessionResolver(SessionOptions{})

	r := httptest.NewRequest(http.MethodGet, "/index.php?option=com_content&view=article", nil)
	assert.Equal(t, "com_content", res.Component(r))

	r.Header.Set(componentHeader, "com_users")
	assert.Equal(t, "com_users", res.Component(r))

	r = httptest.NewRequest(http.MethodGet, "/?option=com_x%3Cscript%3E", nil)
	assert.Equal(t, "", res.Component(r))

	custom := newSessionResolver(SessionOptions{ComponentParam: "module"})
	r = httptest.NewRequest(http.MethodGet, "/?module=blog&option=com_content", nil)
	assert.Equal(t, "blog", custom.Component(r))
}
