package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	mgr := NewSessionManager("test-secret", "booklib-test", time.Hour)

	token, err := mgr.Issue("42", "alice")
	require.NoError(t, err)

	claims, err := mgr.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "alice", claims.Username)
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	issuer := NewSessionManager("secret-a", "booklib-test", time.Hour)
	verifier := NewSessionManager("secret-b", "booklib-test", time.Hour)

	token, err := issuer.Issue("42", "alice")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.Error(t, err)
}

func TestVerify_RejectsWrongIssuer(t *testing.T) {
	issuer := NewSessionManager("test-secret", "someone-else", time.Hour)
	verifier := NewSessionManager("test-secret", "booklib-test", time.Hour)

	token, err := issuer.Issue("42", "alice")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.Error(t, err)
}

func TestVerify_RejectsExpiredToken(t *testing.T) {
	mgr := NewSessionManager("test-secret", "booklib-test", time.Millisecond)

	token, err := mgr.Issue("42", "alice")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = mgr.Verify(token)
	assert.Error(t, err)
}

func TestVerify_RejectsGarbage(t *testing.T) {
	mgr := NewSessionManager("test-secret", "booklib-test", time.Hour)

	_, err := mgr.Verify("not-a-token")
	assert.Error(t, err)
}

func TestSetCookieAndClearCookie(t *testing.T) {
	mgr := NewSessionManager("test-secret", "booklib-test", time.Hour)

	w := httptest.NewRecorder()
	mgr.SetCookie(w, "tokenvalue")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, "tokenvalue", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, "/", cookies[0].Path)

	w = httptest.NewRecorder()
	mgr.ClearCookie(w)

	cookies = w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)
}
