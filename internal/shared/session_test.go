package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestSessionManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, SessionOptions{Secret: "secret", TTL: time.Hour}), mr
}

func commit(t *testing.T, sm *SessionManager, sess *Session) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rec, req, sess))
	for _, c := range rec.Result().Cookies() {
		if c.Name == sm.CookieName() {
			return c
		}
	}
	return nil
}

func load(t *testing.T, sm *SessionManager, cookie *http.Cookie) *Session {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	return sess
}

func TestSessionRoundTrip(t *testing.T) {
	sm, _ := newTestSessionManager(t)

	sess := load(t, sm, nil)
	sess.SetUser(42)
	sess.Set("flash", "saved")
	cookie := commit(t, sm, sess)
	require.NotNil(t, cookie)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, http.SameSiteStrictMode, cookie.SameSite)

	loaded := load(t, sm, cookie)
	require.Equal(t, sess.ID, loaded.ID)
	require.Equal(t, int64(42), loaded.UserID())
	require.Equal(t, "saved", loaded.Get("flash"))
}

func TestAnonymousSessionNotPersisted(t *testing.T) {
	sm, mr := newTestSessionManager(t)

	cookie := commit(t, sm, load(t, sm, nil))
	require.Nil(t, cookie)
	require.Empty(t, mr.Keys())
}

func TestTamperedCookieStartsFreshSession(t *testing.T) {
	sm, _ := newTestSessionManager(t)
	sess := load(t, sm, nil)
	sess.SetUser(7)
	cookie := commit(t, sm, sess)

	forged := *cookie
	forged.Value = sess.ID + ".forged"
	require.Zero(t, load(t, sm, &forged).UserID())

	bare := *cookie
	bare.Value = sess.ID
	require.Zero(t, load(t, sm, &bare).UserID())
}

func TestSessionSlidingExpiry(t *testing.T) {
	sm, mr := newTestSessionManager(t)
	sess := load(t, sm, nil)
	sess.SetUser(7)
	cookie := commit(t, sm, sess)

	mr.FastForward(50 * time.Minute)
	require.NotNil(t, commit(t, sm, load(t, sm, cookie)))
	require.Equal(t, time.Hour, mr.TTL(sessionKeyPrefix+sess.ID))

	mr.FastForward(61 * time.Minute)
	require.Zero(t, load(t, sm, cookie).UserID())
}

func TestRenewDropsPreviousID(t *testing.T) {
	sm, mr := newTestSessionManager(t)
	sess := load(t, sm, nil)
	sess.Set(CSRFSessionKey, "token")
	cookie := commit(t, sm, sess)
	oldID := sess.ID

	loaded := load(t, sm, cookie)
	sm.Renew(loaded)
	loaded.SetUser(9)
	renewed := commit(t, sm, loaded)

	require.NotEqual(t, oldID, loaded.ID)
	require.False(t, mr.Exists(sessionKeyPrefix+oldID))
	require.Zero(t, load(t, sm, cookie).UserID())
	require.Equal(t, int64(9), load(t, sm, renewed).UserID())
}

func TestDestroyExpiresCookie(t *testing.T) {
	sm, mr := newTestSessionManager(t)
	sess := load(t, sm, nil)
	sess.SetUser(3)
	cookie := commit(t, sm, sess)

	loaded := load(t, sm, cookie)
	sm.Destroy(loaded)
	expired := commit(t, sm, loaded)
	require.NotNil(t, expired)
	require.Negative(t, expired.MaxAge)
	require.False(t, mr.Exists(sessionKeyPrefix+sess.ID))
}

func TestUserIDFromContext(t *testing.T) {
	_, err := UserIDFromContext(context.Background())
	require.ErrorIs(t, err, ErrUnauthenticated)

	sess := &Session{}
	_, err = UserIDFromContext(ContextWithSession(context.Background(), sess))
	require.ErrorIs(t, err, ErrUnauthenticated)

	sess.SetUser(5)
	id, err := UserIDFromContext(ContextWithSession(context.Background(), sess))
	require.NoError(t, err)
	require.Equal(t, int64(5), id)
}

func TestCSRFTokenLifecycle(t *testing.T) {
	csrf := NewCSRFManager("csrf-secret")
	ctx := context.Background()

	require.ErrorIs(t, csrf.VerifyToken(ctx, nil, "x"), ErrCSRFTokenMissing)

	sess := &Session{ID: "abc"}
	require.ErrorIs(t, csrf.VerifyToken(ctx, sess, "x"), ErrCSRFTokenMissing)

	token, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	again, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	require.Equal(t, token, again)

	require.NoError(t, csrf.VerifyToken(ctx, sess, token))
	require.ErrorIs(t, csrf.VerifyToken(ctx, sess, token+"x"), ErrCSRFTokenMismatch)
	require.ErrorIs(t, csrf.VerifyToken(ctx, sess, ""), ErrCSRFTokenMissing)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(CSRFHeader, token)
	require.Equal(t, token, TokenFromRequest(req))
}
