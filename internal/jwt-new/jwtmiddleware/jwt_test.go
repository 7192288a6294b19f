package jwtmiddleware_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	security "github.com/linemk/inventory-system/internal/jwt-new"
	"github.com/linemk/inventory-system/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/inventory-system/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cookieName = "inventory_session"

var secret = []byte("testsecret")

func newSessions(store session.Store) *jwtmiddleware.Sessions {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return jwtmiddleware.NewSessions(logger, store, secret, jwtmiddleware.Options{
		CookieName: cookieName,
		TTL:        time.Hour,
	})
}

// protected собирает цепочку Load -> RequireSeller -> обработчик, который пишет 200
func protected(s *jwtmiddleware.Sessions) http.Handler {
	return s.Load(jwtmiddleware.RequireSeller(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))
}

func TestRequireSeller_NoCookieRedirectsToLogin(t *testing.T) {
	s := newSessions(session.NewMemoryStore(time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	rr := httptest.NewRecorder()
	protected(s).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))
}

func TestRequireSeller_InvalidToken(t *testing.T) {
	s := newSessions(session.NewMemoryStore(time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "invalid.token.value"})
	rr := httptest.NewRecorder()
	protected(s).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
}

func TestStart_ThenLoadPassesGate(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	s := newSessions(store)

	rec := httptest.NewRecorder()
	sess, err := s.Start(context.Background(), rec, 77)
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	var seenSeller int64
	var seenSession string
	handler := s.Load(jwtmiddleware.RequireSeller(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenSeller, _ = jwtmiddleware.FromContext(r.Context())
		got, _ := jwtmiddleware.SessionFromContext(r.Context())
		seenSession = got.ID
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.AddCookie(cookies[0])
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(77), seenSeller)
	assert.Equal(t, sess.ID, seenSession)
}

func TestLoad_DeletedSessionIsAnonymous(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	s := newSessions(store)

	rec := httptest.NewRecorder()
	sess, err := s.Start(context.Background(), rec, 1)
	require.NoError(t, err)
	require.NoError(t, store.Delete(context.Background(), sess.ID))

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.AddCookie(rec.Result().Cookies()[0])
	rr := httptest.NewRecorder()
	protected(s).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
}

func TestLoad_SellerMismatch(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	s := newSessions(store)

	sess := session.New(1)
	require.NoError(t, store.Save(context.Background(), sess))

	// токен подписан правильно, но на другого продавца
	token, err := security.NewToken(2, sess.ID, secret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	rr := httptest.NewRecorder()
	protected(s).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
}

func TestEnd_DeletesSessionAndCookie(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	s := newSessions(store)

	sess := session.New(1)
	require.NoError(t, store.Save(context.Background(), sess))

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req = req.WithContext(jwtmiddleware.WithSession(req.Context(), sess))
	rr := httptest.NewRecorder()
	s.End(rr, req)

	_, err := store.Get(context.Background(), sess.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestFromContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), jwtmiddleware.SellerIDKey, int64(456))
	sellerID, ok := jwtmiddleware.FromContext(ctx)
	assert.True(t, ok, "Expected to retrieve sellerID from context")
	assert.Equal(t, int64(456), sellerID)

	_, ok = jwtmiddleware.SessionFromContext(context.Background())
	assert.False(t, ok)
}
