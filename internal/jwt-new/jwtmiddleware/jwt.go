package jwtmiddleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	security "github.com/linemk/inventory-system/internal/jwt-new"
	"github.com/linemk/inventory-system/internal/session"
)

type contextKey string

const (
	SellerIDKey contextKey = "sellerID"
	SessionKey  contextKey = "session"
)

// LoginPath куда отправляется запрос без активной сессии
const LoginPath = "/login"

// Options параметры cookie сессии
type Options struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Sessions связывает подписанную cookie с записью в хранилище сессий
type Sessions struct {
	log    *slog.Logger
	store  session.Store
	secret []byte
	opts   Options
}

func NewSessions(log *slog.Logger, store session.Store, secret []byte, opts Options) *Sessions {
	return &Sessions{
		log:    log,
		store:  store,
		secret: secret,
		opts:   opts,
	}
}

// Start заводит новую сессию продавца с пустым черновиком и выставляет cookie
func (s *Sessions) Start(ctx context.Context, w http.ResponseWriter, sellerID int64) (*session.Session, error) {
	sess := session.New(sellerID)
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}

	token, err := security.NewToken(sellerID, sess.ID, s.secret, s.opts.TTL)
	if err != nil {
		_ = s.store.Delete(ctx, sess.ID)
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.opts.TTL.Seconds()),
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

// Save сохраняет изменённую сессию (например, черновик заказа)
func (s *Sessions) Save(ctx context.Context, sess *session.Session) error {
	return s.store.Save(ctx, sess)
}

// End удаляет сессию вместе с черновиком и стирает cookie
func (s *Sessions) End(w http.ResponseWriter, r *http.Request) {
	if sess, ok := SessionFromContext(r.Context()); ok {
		if err := s.store.Delete(r.Context(), sess.ID); err != nil {
			s.log.Error("failed to delete session", slog.String("sessionID", sess.ID), slog.Any("error", err))
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Load ищет сессию по cookie и кладёт её в контекст. Запрос без сессии пропускается дальше как анонимный.
func (s *Sessions) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(s.opts.CookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := security.ParseToken(cookie.Value, s.secret)
		if err != nil {
			s.log.Debug("rejected session token", slog.Any("error", err))
			next.ServeHTTP(w, r)
			return
		}

		sess, err := s.store.Get(r.Context(), claims.SessionID)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				s.log.Error("failed to load session", slog.Any("error", err))
			}
			next.ServeHTTP(w, r)
			return
		}

		// токен и запись в хранилище должны указывать на одного продавца
		if sess.SellerID != claims.SellerID {
			s.log.Warn("session seller mismatch", slog.String("sessionID", sess.ID))
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

// RequireSeller пропускает только запросы с активной сессией, остальных отправляет на логин.
// Кодов 401/403 здесь нет: отказ всегда выглядит как редирект.
func RequireSeller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithSession кладёт сессию и id продавца в контекст
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	ctx = context.WithValue(ctx, SessionKey, sess)
	return context.WithValue(ctx, SellerIDKey, sess.SellerID)
}

// FromContext извлекает sellerID из контекста.
func FromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(SellerIDKey).(int64)
	return id, ok
}

// SessionFromContext извлекает сессию из контекста.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(SessionKey).(*session.Session)
	return sess, ok && sess != nil
}
