package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/linemk/inventory-system/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/inventory-system/internal/service"
	"github.com/linemk/inventory-system/internal/session"
	"github.com/linemk/inventory-system/internal/views"
)

// Сообщения, которые видит пользователь
const (
	msgOperationFailed  = "Operation failed"
	msgProductNotFound  = "Product not found"
	msgOrderNotFound    = "Order not found"
	msgProductIsBusy    = "Product is being updated, please try again"
	msgAllFieldsNeeded  = "All fields required"
	msgInvalidCreds     = "Invalid credentials"
	msgUsernameTaken    = "Username already exists"
	msgDraftItemMissing = "Item not found"
)

// SessionManager создаёт, сохраняет и завершает браузерные сессии
type SessionManager interface {
	Start(ctx context.Context, w http.ResponseWriter, sellerID int64) (*session.Session, error)
	Save(ctx context.Context, sess *session.Session) error
	End(w http.ResponseWriter, r *http.Request)
}

var validate = validator.New()

// redirect всегда отвечает 303 See Other
func redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectWith добавляет к адресу параметр status или error
func redirectWith(w http.ResponseWriter, r *http.Request, path, key, msg string) {
	q := url.Values{}
	q.Set(key, msg)
	redirect(w, r, path+"?"+q.Encode())
}

func render(w http.ResponseWriter, logger *slog.Logger, renderer views.Renderer, page string, data any) {
	if err := renderer.Render(w, http.StatusOK, page, data); err != nil {
		logger.Error("failed to render page", slog.String("page", page), slog.Any("error", err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// currentSession достаёт сессию, которую положил middleware; без неё отправляем на логин
func currentSession(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*session.Session, bool) {
	sess, ok := jwtmiddleware.SessionFromContext(r.Context())
	if !ok {
		logger.Warn("session not found in context")
		redirect(w, r, jwtmiddleware.LoginPath)
		return nil, false
	}
	return sess, true
}

// idParam разбирает {id} из пути
func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// validationMessage превращает ошибку validator в короткое сообщение для формы
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return msgOperationFailed
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s is too long", field)
	}
	return fmt.Sprintf("invalid %s", field)
}

// userMessage текст ошибки сервиса для пользователя; внутренние ошибки не раскрываются
func userMessage(err error) string {
	var verr *service.ValidationError
	var stale *service.StaleItemError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.As(err, &stale):
		return stale.Error()
	case errors.Is(err, service.ErrConflict):
		return msgProductIsBusy
	}
	return msgOperationFailed
}
