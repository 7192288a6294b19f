package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/linemk/inventory-system/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/inventory-system/internal/service"
	"github.com/linemk/inventory-system/internal/views"
)

// SignupRequest поля формы регистрации с тегами валидации
type SignupRequest struct {
	Name     string `validate:"required,max=255"`
	Username string `validate:"required,max=255"`
	Password string `validate:"required"`
}

// LoginRequest поля формы входа
type LoginRequest struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

// HomeHandler – главная страница; вошедшего продавца сразу отправляем к товарам
func HomeHandler(log *slog.Logger, renderer views.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := jwtmiddleware.FromContext(r.Context()); ok {
			redirect(w, r, "/products")
			return
		}
		render(w, log.With(slog.String("op", "handlers.HomeHandler")), renderer, views.PageHome, nil)
	}
}

func SignupPageHandler(log *slog.Logger, renderer views.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, log.With(slog.String("op", "handlers.SignupPageHandler")), renderer, views.PageSignup, views.AuthPage{})
	}
}

// SignupHandler – регистрация продавца; после успеха продавец сразу входит в систему
func SignupHandler(log *slog.Logger, authService service.AuthServiceInterface, sessions SessionManager, renderer views.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.SignupHandler"
		logger := log.With(slog.String("op", op))

		if err := r.ParseForm(); err != nil {
			logger.Error("invalid request: form parsing error", slog.Any("error", err))
			render(w, logger, renderer, views.PageSignup, views.AuthPage{Error: msgOperationFailed})
			return
		}
		req := SignupRequest{
			Name:     r.PostFormValue("name"),
			Username: r.PostFormValue("username"),
			Password: r.PostFormValue("password"),
		}
		page := views.AuthPage{Name: req.Name, Username: req.Username}

		if err := validate.Struct(req); err != nil {
			logger.Info("invalid request: validation error", slog.Any("error", err))
			page.Error = msgAllFieldsNeeded
			render(w, logger, renderer, views.PageSignup, page)
			return
		}

		seller, err := authService.Signup(r.Context(), req.Name, req.Username, req.Password)
		if err != nil {
			var verr *service.ValidationError
			switch {
			case errors.As(err, &verr):
				page.Error = verr.Error()
			case errors.Is(err, service.ErrUsernameTaken):
				page.Error = msgUsernameTaken
			default:
				logger.Error("signup failed", slog.Any("error", err))
				page.Error = msgOperationFailed
			}
			render(w, logger, renderer, views.PageSignup, page)
			return
		}

		if _, err := sessions.Start(r.Context(), w, seller.ID); err != nil {
			logger.Error("failed to start session", slog.Int64("sellerID", seller.ID), slog.Any("error", err))
			page.Error = msgOperationFailed
			render(w, logger, renderer, views.PageSignup, page)
			return
		}
		redirect(w, r, "/products")
	}
}

func LoginPageHandler(log *slog.Logger, renderer views.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, log.With(slog.String("op", "handlers.LoginPageHandler")), renderer, views.PageLogin, views.AuthPage{})
	}
}

// LoginHandler – проверка учётных данных и выдача cookie сессии
func LoginHandler(log *slog.Logger, authService service.AuthServiceInterface, sessions SessionManager, renderer views.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.LoginHandler"
		logger := log.With(slog.String("op", op))

		if err := r.ParseForm(); err != nil {
			logger.Error("invalid request: form parsing error", slog.Any("error", err))
			render(w, logger, renderer, views.PageLogin, views.AuthPage{Error: msgOperationFailed})
			return
		}
		req := LoginRequest{
			Username: r.PostFormValue("username"),
			Password: r.PostFormValue("password"),
		}
		page := views.AuthPage{Username: req.Username}

		if err := validate.Struct(req); err != nil {
			logger.Info("invalid request: validation error", slog.Any("error", err))
			page.Error = msgInvalidCreds
			render(w, logger, renderer, views.PageLogin, page)
			return
		}

		seller, err := authService.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				page.Error = msgInvalidCreds
			} else {
				logger.Error("login failed", slog.Any("error", err))
				page.Error = msgOperationFailed
			}
			render(w, logger, renderer, views.PageLogin, page)
			return
		}

		if _, err := sessions.Start(r.Context(), w, seller.ID); err != nil {
			logger.Error("failed to start session", slog.Int64("sellerID", seller.ID), slog.Any("error", err))
			page.Error = msgOperationFailed
			render(w, logger, renderer, views.PageLogin, page)
			return
		}
		redirect(w, r, "/products")
	}
}

// LogoutHandler удаляет сессию вместе с черновиком заказа
func LogoutHandler(sessions SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions.End(w, r)
		redirect(w, r, "/")
	}
}
