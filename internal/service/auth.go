package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linemk/inventory-system/internal/domain/models"
	"github.com/linemk/inventory-system/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceInterface interface {
	Signup(ctx context.Context, name, username, password string) (*models.Seller, error)
	Login(ctx context.Context, username, password string) (*models.Seller, error)
}

type AuthService struct {
	log        *slog.Logger
	sellerRepo storage.SellerStorage
	cost       int
}

func NewAuthService(log *slog.Logger, sellerRepo storage.SellerStorage) *AuthService {
	return &AuthService{
		log:        log,
		sellerRepo: sellerRepo,
		cost:       bcrypt.DefaultCost,
	}
}

// Signup регистрирует продавца.
// Пароль хэшируется через bcrypt, соль добавляется автоматически.
func (a *AuthService) Signup(ctx context.Context, name, username, password string) (*models.Seller, error) {
	const op = "service.AuthService.Signup"
	name, username, password = strings.TrimSpace(name), strings.TrimSpace(username), strings.TrimSpace(password)
	logger := a.log.With(slog.String("op", op), slog.String("username", username))

	if name == "" || username == "" || password == "" {
		return nil, newValidationError("", "All fields required")
	}

	_, err := a.sellerRepo.GetSellerByUsername(ctx, username)
	switch {
	case err == nil:
		logger.Info("username already taken")
		return nil, ErrUsernameTaken
	case !errors.Is(err, storage.ErrSellerNotFound):
		logger.Error("failed to get seller", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get seller: %w", op, err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	seller, err := a.sellerRepo.CreateSeller(ctx, &models.Seller{
		Name:     name,
		Username: username,
		PassHash: passHash,
	})
	if err != nil {
		// гонка двух регистраций с одним логином ловится уникальным индексом
		if errors.Is(err, storage.ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		logger.Error("failed to create seller", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create seller: %w", op, err)
	}

	logger.Info("seller signed up", slog.Int64("sellerID", seller.ID))
	return seller, nil
}

// Login проверяет логин и пароль; неизвестный логин и неверный пароль неразличимы снаружи
func (a *AuthService) Login(ctx context.Context, username, password string) (*models.Seller, error) {
	const op = "service.AuthService.Login"
	username, password = strings.TrimSpace(username), strings.TrimSpace(password)
	logger := a.log.With(slog.String("op", op), slog.String("username", username))

	seller, err := a.sellerRepo.GetSellerByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrSellerNotFound) {
			logger.Info("seller not found")
			return nil, ErrInvalidCredentials
		}
		logger.Error("failed to get seller", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get seller: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(seller.PassHash, []byte(password)); err != nil {
		logger.Warn("invalid password")
		return nil, ErrInvalidCredentials
	}

	logger.Info("seller logged in", slog.Int64("sellerID", seller.ID))
	return seller, nil
}
