package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid session token")

// Claims содержимое токена сессии
type Claims struct {
	SellerID  int64
	SessionID string
}

// NewToken генерирует JWT-токен сессии продавца с заданным временем жизни.
// sub: id продавца, sid: id сессии в хранилище.
func NewToken(sellerID int64, sessionID string, secret []byte, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("session secret is empty")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": fmt.Sprintf("%d", sellerID),
		"sid": sessionID,
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseToken проверяет подпись, срок действия и извлекает claims
func ParseToken(tokenStr string, secret []byte) (*Claims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		// Проверка алгоритма
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: sub not found", ErrInvalidToken)
	}
	sellerID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid seller id", ErrInvalidToken)
	}

	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return nil, fmt.Errorf("%w: sid not found", ErrInvalidToken)
	}

	return &Claims{SellerID: sellerID, SessionID: sid}, nil
}
