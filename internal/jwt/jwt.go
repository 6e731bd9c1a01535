// Package jwt предоставляет функции для работы с JWT токенами
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken токен не прошел проверку
var ErrInvalidToken = errors.New("invalid token")

// Claims структура для хранения данных в JWT токене
type Claims struct {
	ProfileID uuid.UUID `json:"profile_id"` // ID профиля (совпадает с ID учетной записи)
	Email     string    `json:"email"`
	Role      string    `json:"role"` // admin, hr, manager, employee
	jwt.RegisteredClaims
}

// Manager отвечает за создание и проверку JWT токенов
type Manager struct {
	secretKey     []byte
	tokenLifetime time.Duration
	now           func() time.Time
}

// NewManager создает новый менеджер JWT
// lifetime - время жизни токена (например, 24 * time.Hour)
func NewManager(secretKey string, lifetime time.Duration) *Manager {
	return &Manager{
		secretKey:     []byte(secretKey),
		tokenLifetime: lifetime,
		now:           time.Now,
	}
}

// GenerateToken создает новый JWT токен для пользователя
func (m *Manager) GenerateToken(profileID uuid.UUID, email, role string) (string, error) {
	now := m.now()
	claims := &Claims{
		ProfileID: profileID,
		Email:     email,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profileID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}

	// Создаем токен с методом подписи HS256
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ParseToken проверяет и парсит JWT токен
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Проверяем метод подписи
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unsupported signing method: %v", token.Header["alg"])
		}
		return m.secretKey, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
