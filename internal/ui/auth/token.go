package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bigkaa/goartstore/catalog-admin/internal/domain/model"
)

// ErrInvalidToken — токен не удалось разобрать.
var ErrInvalidToken = errors.New("некорректный токен")

// Claims — содержимое сессионного токена.
type Claims struct {
	UserID          string            `json:"id"`
	UserName        string            `json:"userName"`
	Name            string            `json:"name,omitempty"`
	Position        string            `json:"position,omitempty"`
	Permissions     []string          `json:"permissions"`
	PermissionsData []model.MenuEntry `json:"permissionsData,omitempty"`
	jwt.RegisteredClaims
}

// User возвращает пользователя, описанного claims.
func (c *Claims) User() *model.User {
	return &model.User{
		ID:              c.UserID,
		UserName:        c.UserName,
		Name:            c.Name,
		Position:        c.Position,
		Permissions:     append([]string(nil), c.Permissions...),
		PermissionsData: append([]model.MenuEntry(nil), c.PermissionsData...),
	}
}

// ClaimsForUser собирает claims для пользователя со сроком действия ttl.
// ttl <= 0 — токен без exp.
func ClaimsForUser(u *model.User, now time.Time, ttl time.Duration) *Claims {
	c := &Claims{
		UserID:          u.ID,
		UserName:        u.UserName,
		Name:            u.Name,
		Position:        u.Position,
		Permissions:     u.Permissions,
		PermissionsData: u.PermissionsData,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return c
}

// SignToken выпускает токен HS256, подписанный общим секретом.
func SignToken(claims *Claims, secret string) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена: %w", err)
	}
	return token, nil
}

// VerifySignature проверяет подпись токена: HMAC-SHA256 от "header.payload"
// общим секретом, сравнение в постоянном времени. Алгоритм из заголовка
// не учитывается. Токен не из трёх частей — false.
func VerifySignature(token, secret string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return false
	}

	sig, err := jwt.NewParser().DecodeSegment(parts[2])
	if err != nil {
		return false
	}

	err = jwt.SigningMethodHS256.Verify(parts[0]+"."+parts[1], sig, []byte(secret))
	return err == nil
}

// DecodeClaims разбирает payload токена без проверки подписи.
func DecodeClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// IsExpired сообщает, истёк ли токен к моменту now. Подпись не проверяется.
// Без exp — не истёк; неразбираемый токен считается истёкшим.
func IsExpired(token string, now time.Time) bool {
	claims, err := DecodeClaims(token)
	if err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.After(now)
}
