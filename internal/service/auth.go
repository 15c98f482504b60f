// auth.go — сервис входа в систему.
// Учётные данные шифруются общим секретом и передаются эмитенту токенов
// (REST API каталога или локальные учётные записи). Полученный токен
// проверяется до сохранения в сессии.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bigkaa/goartstore/catalog-admin/internal/catalogapi"
	"github.com/bigkaa/goartstore/catalog-admin/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-admin/internal/ui/auth"
)

// Authenticator — эмитент сессионных токенов по зашифрованным учётным данным.
type Authenticator interface {
	Authenticate(ctx context.Context, encryptedCredentials string) (string, error)
}

// AuthService — вход пользователя.
type AuthService struct {
	issuer Authenticator
	secret string
	now    func() time.Time
	logger *slog.Logger
}

// NewAuthService создаёт сервис входа.
func NewAuthService(issuer Authenticator, secret string, logger *slog.Logger) *AuthService {
	return &AuthService{
		issuer: issuer,
		secret: secret,
		now:    time.Now,
		logger: logger.With(slog.String("component", "auth_service")),
	}
}

// Login шифрует учётные данные, получает токен у эмитента, проверяет подпись
// и срок действия и возвращает токен с пользователем.
func (s *AuthService) Login(ctx context.Context, userName, password string) (string, *model.User, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" || password == "" {
		return "", nil, &ValidationError{Fields: map[string]string{
			"credentials": "validation.credentials_required",
		}}
	}

	encrypted, err := auth.EncryptCredentials(userName, password, s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("шифрование учётных данных: %w", err)
	}

	token, err := s.issuer.Authenticate(ctx, encrypted)
	if err != nil {
		if errors.Is(err, catalogapi.ErrUnavailable) {
			s.logger.Warn("Эмитент токенов недоступен", slog.String("error", err.Error()))
			return "", nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		s.logger.Info("Вход отклонён",
			slog.String("username", userName),
			slog.String("error", err.Error()),
		)
		return "", nil, fmt.Errorf("%w: %w", ErrAuthFailure, err)
	}

	user, err := auth.UserFromToken(token, s.secret, s.now())
	if err != nil {
		s.logger.Warn("Эмитент вернул недействительный токен",
			slog.String("username", userName),
			slog.String("error", err.Error()),
		)
		return "", nil, fmt.Errorf("%w: %w", ErrAuthFailure, err)
	}

	s.logger.Info("Пользователь вошёл в систему",
		slog.String("username", user.UserName),
		slog.Int("permissions", len(user.Permissions)),
	)
	return token, user, nil
}
