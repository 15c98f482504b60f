package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/bigkaa/goartstore/catalog-admin/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-admin/internal/domain/rbac"
)

// Account — учётная запись локального входа (файл CA_ACCOUNTS_FILE).
type Account struct {
	ID              string            `json:"id"`
	UserName        string            `json:"userName"`
	PasswordHash    string            `json:"passwordHash"`
	Name            string            `json:"name"`
	Position        string            `json:"position"`
	Permissions     []string          `json:"permissions"`
	PermissionsData []model.MenuEntry `json:"permissionsData"`
}

// User возвращает пользователя учётной записи.
func (a *Account) User() *model.User {
	return &model.User{
		ID:              a.ID,
		UserName:        a.UserName,
		Name:            a.Name,
		Position:        a.Position,
		Permissions:     a.Permissions,
		PermissionsData: a.PermissionsData,
	}
}

// LoadAccounts читает учётные записи из JSON-файла (массив Account).
func LoadAccounts(path string) ([]Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла учётных записей %s: %w", path, err)
	}

	var accounts []Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("ошибка десериализации файла учётных записей %s: %w", path, err)
	}

	for i, a := range accounts {
		if a.UserName == "" || a.PasswordHash == "" {
			return nil, fmt.Errorf("учётная запись #%d: userName и passwordHash обязательны", i)
		}
	}
	return accounts, nil
}

// DemoAccounts возвращает учётные записи для разработки:
// admin/admin (products-all) и viewer/viewer (products-view).
func DemoAccounts() ([]Account, error) {
	menu := []model.MenuEntry{
		{Name: "products", URL: "/products/list", Caption: "Productos"},
	}
	demo := []struct {
		id, user, name, position string
		permissions              []string
	}{
		{"1", "admin", "Administrador", "Administrador de catálogo", []string{rbac.ProductsAll}},
		{"2", "viewer", "Consultor", "Consultor", []string{rbac.ProductsView}},
	}

	accounts := make([]Account, 0, len(demo))
	for _, d := range demo {
		hash, err := bcrypt.GenerateFromPassword([]byte(d.user), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
		}
		accounts = append(accounts, Account{
			ID:              d.id,
			UserName:        d.user,
			PasswordHash:    string(hash),
			Name:            d.name,
			Position:        d.position,
			Permissions:     d.permissions,
			PermissionsData: menu,
		})
	}
	return accounts, nil
}

// LocalIssuer выпускает сессионные токены по учётным записям из файла.
// Принимает зашифрованные учётные данные так же, как POST /auth REST API.
type LocalIssuer struct {
	accounts map[string]Account
	secret   string
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewLocalIssuer создаёт локальный эмитент токенов.
func NewLocalIssuer(accounts []Account, secret string, ttl time.Duration, logger *slog.Logger) *LocalIssuer {
	byName := make(map[string]Account, len(accounts))
	for _, a := range accounts {
		byName[a.UserName] = a
	}
	return &LocalIssuer{
		accounts: byName,
		secret:   secret,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "local_issuer")),
	}
}

// Authenticate расшифровывает учётные данные, проверяет пароль (bcrypt)
// и возвращает подписанный токен. Неверные данные — ErrInvalidCredentials.
func (li *LocalIssuer) Authenticate(_ context.Context, encrypted string) (string, error) {
	creds, err := DecryptCredentials(encrypted, li.secret)
	if err != nil {
		return "", err
	}

	account, ok := li.accounts[creds.UserName]
	if !ok {
		li.logger.Info("Вход отклонён: пользователь не найден", slog.String("username", creds.UserName))
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(creds.Password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			li.logger.Warn("Ошибка проверки пароля", slog.String("username", creds.UserName), slog.String("error", err.Error()))
		}
		return "", ErrInvalidCredentials
	}

	token, err := SignToken(ClaimsForUser(account.User(), li.now(), li.ttl), li.secret)
	if err != nil {
		return "", err
	}

	li.logger.Info("Токен выпущен", slog.String("username", account.UserName))
	return token, nil
}
