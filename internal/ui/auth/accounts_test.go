package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAccounts(t *testing.T) []Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("clave"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return []Account{{
		ID:           "7",
		UserName:     "gerente",
		PasswordHash: string(hash),
		Name:         "María",
		Permissions:  []string{"products-view"},
	}}
}

func TestLocalIssuer_Authenticate(t *testing.T) {
	issuer := NewLocalIssuer(testAccounts(t), testSecret, time.Hour, testLogger())
	ctx := context.Background()

	encrypted, err := EncryptCredentials("gerente", "clave", testSecret)
	if err != nil {
		t.Fatal(err)
	}

	token, err := issuer.Authenticate(ctx, encrypted)
	if err != nil {
		t.Fatalf("Authenticate() вернул ошибку: %v", err)
	}
	if !VerifySignature(token, testSecret) {
		t.Error("выпущенный токен не проходит проверку подписи")
	}
	if IsExpired(token, time.Now()) {
		t.Error("выпущенный токен уже истёк")
	}
	claims, err := DecodeClaims(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != "7" || claims.UserName != "gerente" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestLocalIssuer_Rejects(t *testing.T) {
	issuer := NewLocalIssuer(testAccounts(t), testSecret, time.Hour, testLogger())
	ctx := context.Background()

	wrongPassword, _ := EncryptCredentials("gerente", "otra", testSecret)
	unknownUser, _ := EncryptCredentials("nadie", "clave", testSecret)
	wrongSecret, _ := EncryptCredentials("gerente", "clave", "otro-secreto")

	tests := []struct {
		name      string
		encrypted string
	}{
		{"неверный пароль", wrongPassword},
		{"неизвестный пользователь", unknownUser},
		{"зашифровано другим секретом", wrongSecret},
		{"мусор", "garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Authenticate(ctx, tt.encrypted)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Authenticate() ошибка = %v, ожидается ErrInvalidCredentials", err)
			}
		})
	}
}

func TestLoadAccounts(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "accounts.json")
	content := `[{"id":"1","userName":"admin","passwordHash":"$2a$10$abc","permissions":["products-all"],
		"permissionsData":[{"name":"shop","url":"https://shop","caption":"Tienda","hasRedirectProtection":true}]}]`
	if err := os.WriteFile(valid, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	accounts, err := LoadAccounts(valid)
	if err != nil {
		t.Fatalf("LoadAccounts() вернул ошибку: %v", err)
	}
	if len(accounts) != 1 || accounts[0].UserName != "admin" {
		t.Fatalf("accounts = %+v", accounts)
	}
	if !accounts[0].PermissionsData[0].HasRedirectProtection {
		t.Error("hasRedirectProtection не прочитан")
	}

	noHash := filepath.Join(dir, "nohash.json")
	if err := os.WriteFile(noHash, []byte(`[{"userName":"admin"}]`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAccounts(noHash); err == nil {
		t.Error("LoadAccounts() без passwordHash не вернул ошибку")
	}

	if _, err := LoadAccounts(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("LoadAccounts() для отсутствующего файла не вернул ошибку")
	}
}

func TestDemoAccounts(t *testing.T) {
	accounts, err := DemoAccounts()
	if err != nil {
		t.Fatalf("DemoAccounts() вернул ошибку: %v", err)
	}
	issuer := NewLocalIssuer(accounts, testSecret, time.Hour, testLogger())

	encrypted, _ := EncryptCredentials("admin", "admin", testSecret)
	if _, err := issuer.Authenticate(context.Background(), encrypted); err != nil {
		t.Errorf("вход admin/admin: %v", err)
	}
}
