package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/bigkaa/goartstore/catalog-admin/internal/catalogapi"
	"github.com/bigkaa/goartstore/catalog-admin/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-admin/internal/ui/auth"
)

const testSecret = "silvifrid-secret"

// issuerFunc — Authenticator из функции.
type issuerFunc func(ctx context.Context, encrypted string) (string, error)

func (f issuerFunc) Authenticate(ctx context.Context, encrypted string) (string, error) {
	return f(ctx, encrypted)
}

func setupLocalIssuer(t *testing.T) *auth.LocalIssuer {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return auth.NewLocalIssuer([]auth.Account{{
		ID:           "1",
		UserName:     "admin",
		PasswordHash: string(hash),
		Permissions:  []string{"products-all"},
	}}, testSecret, time.Hour, testLogger())
}

func TestAuthService_Login(t *testing.T) {
	svc := NewAuthService(setupLocalIssuer(t), testSecret, testLogger())

	token, user, err := svc.Login(context.Background(), " admin ", "admin")
	if err != nil {
		t.Fatalf("Login() вернул ошибку: %v", err)
	}
	if token == "" || user.UserName != "admin" || len(user.Permissions) != 1 {
		t.Errorf("Login() = %q, %+v", token, user)
	}
}

func TestAuthService_LoginFailures(t *testing.T) {
	expired, err := auth.SignToken(auth.ClaimsForUser(&model.User{ID: "1", UserName: "admin"},
		time.Now().Add(-2*time.Hour), time.Hour), testSecret)
	if err != nil {
		t.Fatal(err)
	}
	foreign, err := auth.SignToken(auth.ClaimsForUser(&model.User{ID: "1"}, time.Now(), time.Hour), "other-secret")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		issuer   Authenticator
		password string
		want     error
	}{
		{"неверный пароль", setupLocalIssuer(t), "wrong", ErrAuthFailure},
		{"пустой пароль", setupLocalIssuer(t), "", ErrValidation},
		{"API недоступен", issuerFunc(func(context.Context, string) (string, error) {
			return "", catalogapi.ErrUnavailable
		}), "admin", ErrUnavailable},
		{"API отклонил", issuerFunc(func(context.Context, string) (string, error) {
			return "", catalogapi.ErrUnauthorized
		}), "admin", ErrAuthFailure},
		{"истёкший токен", issuerFunc(func(context.Context, string) (string, error) {
			return expired, nil
		}), "admin", ErrAuthFailure},
		{"чужая подпись", issuerFunc(func(context.Context, string) (string, error) {
			return foreign, nil
		}), "admin", ErrAuthFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuthService(tt.issuer, testSecret, testLogger())
			_, _, err := svc.Login(context.Background(), "admin", tt.password)
			if !errors.Is(err, tt.want) {
				t.Errorf("ошибка = %v, ожидается %v", err, tt.want)
			}
		})
	}
}

func TestAuthService_SendsEncryptedCredentials(t *testing.T) {
	var got string
	svc := NewAuthService(issuerFunc(func(_ context.Context, encrypted string) (string, error) {
		got = encrypted
		return "", catalogapi.ErrUnauthorized
	}), testSecret, testLogger())

	_, _, _ = svc.Login(context.Background(), "admin", "s3cret")

	creds, err := auth.DecryptCredentials(got, testSecret)
	if err != nil {
		t.Fatalf("DecryptCredentials() вернул ошибку: %v", err)
	}
	if creds.UserName != "admin" || creds.Password != "s3cret" {
		t.Errorf("credentials = %+v", creds)
	}
}
