package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bigkaa/goartstore/catalog-admin/internal/kvstore"
)

// TestSessionSaveLoadClear проверяет хранение токена поверх key/value хранилища.
func TestSessionSaveLoadClear(t *testing.T) {
	ctx := context.Background()
	s := NewSessionManager(testSecret, false).Session(kvstore.NewMemoryStore())

	if _, ok, err := s.Load(ctx); err != nil || ok {
		t.Fatalf("Load() пустой сессии = ok:%v err:%v, ожидается false, nil", ok, err)
	}

	if err := s.Save(ctx, validToken); err != nil {
		t.Fatalf("Save() вернул ошибку: %v", err)
	}
	token, ok, err := s.Load(ctx)
	if err != nil || !ok || token != validToken {
		t.Fatalf("Load() = %q, %v, %v", token, ok, err)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() вернул ошибку: %v", err)
	}
	if _, ok, _ := s.Load(ctx); ok {
		t.Error("после Clear() токен остался")
	}
}

func TestSessionCurrentUser(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{"валидный токен", validToken, false},
		{"истёкший токен", expiredToken, true},
		{"неверная подпись", validToken[:len(validToken)-3] + "abc", true},
		{"мусор", "garbage", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSessionManager(testSecret, false).Session(kvstore.NewMemoryStore())
			if err := s.Save(ctx, tt.token); err != nil {
				t.Fatal(err)
			}

			user, err := s.CurrentUser(ctx)
			if tt.wantErr {
				if !errors.Is(err, ErrNoSession) {
					t.Errorf("CurrentUser() ошибка = %v, ожидается ErrNoSession", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CurrentUser() вернул ошибку: %v", err)
			}
			if user.UserName != "admin" || user.ID != "1" {
				t.Errorf("CurrentUser() = %+v", user)
			}
		})
	}
}

func TestSessionCurrentUser_NoToken(t *testing.T) {
	s := NewSessionManager(testSecret, false).Session(kvstore.NewMemoryStore())
	if _, err := s.CurrentUser(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Errorf("CurrentUser() ошибка = %v, ожидается ErrNoSession", err)
	}
}

// TestCookieStore проверяет установку и удаление cookie сессии.
func TestCookieStore(t *testing.T) {
	ctx := context.Background()
	mgr := NewSessionManager(testSecret, true)

	// Сохранение токена
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	s := mgr.ForRequest(w, r)
	if err := s.Save(ctx, validToken); err != nil {
		t.Fatalf("Save() вернул ошибку: %v", err)
	}

	// В рамках того же запроса токен уже виден
	if token, ok, _ := s.Load(ctx); !ok || token != validToken {
		t.Errorf("Load() после Save() = %q, %v", token, ok)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("количество cookie = %d, ожидается 1", len(cookies))
	}
	c := cookies[0]
	if c.Name != TokenKey {
		t.Errorf("Name = %q, ожидается %q", c.Name, TokenKey)
	}
	if !c.HttpOnly {
		t.Error("HttpOnly должен быть true")
	}
	if !c.Secure {
		t.Error("Secure должен быть true")
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, ожидается Lax", c.SameSite)
	}

	// Следующий запрос с cookie восстанавливает пользователя
	r2 := httptest.NewRequest(http.MethodGet, "/products/list", nil)
	r2.AddCookie(c)
	w2 := httptest.NewRecorder()
	user, err := mgr.ForRequest(w2, r2).CurrentUser(ctx)
	if err != nil {
		t.Fatalf("CurrentUser() вернул ошибку: %v", err)
	}
	if user.UserName != "admin" {
		t.Errorf("UserName = %q, ожидается admin", user.UserName)
	}

	// Выход
	s2 := mgr.ForRequest(w2, r2)
	if err := s2.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s2.Load(ctx); ok {
		t.Error("после Clear() токен виден в рамках запроса")
	}
	cleared := w2.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge != -1 {
		t.Errorf("Clear() должен удалить cookie (MaxAge=-1), got %+v", cleared)
	}
}

func TestUserFromToken_FreshToken(t *testing.T) {
	now := time.Now()
	token, err := SignToken(ClaimsForUser(testUser(), now, time.Hour), testSecret)
	if err != nil {
		t.Fatal(err)
	}

	user, err := UserFromToken(token, testSecret, now)
	if err != nil {
		t.Fatalf("UserFromToken() вернул ошибку: %v", err)
	}
	if user.UserName != "gerente" {
		t.Errorf("UserName = %q, ожидается gerente", user.UserName)
	}

	if _, err := UserFromToken(token, testSecret, now.Add(2*time.Hour)); !errors.Is(err, ErrNoSession) {
		t.Errorf("UserFromToken() после истечения: ошибка = %v, ожидается ErrNoSession", err)
	}
}
