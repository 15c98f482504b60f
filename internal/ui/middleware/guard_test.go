package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/bigkaa/goartstore/catalog-admin/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-admin/internal/ui/auth"
)

const testSecret = "guard-secret"

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// signToken выпускает токен для пользователя с заданными разрешениями.
func signToken(t *testing.T, secret string, permissions []string, ttl time.Duration, now time.Time) string {
	t.Helper()
	user := &model.User{ID: "1", UserName: "admin", Permissions: permissions}
	token, err := auth.SignToken(auth.ClaimsForUser(user, now, ttl), secret)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestGuard_Check(t *testing.T) {
	now := time.Now()
	guard := NewGuard(auth.NewSessionManager(testSecret, false), testLogger())

	viewer := signToken(t, testSecret, []string{"products-view"}, time.Hour, now)
	allPerms := signToken(t, testSecret, []string{"products-all"}, time.Hour, now)
	expired := signToken(t, testSecret, []string{"products-all"}, time.Hour, now.Add(-2*time.Hour))
	expiredForged := signToken(t, "other-secret", []string{"products-all"}, time.Hour, now.Add(-2*time.Hour))
	forged := signToken(t, "other-secret", []string{"products-all"}, time.Hour, now)

	tests := []struct {
		name      string
		token     string
		present   bool
		required  string
		allowed   bool
		reason    DenyReason
		redirect  string
		clearSess bool
	}{
		{"нет токена", "", false, "products-view", false, ReasonNoToken, UnauthorizedPath, false},
		{"пустой токен", "", true, "products-view", false, ReasonNoToken, UnauthorizedPath, false},
		{"истёкший токен — на вход", expired, true, "products-view", false, ReasonExpired, LoginPath, true},
		{"истёкший и подделанный — сначала срок", expiredForged, true, "products-view", false, ReasonExpired, LoginPath, true},
		{"неверная подпись", forged, true, "products-view", false, ReasonInvalidSignature, UnauthorizedPath, true},
		{"нет разрешения", viewer, true, "products-delete", false, ReasonForbidden, UnauthorizedPath, false},
		{"есть разрешение", viewer, true, "products-view", true, "", "", false},
		{"products-all даёт доступ", allPerms, true, "products-delete", true, "", "", false},
		{"только сессия", viewer, true, "", true, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := guard.Check(tt.token, tt.present, tt.required, now)
			if d.Allowed != tt.allowed {
				t.Fatalf("Allowed = %v, ожидается %v (reason %q)", d.Allowed, tt.allowed, d.Reason)
			}
			if d.Reason != tt.reason {
				t.Errorf("Reason = %q, ожидается %q", d.Reason, tt.reason)
			}
			if d.Redirect != tt.redirect {
				t.Errorf("Redirect = %q, ожидается %q", d.Redirect, tt.redirect)
			}
			if d.ClearSession != tt.clearSess {
				t.Errorf("ClearSession = %v, ожидается %v", d.ClearSession, tt.clearSess)
			}
			if tt.allowed && (d.User == nil || d.User.UserName != "admin") {
				t.Errorf("User = %+v, ожидается admin", d.User)
			}
		})
	}
}

func TestGuard_Require(t *testing.T) {
	now := time.Now()
	guard := NewGuard(auth.NewSessionManager(testSecret, false), testLogger())
	viewer := signToken(t, testSecret, []string{"products-view"}, time.Hour, now)
	expired := signToken(t, testSecret, []string{"products-view"}, time.Minute, now.Add(-time.Hour))

	var gotUser *model.User
	var gotToken string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserFromContext(r.Context())
		gotToken = TokenFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	t.Run("доступ разрешён — пользователь в контексте", func(t *testing.T) {
		gotUser, gotToken = nil, ""
		r := httptest.NewRequest(http.MethodGet, "/products/list", nil)
		r.AddCookie(&http.Cookie{Name: auth.TokenKey, Value: viewer})
		w := httptest.NewRecorder()

		guard.Require("products-view")(next).ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("статус = %d, ожидается 200", w.Code)
		}
		if gotUser == nil || gotUser.UserName != "admin" {
			t.Errorf("UserFromContext() = %+v", gotUser)
		}
		if gotToken != viewer {
			t.Error("TokenFromContext() не совпадает с токеном из cookie")
		}
	})

	t.Run("нет cookie — unauthorized", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/products/list", nil)
		w := httptest.NewRecorder()

		guard.Require("products-view")(next).ServeHTTP(w, r)

		if w.Code != http.StatusFound {
			t.Fatalf("статус = %d, ожидается 302", w.Code)
		}
		if loc := w.Header().Get("Location"); loc != UnauthorizedPath {
			t.Errorf("Location = %q, ожидается %q", loc, UnauthorizedPath)
		}
	})

	t.Run("истёкший токен — вход и очистка cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/products/list", nil)
		r.AddCookie(&http.Cookie{Name: auth.TokenKey, Value: expired})
		w := httptest.NewRecorder()

		guard.Require("products-view")(next).ServeHTTP(w, r)

		if loc := w.Header().Get("Location"); loc != LoginPath {
			t.Errorf("Location = %q, ожидается %q", loc, LoginPath)
		}
		cookies := w.Result().Cookies()
		if len(cookies) != 1 || cookies[0].Name != auth.TokenKey || cookies[0].MaxAge != -1 {
			t.Errorf("ожидается удаление cookie token, got %+v", cookies)
		}
	})

	t.Run("нет разрешения — unauthorized, cookie не трогаем", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/products/delete/1", nil)
		r.AddCookie(&http.Cookie{Name: auth.TokenKey, Value: viewer})
		w := httptest.NewRecorder()

		guard.Require("products-delete")(next).ServeHTTP(w, r)

		if loc := w.Header().Get("Location"); loc != UnauthorizedPath {
			t.Errorf("Location = %q, ожидается %q", loc, UnauthorizedPath)
		}
		if len(w.Result().Cookies()) != 0 {
			t.Error("при отсутствии разрешения сессия не должна очищаться")
		}
	})
}

func TestUserFromContext_Empty(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if UserFromContext(r.Context()) != nil {
		t.Error("UserFromContext() без Guard должен вернуть nil")
	}
	if TokenFromContext(r.Context()) != "" {
		t.Error("TokenFromContext() без Guard должен вернуть пустую строку")
	}
}
