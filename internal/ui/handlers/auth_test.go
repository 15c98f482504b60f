package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/bigkaa/goartstore/catalog-admin/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-admin/internal/service"
	"github.com/bigkaa/goartstore/catalog-admin/internal/ui/auth"
	uimiddleware "github.com/bigkaa/goartstore/catalog-admin/internal/ui/middleware"
)

func setupAuth(t *testing.T) (*AuthHandler, *auth.SessionManager) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	accounts := []auth.Account{{
		ID: "1", UserName: "admin", PasswordHash: string(hash), Name: "Administrador",
		Permissions: []string{"products-all"},
		PermissionsData: []model.MenuEntry{
			{Name: "products", URL: "/products/list", Caption: "Productos"},
		},
	}}
	issuer := auth.NewLocalIssuer(accounts, testSecret, time.Hour, testLogger())
	sessions := auth.NewSessionManager(testSecret, false)
	return NewAuthHandler(service.NewAuthService(issuer, testSecret, testLogger()), sessions, testLogger()), sessions
}

func cookieNamed(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuth_Login(t *testing.T) {
	h, _ := setupAuth(t)

	tests := []struct {
		name     string
		form     url.Values
		status   int
		location string
		message  string
	}{
		{"успешный вход", url.Values{"userName": {"admin"}, "password": {"secret"}}, http.StatusSeeOther, MenuPath, ""},
		{"неверный пароль", url.Values{"userName": {"admin"}, "password": {"wrong"}}, http.StatusUnauthorized, "", "Неверное имя пользователя или пароль"},
		{"неизвестный пользователь", url.Values{"userName": {"nobody"}, "password": {"secret"}}, http.StatusUnauthorized, "", "Неверное имя пользователя или пароль"},
		{"пустые поля", url.Values{"userName": {" "}, "password": {""}}, http.StatusBadRequest, "", "Укажите имя пользователя и пароль"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postForm(http.HandlerFunc(h.HandleLogin), "/", tt.form)

			if w.Code != tt.status {
				t.Fatalf("статус = %d, ожидался %d", w.Code, tt.status)
			}
			if tt.location != "" {
				if loc := w.Header().Get("Location"); loc != tt.location {
					t.Errorf("Location = %q", loc)
				}
				c := cookieNamed(w, auth.TokenKey)
				if c == nil || c.Value == "" || !c.HttpOnly {
					t.Fatalf("ожидался HttpOnly cookie с токеном: %+v", c)
				}
				user, err := auth.UserFromToken(c.Value, testSecret, time.Now())
				if err != nil || user.UserName != "admin" {
					t.Errorf("токен в cookie недействителен: %v", err)
				}
				return
			}
			if !strings.Contains(w.Body.String(), tt.message) {
				t.Errorf("на странице нет сообщения %q", tt.message)
			}
			if cookieNamed(w, auth.TokenKey) != nil {
				t.Error("при ошибке входа токен не сохраняется")
			}
		})
	}
}

func TestAuth_LoginPageWithSession(t *testing.T) {
	h, _ := setupAuth(t)

	w := postForm(http.HandlerFunc(h.HandleLogin), "/", url.Values{"userName": {"admin"}, "password": {"secret"}})
	token := cookieNamed(w, auth.TokenKey)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(token)
	w = httptest.NewRecorder()
	h.HandleLoginPage(w, req)
	if w.Code != http.StatusFound || w.Header().Get("Location") != MenuPath {
		t.Errorf("при действующей сессии ожидался redirect в меню: %d %q", w.Code, w.Header().Get("Location"))
	}

	w = httptest.NewRecorder()
	h.HandleLoginPage(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `name="password"`) {
		t.Errorf("без сессии ожидалась форма входа: %d", w.Code)
	}
}

func TestAuth_Logout(t *testing.T) {
	h, _ := setupAuth(t)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: auth.TokenKey, Value: "some-token"})
	w := httptest.NewRecorder()
	h.HandleLogout(w, req)

	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		t.Fatalf("статус = %d, Location = %q", w.Code, w.Header().Get("Location"))
	}
	c := cookieNamed(w, auth.TokenKey)
	if c == nil || c.MaxAge >= 0 {
		t.Errorf("cookie сессии должен быть удалён: %+v", c)
	}
	if msg := flashOf(t, w); msg == "" {
		t.Error("ожидалось уведомление о выходе")
	}
}

func TestMenu(t *testing.T) {
	user := &model.User{
		UserName: "admin",
		PermissionsData: []model.MenuEntry{
			{Name: "orders", URL: "https://orders.example.com", Caption: "Pedidos", HasRedirectProtection: true},
		},
	}
	h := NewMenuHandler(testLogger())

	req := httptest.NewRequest(http.MethodGet, MenuPath, nil)
	req = req.WithContext(uimiddleware.WithUser(req.Context(), user, "tok"))
	w := httptest.NewRecorder()
	h.HandleMenu(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("статус = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "https://orders.example.com?token=tok") {
		t.Errorf("защищённый пункт меню без токена: %s", w.Body.String())
	}

	// Без пользователя в контексте — на страницу отказа
	w = httptest.NewRecorder()
	h.HandleMenu(w, httptest.NewRequest(http.MethodGet, MenuPath, nil))
	if w.Code != http.StatusFound || w.Header().Get("Location") != uimiddleware.UnauthorizedPath {
		t.Errorf("статус = %d, Location = %q", w.Code, w.Header().Get("Location"))
	}
}

func TestFlash_RoundTrip(t *testing.T) {
	w := httptest.NewRecorder()
	setFlash(w, "error", "Товар не найден")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	alert := popFlash(w, req)
	if alert == nil || alert.Kind != "error" || alert.Message != "Товар не найден" {
		t.Fatalf("уведомление = %+v", alert)
	}
	if c := cookieNamed(w, FlashCookieName); c == nil || c.MaxAge >= 0 {
		t.Error("cookie уведомления должен удаляться после чтения")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: FlashCookieName, Value: "%%%"})
	if popFlash(httptest.NewRecorder(), req) != nil {
		t.Error("повреждённое уведомление игнорируется")
	}
}
