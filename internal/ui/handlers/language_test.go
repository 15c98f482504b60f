package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/bigkaa/goartstore/catalog-admin/internal/ui/i18n"
)

func TestHandleSetLanguage(t *testing.T) {
	tests := []struct {
		name     string
		lang     string
		referer  string
		wantLang string
		location string
	}{
		{"испанский", "es", "http://example.com/products/list?x=1", "es", "/products/list?x=1"},
		{"неподдерживаемый язык", "de", "http://example.com/layout/menu", i18n.DefaultLang, "/layout/menu"},
		{"без Referer", "ru", "", "ru", "/"},
		{"чужой хост", "es", "https://evil.example.org/phish", "es", "/"},
		{"путь вида //host", "es", "http://example.com//evil.example/x", "es", "/"},
		{"путь вида /\\host", "es", "http://example.com/\\evil.example/x", "es", "/"},
		{"относительный Referer", "es", "evil.example/x", "es", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{"lang": {tt.lang}}
			req := httptest.NewRequest(http.MethodPost, "http://example.com/language", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.referer != "" {
				req.Header.Set("Referer", tt.referer)
			}
			w := httptest.NewRecorder()
			HandleSetLanguage(w, req)

			if w.Code != http.StatusSeeOther {
				t.Fatalf("статус = %d, ожидается 303", w.Code)
			}
			if got := w.Header().Get("Location"); got != tt.location {
				t.Errorf("Location = %q, ожидается %q", got, tt.location)
			}
			c := cookieNamed(w, i18n.LangCookieName)
			if c == nil || c.Value != tt.wantLang {
				t.Errorf("cookie lang = %+v, ожидается %q", c, tt.wantLang)
			}
		})
	}
}

func TestFlash_Localized(t *testing.T) {
	e := setupEnv(t)
	p := e.seed(t, "https://img/a.jpg")

	req := httptest.NewRequest(http.MethodPost, "/products/delete/"+p.ID, nil)
	w := httptest.NewRecorder()
	e.router(admin).ServeHTTP(w, req.WithContext(i18n.WithLang(req.Context(), "es")))

	if got := flashOf(t, w); got != "Producto eliminado" {
		t.Errorf("уведомление = %q, ожидается испанский текст", got)
	}
}
