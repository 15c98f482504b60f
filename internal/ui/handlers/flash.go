// flash.go — уведомление, переживающее один redirect (cookie).
package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/bigkaa/goartstore/catalog-admin/internal/ui/pages"
)

// FlashCookieName — имя cookie с уведомлением для следующей страницы.
const FlashCookieName = "ca_flash"

// flashMaxAge — время жизни уведомления (1 минута).
const flashMaxAge = 60

// setFlash сохраняет уведомление для страницы после redirect.
func setFlash(w http.ResponseWriter, kind, message string) {
	raw, err := json.Marshal(pages.Alert{Kind: kind, Message: message})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   flashMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash возвращает уведомление и удаляет cookie. nil — уведомления нет.
func popFlash(w http.ResponseWriter, r *http.Request) *pages.Alert {
	cookie, err := r.Cookie(FlashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var alert pages.Alert
	if err := json.Unmarshal(raw, &alert); err != nil || alert.Message == "" {
		return nil
	}
	return &alert
}

// redirectWithAlert сохраняет уведомление и выполняет redirect (303).
func redirectWithAlert(w http.ResponseWriter, r *http.Request, target, kind, message string) {
	setFlash(w, kind, message)
	http.Redirect(w, r, target, http.StatusSeeOther)
}
