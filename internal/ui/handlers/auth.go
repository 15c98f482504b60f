// auth.go — вход по логину и паролю, выход, страница отказа в доступе.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bigkaa/goartstore/catalog-admin/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-admin/internal/service"
	"github.com/bigkaa/goartstore/catalog-admin/internal/ui/auth"
	"github.com/bigkaa/goartstore/catalog-admin/internal/ui/i18n"
	"github.com/bigkaa/goartstore/catalog-admin/internal/ui/pages"
)

// LoginService — вход пользователя.
type LoginService interface {
	Login(ctx context.Context, userName, password string) (string, *model.User, error)
}

// AuthHandler — обработчики аутентификации UI.
type AuthHandler struct {
	auth     LoginService
	sessions *auth.SessionManager
	logger   *slog.Logger
}

// NewAuthHandler создаёт новый AuthHandler.
func NewAuthHandler(authSvc LoginService, sessions *auth.SessionManager, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     authSvc,
		sessions: sessions,
		logger:   logger.With(slog.String("component", "ui_auth")),
	}
}

// HandleLoginPage — GET /
// При действующей сессии сразу переводит в меню.
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, err := h.sessions.ForRequest(w, r).CurrentUser(r.Context()); err == nil {
		http.Redirect(w, r, MenuPath, http.StatusFound)
		return
	}
	render(w, r, http.StatusOK, pages.Login(pages.LoginData{Alert: popFlash(w, r)}), h.logger)
}

// HandleLogin — POST /
// Получает токен у эмитента, сохраняет его в сессии, redirect в меню.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		render(w, r, http.StatusBadRequest, pages.Login(pages.LoginData{
			Alert: &pages.Alert{Kind: pages.AlertError, Message: i18n.T(r.Context(), "alert.bad_request")},
		}), h.logger)
		return
	}
	userName := r.PostFormValue("userName")

	token, user, err := h.auth.Login(r.Context(), userName, r.PostFormValue("password"))
	if err != nil {
		status, message := loginFailure(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Ошибка входа", slog.String("error", err.Error()))
		}
		render(w, r, status, pages.Login(pages.LoginData{
			UserName: userName,
			Alert:    &pages.Alert{Kind: pages.AlertError, Message: i18n.T(r.Context(), message)},
		}), h.logger)
		return
	}

	if err := h.sessions.ForRequest(w, r).Save(r.Context(), token); err != nil {
		h.logger.Error("Ошибка сохранения сессии", slog.String("error", err.Error()))
		render(w, r, http.StatusInternalServerError, pages.Login(pages.LoginData{
			UserName: userName,
			Alert:    &pages.Alert{Kind: pages.AlertError, Message: i18n.T(r.Context(), "alert.session_save_failed")},
		}), h.logger)
		return
	}

	h.logger.Debug("Сессия создана", slog.String("username", user.UserName))
	http.Redirect(w, r, MenuPath, http.StatusSeeOther)
}

// loginFailure возвращает HTTP-статус и ключ сообщения для ошибки входа.
func loginFailure(err error) (int, string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "validation.credentials_required"
	case errors.Is(err, service.ErrAuthFailure):
		return http.StatusUnauthorized, "alert.invalid_credentials"
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable, "alert.auth_unavailable"
	default:
		return http.StatusInternalServerError, "alert.internal"
	}
}

// HandleLogout — POST /logout
// Удаляет токен из сессии, redirect на страницу входа.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.ForRequest(w, r).Clear(r.Context()); err != nil {
		h.logger.Warn("Ошибка очистки сессии", slog.String("error", err.Error()))
	}
	redirectWithAlert(w, r, "/", pages.AlertInfo, i18n.T(r.Context(), "alert.logged_out"))
}

// HandleUnauthorized — GET /pages/unauthorized
func (h *AuthHandler) HandleUnauthorized(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusForbidden, pages.Unauthorized(popFlash(w, r)), h.logger)
}
