// Пакет handlers — HTTP-обработчики Catalog Admin UI.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/bigkaa/goartstore/catalog-admin/internal/service"
	"github.com/bigkaa/goartstore/catalog-admin/internal/ui/auth"
	"github.com/bigkaa/goartstore/catalog-admin/internal/ui/i18n"
	"github.com/bigkaa/goartstore/catalog-admin/internal/ui/pages"
)

// Адреса страниц UI.
const (
	MenuPath         = "/layout/menu"
	ProductsListPath = "/products/list"
)

// Ключи уведомлений об ошибках.
const (
	msgSessionInvalid = "alert.session_invalid"
	msgForbidden      = "alert.forbidden"
	msgNotFound       = "alert.not_found"
	msgUnavailable    = "alert.unavailable"
)

// render отрисовывает компонент с указанным статусом.
func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component, logger *slog.Logger) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logger.Error("Ошибка рендеринга страницы",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
}

// failRedirect переводит ошибку сервиса в уведомление и redirect:
// недействительная сессия — очистка и вход, нет прав, не найдено,
// недоступность — список товаров.
func failRedirect(
	w http.ResponseWriter,
	r *http.Request,
	sessions *auth.SessionManager,
	logger *slog.Logger,
	err error,
) {
	switch {
	case errors.Is(err, service.ErrAuthFailure):
		if clearErr := sessions.ForRequest(w, r).Clear(r.Context()); clearErr != nil {
			logger.Warn("Ошибка очистки сессии", slog.String("error", clearErr.Error()))
		}
		redirectWithAlert(w, r, "/", pages.AlertError, i18n.T(r.Context(), msgSessionInvalid))
	case errors.Is(err, service.ErrPermissionDenied):
		redirectWithAlert(w, r, ProductsListPath, pages.AlertError, i18n.T(r.Context(), msgForbidden))
	case errors.Is(err, service.ErrNotFound):
		redirectWithAlert(w, r, ProductsListPath, pages.AlertError, i18n.T(r.Context(), msgNotFound))
	default:
		logger.Error("Ошибка операции с каталогом",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		redirectWithAlert(w, r, ProductsListPath, pages.AlertError, i18n.T(r.Context(), msgUnavailable))
	}
}
