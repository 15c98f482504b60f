// menu.go — главное меню администратора.
package handlers

import (
	"log/slog"
	"net/http"

	uimiddleware "github.com/bigkaa/goartstore/catalog-admin/internal/ui/middleware"
	"github.com/bigkaa/goartstore/catalog-admin/internal/ui/pages"
)

// MenuHandler — обработчик главного меню.
type MenuHandler struct {
	logger *slog.Logger
}

// NewMenuHandler создаёт новый MenuHandler.
func NewMenuHandler(logger *slog.Logger) *MenuHandler {
	return &MenuHandler{logger: logger.With(slog.String("component", "ui.menu"))}
}

// HandleMenu — GET /layout/menu
// Пункты меню берутся из permissionsData токена.
func (h *MenuHandler) HandleMenu(w http.ResponseWriter, r *http.Request) {
	user := uimiddleware.UserFromContext(r.Context())
	if user == nil {
		http.Redirect(w, r, uimiddleware.UnauthorizedPath, http.StatusFound)
		return
	}
	render(w, r, http.StatusOK, pages.Menu(pages.MenuData{
		User:  user,
		Token: uimiddleware.TokenFromContext(r.Context()),
		Alert: popFlash(w, r),
	}), h.logger)
}
