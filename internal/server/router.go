package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apihandlers "github.com/bigkaa/goartstore/catalog-admin/internal/api/handlers"
	"github.com/bigkaa/goartstore/catalog-admin/internal/api/middleware"
	"github.com/bigkaa/goartstore/catalog-admin/internal/domain/rbac"
	uihandlers "github.com/bigkaa/goartstore/catalog-admin/internal/ui/handlers"
	"github.com/bigkaa/goartstore/catalog-admin/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/goartstore/catalog-admin/internal/ui/middleware"
	"github.com/bigkaa/goartstore/catalog-admin/internal/ui/static"
)

// Routes — обработчики, из которых собирается роутер.
type Routes struct {
	Guard    *uimiddleware.Guard
	Auth     *uihandlers.AuthHandler
	Menu     *uihandlers.MenuHandler
	Products *uihandlers.ProductsHandler
	Events   *uihandlers.EventsHandler
	Health   *apihandlers.HealthHandler
}

// NewRouter собирает роутер Admin UI. Каждая страница товаров закрыта
// Route Guard с разрешением, которого требует её операция.
func NewRouter(rt Routes, logger *slog.Logger) http.Handler {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))
	router.Use(i18n.Middleware())

	// Служебные endpoints
	router.Get("/health/live", rt.Health.HealthLive)
	router.Get("/health/ready", rt.Health.HealthReady)
	router.Get("/metrics", rt.Health.GetMetrics)
	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static.FileSystem())))

	// Публичные страницы
	router.Get("/", rt.Auth.HandleLoginPage)
	router.Post("/", rt.Auth.HandleLogin)
	router.Post("/logout", rt.Auth.HandleLogout)
	router.Post("/language", uihandlers.HandleSetLanguage)
	router.Get(uimiddleware.UnauthorizedPath, rt.Auth.HandleUnauthorized)

	// Меню — только действующая сессия
	router.With(rt.Guard.Require("")).Get(uihandlers.MenuPath, rt.Menu.HandleMenu)

	// Товары
	view := rt.Guard.Require(rbac.ProductsView)
	create := rt.Guard.Require(rbac.ProductsCreate)
	edit := rt.Guard.Require(rbac.ProductsEdit)
	remove := rt.Guard.Require(rbac.ProductsDelete)

	router.With(view).Get("/products", rt.Products.HandleIndex)
	router.With(view).Get(uihandlers.ProductsListPath, rt.Products.HandleList)
	router.With(view).Get("/products/view/{id}", rt.Products.HandleView)
	router.With(view).Get("/products/events", rt.Events.HandleProducts)
	router.With(view).Get("/images/{id}", rt.Products.HandleImage)

	router.With(create).Get("/products/create", rt.Products.HandleCreateForm)
	router.With(create).Post("/products/create", rt.Products.HandleCreate)
	// Загрузка изображения проверяет create/edit в сервисе
	router.With(rt.Guard.Require("")).Post("/products/images", rt.Products.HandleUploadImage)

	router.With(edit).Get("/products/edit/{id}", rt.Products.HandleEditForm)
	router.With(edit).Post("/products/edit/{id}", rt.Products.HandleEdit)
	router.With(edit).Post("/products/edit/{id}/images/{imageID}/main", rt.Products.HandleSetMainImage)
	router.With(edit).Post("/products/edit/{id}/images/{imageID}/remove", rt.Products.HandleRemoveImage)

	router.With(remove).Post("/products/delete/{id}", rt.Products.HandleDelete)

	return router
}
