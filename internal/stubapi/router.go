package stubapi

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/goartstore/catalog-admin/internal/api/handlers"
	"github.com/bigkaa/goartstore/catalog-admin/internal/api/middleware"
)

// NewRouter собирает роутер stub API: метрики, логирование, проверка
// по OpenAPI контракту, операции каталога и служебные endpoints.
func NewRouter(h *Handler, health *handlers.HealthHandler, logger *slog.Logger) (http.Handler, error) {
	doc, err := GetSwagger()
	if err != nil {
		return nil, err
	}
	validator, err := OpenAPIValidator(doc)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания валидатора: %w", err)
	}

	router := chi.NewRouter()
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))
	router.Use(validator)

	router.Get("/health/live", health.HealthLive)
	router.Get("/health/ready", health.HealthReady)
	router.Get("/metrics", health.GetMetrics)

	return HandlerFromMux(h, router), nil
}
