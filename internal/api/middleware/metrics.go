// metrics.go — Prometheus HTTP метрики для Catalog Admin и stub API каталога.
// Регистрирует метрики: ca_http_requests_total, ca_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ca_http_requests_total",
			Help: "Общее количество HTTP-запросов к Catalog Admin",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ca_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к Catalog Admin в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (заменяем идентификаторы на {id} для предотвращения кардинальности)
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Маршруты с идентификатором в последнем или предпоследнем сегменте.
var idRoutes = []struct {
	prefix string
	result string
}{
	{"/products/edit/", "/products/edit/{id}"},
	{"/products/view/", "/products/view/{id}"},
	{"/products/delete/", "/products/delete/{id}"},
	{"/images/", "/images/{id}"},
	{"/getproducts/", "/getproducts/{id}"},
	{"/updateproduct/", "/updateproduct/{id}"},
	{"/deleteproduct/", "/deleteproduct/{id}"},
}

// normalizePath заменяет идентификаторы в пути на {id} для предотвращения
// взрывного роста кардинальности метрик.
// /products/edit/a1b2c3d4-.../images/img_x/main → /products/edit/{id}/images/{imageId}/main
func normalizePath(path string) string {
	for _, route := range idRoutes {
		rest, ok := strings.CutPrefix(path, route.prefix)
		if !ok || rest == "" {
			continue
		}
		_, tail, hasTail := strings.Cut(rest, "/")
		if !hasTail {
			return route.result
		}
		// /products/edit/{id}/images/{imageId}/(main|remove)
		if imgRest, ok := strings.CutPrefix(tail, "images/"); ok {
			if _, action, ok := strings.Cut(imgRest, "/"); ok {
				return route.result + "/images/{imageId}/" + action
			}
			return route.result + "/images/{imageId}"
		}
		return route.result + "/" + tail
	}
	if strings.HasPrefix(path, "/static/") {
		return "/static/*"
	}
	return path
}
