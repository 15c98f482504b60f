// events.go — SSE endpoint со снимками списка товаров.
// Каждый SSE-клиент обслуживается отдельной горутиной и подписан на снимки,
// пока открыто соединение.
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bigkaa/goartstore/catalog-admin/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-admin/internal/service"
	"github.com/bigkaa/goartstore/catalog-admin/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/goartstore/catalog-admin/internal/ui/middleware"
	"github.com/bigkaa/goartstore/catalog-admin/internal/ui/pages"
)

// EventsHandler — обработчик SSE обновлений списка товаров.
type EventsHandler struct {
	products    *service.ProductService
	snapshot    *service.Snapshot
	sseInterval time.Duration
	logger      *slog.Logger
}

// NewEventsHandler создаёт новый EventsHandler.
// sseInterval — интервал keepalive-комментариев (CA_SSE_INTERVAL).
func NewEventsHandler(
	products *service.ProductService,
	snapshot *service.Snapshot,
	sseInterval time.Duration,
	logger *slog.Logger,
) *EventsHandler {
	return &EventsHandler{
		products:    products,
		snapshot:    snapshot,
		sseInterval: sseInterval,
		logger:      logger.With(slog.String("component", "ui.events")),
	}
}

// productsEvent — SSE-событие со снимком списка товаров.
type productsEvent struct {
	Signature string             `json:"signature"`
	Total     int                `json:"total"`
	Products  []productEventItem `json:"products"`
}

// productEventItem — товар в SSE-событии.
type productEventItem struct {
	ID            string  `json:"id"`
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	ExtendedPrice float64 `json:"extendedPrice"`
	Stock         int     `json:"stock"`
	Image         string  `json:"image,omitempty"`
}

// HandleProducts обрабатывает GET /products/events — SSE endpoint.
// Формат: event: products\ndata: {json}\n\n. Новый клиент сразу получает
// текущий снимок. Отключение клиента отменяет подписку, но не операции,
// опубликовавшие снимок.
func (h *EventsHandler) HandleProducts(w http.ResponseWriter, r *http.Request) {
	user := uimiddleware.UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	// ResponseController находит http.Flusher через Unwrap() обёрток middleware.
	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		http.Error(w, "SSE не поддерживается", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	updates, unsubscribe := h.snapshot.Subscribe()
	defer unsubscribe()

	h.logger.Debug("SSE клиент подключён",
		slog.String("username", user.UserName),
		slog.String("remote_addr", r.RemoteAddr),
	)

	// Снимка ещё нет: первое чтение списка опубликует его.
	if _, ok := h.snapshot.Current(); !ok {
		if _, err := h.products.List(ctx, user); err != nil {
			h.logger.Warn("Ошибка получения списка для SSE", slog.String("error", err.Error()))
			fmt.Fprintf(w, "event: error\ndata: %q\n\n", i18n.T(ctx, msgUnavailable))
			_ = rc.Flush()
		}
	}

	ticker := time.NewTicker(h.sseInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("SSE клиент отключён", slog.String("username", user.UserName))
			return
		case products, ok := <-updates:
			if !ok {
				return
			}
			h.sendProducts(w, rc, products)
		case <-ticker.C:
			fmt.Fprint(w, ": keepalive\n\n")
			_ = rc.Flush()
		}
	}
}

// sendProducts отправляет SSE-событие со снимком.
func (h *EventsHandler) sendProducts(w http.ResponseWriter, rc *http.ResponseController, products []model.Product) {
	event := productsEvent{
		Signature: pages.Signature(products),
		Total:     len(products),
		Products:  make([]productEventItem, 0, len(products)),
	}
	for i := range products {
		p := &products[i]
		item := productEventItem{
			ID:            p.ID,
			Code:          p.Code,
			Name:          p.Name,
			Price:         p.Price,
			ExtendedPrice: p.ExtendedPrice,
			Stock:         p.Stock,
		}
		if img, ok := p.MainImage(); ok {
			item.Image = pages.ImageSrc(img)
		}
		event.Products = append(event.Products, item)
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Ошибка сериализации products", slog.String("error", err.Error()))
		return
	}

	fmt.Fprintf(w, "event: products\ndata: %s\n\n", data)
	_ = rc.Flush()
}
