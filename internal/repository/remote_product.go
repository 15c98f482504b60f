package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goartstore/catalog-admin/internal/catalogapi"
	"github.com/bigkaa/goartstore/catalog-admin/internal/domain/model"
)

// Prometheus-метрики кэша удалённого репозитория.
var (
	remoteCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ca_remote_cache_hits_total",
		Help: "Общее количество попаданий в кэш товаров API каталога.",
	})
	remoteCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ca_remote_cache_misses_total",
		Help: "Общее количество промахов кэша товаров API каталога.",
	})
)

// CatalogAPI — операции REST API каталога, используемые репозиторием.
type CatalogAPI interface {
	ListProducts(ctx context.Context) ([]catalogapi.Product, error)
	GetProduct(ctx context.Context, id string) (*catalogapi.Product, error)
	CreateProduct(ctx context.Context, req catalogapi.CreateRequest) (*catalogapi.Product, error)
	UpdateProduct(ctx context.Context, id string, req catalogapi.UpdateRequest) (*catalogapi.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

const listCacheKey = "*"

// RemoteProductRepository — товары в REST API каталога.
// Без кэша каждый вызов выполняет HTTP-запрос. С кэшем (ttl > 0) чтения
// обслуживаются из LRU, любая мутация очищает кэш целиком.
type RemoteProductRepository struct {
	api    CatalogAPI
	cache  *expirable.LRU[string, []model.Product]
	logger *slog.Logger
}

// NewRemoteProductRepository создаёт удалённый репозиторий.
// cacheTTL <= 0 отключает кэш.
func NewRemoteProductRepository(api CatalogAPI, cacheSize int, cacheTTL time.Duration, logger *slog.Logger) *RemoteProductRepository {
	r := &RemoteProductRepository{
		api:    api,
		logger: logger.With(slog.String("component", "remote_products")),
	}
	if cacheTTL > 0 {
		r.cache = expirable.NewLRU[string, []model.Product](cacheSize, nil, cacheTTL)
	}
	return r
}

// List возвращает все товары.
func (r *RemoteProductRepository) List(ctx context.Context) ([]model.Product, error) {
	if cached, ok := r.cached(listCacheKey); ok {
		return cached, nil
	}

	items, err := r.api.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение списка товаров: %w", err)
	}
	products := make([]model.Product, 0, len(items))
	for i := range items {
		products = append(products, toModel(&items[i]))
	}

	r.store(listCacheKey, products)
	return cloneProducts(products), nil
}

// GetByID возвращает товар по id.
func (r *RemoteProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	key := "id:" + id
	if cached, ok := r.cached(key); ok {
		return &cached[0], nil
	}

	item, err := r.api.GetProduct(ctx, id)
	if err != nil {
		return nil, mapAPIError(fmt.Sprintf("получение товара %s", id), err)
	}
	p := toModel(item)

	r.store(key, []model.Product{p})
	return cloneProduct(&p), nil
}

// Create создаёт товар через API.
func (r *RemoteProductRepository) Create(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	item, err := r.api.CreateProduct(ctx, catalogapi.CreateRequest{
		Name:          in.Name,
		Description:   in.Description,
		Images:        in.Images,
		Price:         in.Price,
		ExtendedPrice: in.ExtendedPrice,
		Stock:         in.Stock,
	})
	r.purge()
	if err != nil {
		return nil, fmt.Errorf("создание товара: %w", err)
	}
	p := toModel(item)
	return &p, nil
}

// Update передаёт в API только изменённые поля.
func (r *RemoteProductRepository) Update(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error) {
	item, err := r.api.UpdateProduct(ctx, id, catalogapi.UpdateRequest{
		Name:          patch.Name,
		Description:   patch.Description,
		Images:        patch.Images,
		Price:         patch.Price,
		ExtendedPrice: patch.ExtendedPrice,
		Stock:         patch.Stock,
	})
	r.purge()
	if err != nil {
		return nil, mapAPIError(fmt.Sprintf("обновление товара %s", id), err)
	}
	p := toModel(item)
	return &p, nil
}

// Delete удаляет товар через API.
func (r *RemoteProductRepository) Delete(ctx context.Context, id string) error {
	err := r.api.DeleteProduct(ctx, id)
	r.purge()
	if err != nil {
		return mapAPIError(fmt.Sprintf("удаление товара %s", id), err)
	}
	return nil
}

// cached возвращает копию значения из кэша.
func (r *RemoteProductRepository) cached(key string) ([]model.Product, bool) {
	if r.cache == nil {
		return nil, false
	}
	val, ok := r.cache.Get(key)
	if !ok {
		remoteCacheMissesTotal.Inc()
		return nil, false
	}
	remoteCacheHitsTotal.Inc()
	return cloneProducts(val), true
}

func (r *RemoteProductRepository) store(key string, products []model.Product) {
	if r.cache == nil {
		return
	}
	r.cache.Add(key, cloneProducts(products))
}

// purge очищает кэш после мутации (в том числе неуспешной: состояние API неизвестно).
func (r *RemoteProductRepository) purge() {
	if r.cache == nil {
		return
	}
	r.cache.Purge()
	r.logger.Debug("Кэш товаров очищен")
}

// mapAPIError приводит ErrNotFound клиента API к ErrNotFound репозитория.
func mapAPIError(op string, err error) error {
	if errors.Is(err, catalogapi.ErrNotFound) {
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// toModel преобразует товар API в доменную модель.
// Все изображения API — внешние ссылки, первое — основное.
func toModel(p *catalogapi.Product) model.Product {
	return model.Product{
		ID:            p.ID,
		Code:          p.Code,
		Name:          p.Name,
		Description:   p.Description,
		Images:        model.ImagesFromRefs(p.Images, nil),
		Price:         p.Price,
		ExtendedPrice: p.ExtendedPrice,
		Stock:         p.Stock,
	}
}
