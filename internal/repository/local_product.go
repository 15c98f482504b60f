package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/goartstore/catalog-admin/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-admin/internal/kvstore"
)

// ProductsKey — ключ хранилища для JSON-массива товаров.
const ProductsKey = "silvifrid_products"

// LocalProductRepository — товары в key/value хранилище.
// Список загружается один раз при первом обращении, каждая мутация
// перезаписывает массив целиком.
type LocalProductRepository struct {
	store  kvstore.Store
	images *ImageStore
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	loaded   bool
	products []model.Product
}

// NewLocalProductRepository создаёт локальный репозиторий товаров.
func NewLocalProductRepository(store kvstore.Store, images *ImageStore, logger *slog.Logger) *LocalProductRepository {
	return &LocalProductRepository{
		store:  store,
		images: images,
		logger: logger.With(slog.String("component", "local_products")),
		now:    time.Now,
	}
}

// Images возвращает хранилище изображений репозитория.
func (r *LocalProductRepository) Images() *ImageStore {
	return r.images
}

// List возвращает все товары в порядке создания.
func (r *LocalProductRepository) List(ctx context.Context) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return cloneProducts(r.products), nil
}

// GetByID возвращает товар по id.
func (r *LocalProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	idx := r.indexOf(id)
	if idx < 0 {
		return nil, fmt.Errorf("товар %s: %w", id, ErrNotFound)
	}
	return cloneProduct(&r.products[idx]), nil
}

// Create создаёт товар с новым UUID и артикулом.
func (r *LocalProductRepository) Create(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	code, err := model.NewProductCode()
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации артикула: %w", err)
	}

	now := r.now().UTC()
	p := model.Product{
		ID:            uuid.NewString(),
		Code:          code,
		Name:          in.Name,
		Description:   in.Description,
		Images:        model.ImagesFromRefs(in.Images, r.isStored(ctx)),
		Price:         in.Price,
		ExtendedPrice: in.ExtendedPrice,
		Stock:         in.Stock,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	products := append(cloneProducts(r.products), p)
	if err := r.persist(ctx, products); err != nil {
		return nil, err
	}

	r.logger.Debug("Товар создан",
		slog.String("id", p.ID),
		slog.String("code", p.Code),
	)
	return cloneProduct(&p), nil
}

// Update применяет частичное обновление. Сохранённые изображения,
// исключённые обновлением, удаляются из хранилища изображений.
func (r *LocalProductRepository) Update(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	idx := r.indexOf(id)
	if idx < 0 {
		return nil, fmt.Errorf("товар %s: %w", id, ErrNotFound)
	}

	products := cloneProducts(r.products)
	p := &products[idx]
	var dropped []string

	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.ExtendedPrice != nil {
		p.ExtendedPrice = *patch.ExtendedPrice
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Images != nil {
		next := model.ImagesFromRefs(*patch.Images, r.isStored(ctx))
		dropped = droppedBlobs(p.Images, next)
		p.Images = next
	}
	p.UpdatedAt = r.now().UTC()

	if err := r.persist(ctx, products); err != nil {
		return nil, err
	}

	if err := r.images.Remove(ctx, dropped...); err != nil {
		r.logger.Warn("Не удалось удалить изображения товара",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
	}
	return cloneProduct(&r.products[idx]), nil
}

// Delete удаляет товар и его сохранённые изображения.
func (r *LocalProductRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureLoaded(ctx); err != nil {
		return err
	}
	idx := r.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("товар %s: %w", id, ErrNotFound)
	}

	removed := r.products[idx]
	products := slices.Delete(cloneProducts(r.products), idx, idx+1)
	if err := r.persist(ctx, products); err != nil {
		return err
	}

	if err := r.images.Remove(ctx, droppedBlobs(removed.Images, nil)...); err != nil {
		r.logger.Warn("Не удалось удалить изображения товара",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
	}
	r.logger.Debug("Товар удалён", slog.String("id", id))
	return nil
}

// ClearAll удаляет все товары и изображения.
func (r *LocalProductRepository) ClearAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Delete(ctx, ProductsKey); err != nil {
		return fmt.Errorf("ошибка очистки товаров: %w", err)
	}
	if err := r.images.Clear(ctx); err != nil {
		return err
	}
	r.products = nil
	r.loaded = true
	r.logger.Info("Локальные данные каталога очищены")
	return nil
}

// Demo-изображения товара по умолчанию.
var demoImageURLs = []string{
	"https://res.cloudinary.com/dlcfifnqw/image/upload/v1716766165/silvifrid/Productos/victoria%20secret/aqua%20kiss/gma6zkucwdrlbqvipijh.jpg",
	"https://res.cloudinary.com/dlcfifnqw/image/upload/v1716767605/silvifrid/Productos/victoria%20secret/varias/einmgayrrprv2la7prhl.jpg",
	"https://res.cloudinary.com/dlcfifnqw/image/upload/v1716767604/silvifrid/Productos/victoria%20secret/varias/qkdlbxvuo09a4ftjy6gv.jpg",
}

// DemoImageURLs возвращает адреса demo-изображений (предлагаются в форме товара).
func DemoImageURLs() []string {
	return slices.Clone(demoImageURLs)
}

// DemoProduct возвращает demo-товар для пустого каталога.
func DemoProduct() model.ProductInput {
	return model.ProductInput{
		Name:          "Victoria's Secret Paris Hilton tradicional",
		Description:   "Fragancia floral frutal de larga duración. Presentación de 100 ml.",
		Price:         22000,
		ExtendedPrice: 20000,
		Stock:         10,
		Images:        DemoImageURLs(),
	}
}

// SeedDemoData добавляет demo-товар, если каталог пуст.
// Возвращает true, если товар был добавлен.
func (r *LocalProductRepository) SeedDemoData(ctx context.Context) (bool, error) {
	products, err := r.List(ctx)
	if err != nil {
		return false, err
	}
	if len(products) > 0 {
		return false, nil
	}

	if _, err := r.Create(ctx, DemoProduct()); err != nil {
		return false, err
	}
	r.logger.Info("Demo-данные каталога добавлены")
	return true, nil
}

// ensureLoaded загружает список товаров при первом обращении.
// Повреждённое значение логируется, каталог считается пустым.
func (r *LocalProductRepository) ensureLoaded(ctx context.Context) error {
	if r.loaded {
		return nil
	}

	raw, err := r.store.Get(ctx, ProductsKey)
	switch {
	case errors.Is(err, kvstore.ErrNotFound):
		r.products = nil
	case err != nil:
		return fmt.Errorf("ошибка чтения товаров: %w", err)
	default:
		var products []model.Product
		if err := json.Unmarshal(raw, &products); err != nil {
			r.logger.Error("Повреждённые данные товаров, каталог будет пустым",
				slog.String("key", ProductsKey),
				slog.String("error", err.Error()),
			)
			products = nil
		}
		for i := range products {
			products[i].NormalizeImages()
		}
		r.products = products
	}

	r.loaded = true
	return nil
}

// persist записывает массив товаров и при успехе заменяет состояние в памяти.
func (r *LocalProductRepository) persist(ctx context.Context, products []model.Product) error {
	if products == nil {
		products = []model.Product{}
	}
	raw, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("ошибка сериализации товаров: %w", err)
	}
	if err := r.store.Set(ctx, ProductsKey, raw); err != nil {
		return fmt.Errorf("ошибка записи товаров: %w", err)
	}
	r.products = products
	return nil
}

func (r *LocalProductRepository) indexOf(id string) int {
	for i := range r.products {
		if r.products[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *LocalProductRepository) isStored(ctx context.Context) func(string) bool {
	return func(ref string) bool {
		return r.images.Exists(ctx, ref)
	}
}

// droppedBlobs возвращает ключи сохранённых изображений из prev, которых нет в next.
func droppedBlobs(prev, next []model.Image) []string {
	var ids []string
	for _, img := range prev {
		if !img.Stored {
			continue
		}
		if slices.ContainsFunc(next, func(n model.Image) bool { return n.Stored && n.ID == img.ID }) {
			continue
		}
		ids = append(ids, img.ID)
	}
	return ids
}
