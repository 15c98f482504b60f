// Пакет repository — хранилище товаров каталога.
// Два варианта с одним контрактом: локальный (key/value хранилище)
// и удалённый (REST API каталога).
package repository

import (
	"context"
	"errors"

	"github.com/bigkaa/goartstore/catalog-admin/internal/domain/model"
)

// Ошибки слоя репозиториев.
var (
	// ErrNotFound — товар или изображение не найдены.
	ErrNotFound = errors.New("запись не найдена")
)

// ProductRepository — хранилище товаров.
type ProductRepository interface {
	// List возвращает все товары.
	List(ctx context.Context) ([]model.Product, error)
	// GetByID возвращает товар по id. Если не найден — ErrNotFound.
	GetByID(ctx context.Context, id string) (*model.Product, error)
	// Create создаёт товар и возвращает сохранённую запись.
	Create(ctx context.Context, in model.ProductInput) (*model.Product, error)
	// Update применяет частичное обновление. Если не найден — ErrNotFound.
	Update(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error)
	// Delete удаляет товар. Если не найден — ErrNotFound.
	Delete(ctx context.Context, id string) error
}

// cloneProduct возвращает копию товара с собственным срезом изображений.
func cloneProduct(p *model.Product) *model.Product {
	c := *p
	c.Images = append([]model.Image(nil), p.Images...)
	return &c
}

// cloneProducts копирует список товаров.
func cloneProducts(products []model.Product) []model.Product {
	out := make([]model.Product, len(products))
	for i := range products {
		out[i] = *cloneProduct(&products[i])
	}
	return out
}
