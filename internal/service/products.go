// products.go — сервис товаров каталога.
// Каждая операция принимает пользователя явно и сначала проверяет разрешение;
// без разрешения репозиторий не вызывается.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goartstore/catalog-admin/internal/catalogapi"
	"github.com/bigkaa/goartstore/catalog-admin/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-admin/internal/domain/rbac"
	"github.com/bigkaa/goartstore/catalog-admin/internal/repository"
)

// productOperationsTotal — счётчик операций с товарами по результату.
var productOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ca_product_operations_total",
		Help: "Общее количество операций с товарами.",
	},
	[]string{"op", "result"},
)

// ImageBlobs — хранилище загружаемых изображений (только локальный вариант).
type ImageBlobs interface {
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
	Get(ctx context.Context, id string) (*repository.ImageBlob, error)
}

// ProductService — операции с товарами с проверкой разрешений.
type ProductService struct {
	repo     repository.ProductRepository
	images   ImageBlobs
	snapshot *Snapshot
	logger   *slog.Logger
}

// NewProductService создаёт сервис товаров. images может быть nil
// (удалённый вариант: загрузка изображений недоступна).
func NewProductService(
	repo repository.ProductRepository,
	images ImageBlobs,
	snapshot *Snapshot,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		repo:     repo,
		images:   images,
		snapshot: snapshot,
		logger:   logger.With(slog.String("component", "product_service")),
	}
}

// SupportsUpload сообщает, доступна ли загрузка изображений.
func (s *ProductService) SupportsUpload() bool {
	return s.images != nil
}

// List возвращает все товары. Требует products-view.
// Снимок для подписчиков публикуется только при первом чтении; дальше
// его обновляют мутации, и чтение, конкурирующее с мутацией, не может
// заменить более свежий снимок.
func (s *ProductService) List(ctx context.Context, user *model.User) ([]model.Product, error) {
	if err := authorize(user, rbac.ProductsView); err != nil {
		return nil, s.result("list", err)
	}
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.result("list", mapRepoError(err))
	}
	s.snapshot.PublishInitial(products)
	return products, s.result("list", nil)
}

// Get возвращает товар по id. Требует products-view.
func (s *ProductService) Get(ctx context.Context, user *model.User, id string) (*model.Product, error) {
	if err := authorize(user, rbac.ProductsView); err != nil {
		return nil, s.result("get", err)
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.result("get", mapRepoError(err))
	}
	return p, s.result("get", nil)
}

// Create создаёт товар. Требует products-create.
// Обязательные поля проверяются до обращения к хранилищу.
func (s *ProductService) Create(ctx context.Context, user *model.User, in model.ProductInput) (*model.Product, error) {
	if err := authorize(user, rbac.ProductsCreate); err != nil {
		return nil, s.result("create", err)
	}
	if err := validateCreate(in); err != nil {
		return nil, s.result("create", err)
	}

	p, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, s.result("create", mapRepoError(err))
	}

	s.logger.Info("Товар создан",
		slog.String("id", p.ID),
		slog.String("name", p.Name),
		slog.String("user", user.UserName),
	)
	s.refresh(ctx)
	return p, s.result("create", nil)
}

// Update применяет частичное обновление. Требует products-edit.
func (s *ProductService) Update(ctx context.Context, user *model.User, id string, patch model.ProductPatch) (*model.Product, error) {
	if err := authorize(user, rbac.ProductsEdit); err != nil {
		return nil, s.result("update", err)
	}
	if err := validatePatch(patch); err != nil {
		return nil, s.result("update", err)
	}
	if patch.IsEmpty() {
		p, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, s.result("update", mapRepoError(err))
		}
		return p, s.result("update", nil)
	}

	p, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, s.result("update", mapRepoError(err))
	}

	s.logger.Info("Товар обновлён",
		slog.String("id", id),
		slog.String("user", user.UserName),
	)
	s.refresh(ctx)
	return p, s.result("update", nil)
}

// Delete удаляет товар. Требует products-delete.
func (s *ProductService) Delete(ctx context.Context, user *model.User, id string) error {
	if err := authorize(user, rbac.ProductsDelete); err != nil {
		return s.result("delete", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.result("delete", mapRepoError(err))
	}

	s.logger.Info("Товар удалён",
		slog.String("id", id),
		slog.String("user", user.UserName),
	)
	s.refresh(ctx)
	return s.result("delete", nil)
}

// SetMainImage делает изображение основным. Требует products-edit.
func (s *ProductService) SetMainImage(ctx context.Context, user *model.User, id, imageID string) (*model.Product, error) {
	return s.changeImages(ctx, user, id, "set_main_image", func(p *model.Product) bool {
		return p.SetMainImage(imageID)
	})
}

// RemoveImage удаляет изображение товара. Последнее изображение удалить нельзя.
// Требует products-edit.
func (s *ProductService) RemoveImage(ctx context.Context, user *model.User, id, imageID string) (*model.Product, error) {
	return s.changeImages(ctx, user, id, "remove_image", func(p *model.Product) bool {
		_, ok := p.RemoveImage(imageID)
		return ok
	})
}

func (s *ProductService) changeImages(
	ctx context.Context,
	user *model.User,
	id, op string,
	change func(p *model.Product) bool,
) (*model.Product, error) {
	if err := authorize(user, rbac.ProductsEdit); err != nil {
		return nil, s.result(op, err)
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.result(op, mapRepoError(err))
	}
	if !change(p) {
		return nil, s.result(op, fmt.Errorf("изображение товара %s: %w", id, ErrNotFound))
	}

	refs := p.ImageRefs()
	if err := validatePatch(model.ProductPatch{Images: &refs}); err != nil {
		return nil, s.result(op, err)
	}
	updated, err := s.repo.Update(ctx, id, model.ProductPatch{Images: &refs})
	if err != nil {
		return nil, s.result(op, mapRepoError(err))
	}
	s.refresh(ctx)
	return updated, s.result(op, nil)
}

// UploadImage сохраняет загруженное изображение и возвращает его ключ.
// Требует products-create или products-edit.
func (s *ProductService) UploadImage(ctx context.Context, user *model.User, name, contentType string, data []byte) (string, error) {
	set := rbac.NewSet(userPermissions(user))
	if !set.CanCreateOrEdit() {
		return "", s.result("upload_image", fmt.Errorf("загрузка изображения: %w", ErrPermissionDenied))
	}
	if s.images == nil {
		return "", s.result("upload_image", &ValidationError{Fields: map[string]string{
			"images": "validation.upload_unavailable",
		}})
	}
	if len(data) == 0 {
		return "", s.result("upload_image", &ValidationError{Fields: map[string]string{
			"images": "validation.upload_empty",
		}})
	}
	if !IsImageContentType(contentType) {
		return "", s.result("upload_image", &ValidationError{Fields: map[string]string{
			"images": "validation.upload_not_image",
		}})
	}

	id, err := s.images.Save(ctx, name, contentType, data)
	if err != nil {
		return "", s.result("upload_image", fmt.Errorf("%w: %w", ErrUnavailable, err))
	}
	return id, s.result("upload_image", nil)
}

// Image возвращает сохранённое изображение. Требует products-view.
func (s *ProductService) Image(ctx context.Context, user *model.User, id string) (*repository.ImageBlob, error) {
	if err := authorize(user, rbac.ProductsView); err != nil {
		return nil, err
	}
	if s.images == nil {
		return nil, fmt.Errorf("изображение %s: %w", id, ErrNotFound)
	}
	blob, err := s.images.Get(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return blob, nil
}

// refresh публикует актуальный список после мутации.
// Ошибка чтения не влияет на результат мутации.
func (s *ProductService) refresh(ctx context.Context) {
	products, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Warn("Не удалось обновить снимок товаров",
			slog.String("error", err.Error()),
		)
		return
	}
	s.snapshot.Publish(products)
}

// result учитывает операцию в метриках и возвращает err без изменений.
func (s *ProductService) result(op string, err error) error {
	productOperationsTotal.WithLabelValues(op, resultLabel(err)).Inc()
	return err
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrPermissionDenied):
		return "denied"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAuthFailure):
		return "unauthorized"
	default:
		return "error"
	}
}

// authorize проверяет наличие разрешения у пользователя.
func authorize(user *model.User, permission string) error {
	if !rbac.NewSet(userPermissions(user)).Has(permission) {
		return fmt.Errorf("%s: %w", permission, ErrPermissionDenied)
	}
	return nil
}

func userPermissions(user *model.User) []string {
	if user == nil {
		return nil
	}
	return user.Permissions
}

// mapRepoError приводит ошибки репозиториев и API к ошибкам сервиса.
func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, catalogapi.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, catalogapi.ErrUnauthorized):
		return fmt.Errorf("%w: %w", ErrAuthFailure, err)
	case errors.Is(err, catalogapi.ErrRejected):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	default:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
}
