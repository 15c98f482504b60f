package stubapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apierrors "github.com/bigkaa/goartstore/catalog-admin/internal/api/errors"
	"github.com/bigkaa/goartstore/catalog-admin/internal/catalogapi"
	"github.com/bigkaa/goartstore/catalog-admin/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-admin/internal/domain/rbac"
	"github.com/bigkaa/goartstore/catalog-admin/internal/kvstore"
	"github.com/bigkaa/goartstore/catalog-admin/internal/ui/auth"
)

// ProductsKey — ключ хранилища stub-сервера для товаров в формате API.
const ProductsKey = "catalog_api_products"

// errStoreUnavailable — хранилище stub-сервера не ответило.
var errStoreUnavailable = errors.New("хранилище каталога недоступно")

// Authenticator — эмитент токенов по зашифрованным учётным данным.
type Authenticator interface {
	Authenticate(ctx context.Context, encryptedCredentials string) (string, error)
}

// Handler — реализация ServerInterface поверх key/value хранилища.
// Изменяющие операции требуют Bearer-токен, подписанный общим секретом,
// и соответствующее разрешение.
type Handler struct {
	store  kvstore.Store
	issuer Authenticator
	secret string
	now    func() time.Time
	logger *slog.Logger

	mu sync.Mutex
}

// NewHandler создаёт обработчик stub API.
func NewHandler(store kvstore.Store, issuer Authenticator, secret string, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		issuer: issuer,
		secret: secret,
		now:    time.Now,
		logger: logger.With(slog.String("component", "stub_api")),
	}
}

// Authenticate — POST /auth.
func (h *Handler) Authenticate(w http.ResponseWriter, r *http.Request) {
	encrypted, ok := bearer(r)
	if !ok {
		apierrors.Unauthorized(w, "Требуется заголовок Authorization: Bearer")
		return
	}

	token, err := h.issuer.Authenticate(r.Context(), encrypted)
	if err != nil {
		apierrors.Unauthorized(w, "Credenciales inválidas")
		return
	}
	writeJSON(w, http.StatusOK, catalogapi.AuthResponse{Token: token})
}

// ListProducts — GET /getproducts.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	products, err := h.load(r.Context())
	h.mu.Unlock()
	if err != nil {
		h.internalError(w, "list", err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// GetProduct — GET /getproducts/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request, id string) {
	h.mu.Lock()
	products, err := h.load(r.Context())
	h.mu.Unlock()
	if err != nil {
		h.internalError(w, "get", err)
		return
	}

	idx := indexOf(products, id)
	if idx < 0 {
		apierrors.NotFound(w, "Producto no encontrado")
		return
	}
	writeJSON(w, http.StatusOK, products[idx])
}

// CreateProduct — POST /createproduct.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, rbac.ProductsCreate) {
		return
	}

	var req catalogapi.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса")
		return
	}

	code, err := model.NewProductCode()
	if err != nil {
		h.internalError(w, "create", err)
		return
	}
	product := catalogapi.Product{
		ID:            strings.ReplaceAll(uuid.NewString(), "-", "")[:24],
		Code:          code,
		Name:          req.Name,
		Description:   req.Description,
		Images:        req.Images,
		Price:         req.Price,
		ExtendedPrice: req.ExtendedPrice,
		Stock:         req.Stock,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	products, err := h.load(r.Context())
	if err != nil {
		h.internalError(w, "create", err)
		return
	}
	if err := h.save(r.Context(), append(products, product)); err != nil {
		h.internalError(w, "create", err)
		return
	}

	h.logger.Info("Товар создан", slog.String("id", product.ID))
	writeJSON(w, http.StatusOK, product)
}

// UpdateProduct — PUT /updateproduct/{id}.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request, id string) {
	if !h.authorize(w, r, rbac.ProductsEdit) {
		return
	}

	var req catalogapi.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	products, err := h.load(r.Context())
	if err != nil {
		h.internalError(w, "update", err)
		return
	}
	idx := indexOf(products, id)
	if idx < 0 {
		apierrors.NotFound(w, "Producto no encontrado")
		return
	}

	p := &products[idx]
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Images != nil {
		p.Images = *req.Images
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.ExtendedPrice != nil {
		p.ExtendedPrice = *req.ExtendedPrice
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}

	if err := h.save(r.Context(), products); err != nil {
		h.internalError(w, "update", err)
		return
	}

	h.logger.Info("Товар обновлён", slog.String("id", id))
	writeJSON(w, http.StatusOK, *p)
}

// DeleteProduct — DELETE /deleteproduct/{id}.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request, id string) {
	if !h.authorize(w, r, rbac.ProductsDelete) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	products, err := h.load(r.Context())
	if err != nil {
		h.internalError(w, "delete", err)
		return
	}
	idx := indexOf(products, id)
	if idx < 0 {
		apierrors.NotFound(w, "Producto no encontrado")
		return
	}

	if err := h.save(r.Context(), slices.Delete(products, idx, idx+1)); err != nil {
		h.internalError(w, "delete", err)
		return
	}

	h.logger.Info("Товар удалён", slog.String("id", id))
	writeJSON(w, http.StatusOK, catalogapi.DeleteResponse{Success: true, Message: "Producto eliminado"})
}

// Seed добавляет товары, если каталог пуст.
func (h *Handler) Seed(ctx context.Context, products []catalogapi.Product) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	existing, err := h.load(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	return h.save(ctx, products)
}

// authorize проверяет Bearer-токен и разрешение. При отказе пишет ответ и возвращает false.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, permission string) bool {
	token, ok := bearer(r)
	if !ok {
		apierrors.Unauthorized(w, "Требуется заголовок Authorization: Bearer")
		return false
	}

	user, err := auth.UserFromToken(token, h.secret, h.now())
	if err != nil {
		h.logger.Info("Запрос с недействительным токеном отклонён",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		apierrors.Unauthorized(w, "Token inválido o expirado")
		return false
	}

	if !rbac.NewSet(user.Permissions).Has(permission) {
		apierrors.Forbidden(w, fmt.Sprintf("Требуется разрешение %s", permission))
		return false
	}
	return true
}

func (h *Handler) load(ctx context.Context) ([]catalogapi.Product, error) {
	raw, err := h.store.Get(ctx, ProductsKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return []catalogapi.Product{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errStoreUnavailable, err)
	}
	var products []catalogapi.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("повреждённые данные товаров: %w", err)
	}
	if products == nil {
		products = []catalogapi.Product{}
	}
	return products, nil
}

func (h *Handler) save(ctx context.Context, products []catalogapi.Product) error {
	raw, err := json.Marshal(products)
	if err != nil {
		return err
	}
	if err := h.store.Set(ctx, ProductsKey, raw); err != nil {
		return fmt.Errorf("%w: %w", errStoreUnavailable, err)
	}
	return nil
}

// internalError логирует ошибку операции. Недоступность хранилища
// возвращается как 503 CATALOG_UNAVAILABLE, остальное — как 500.
func (h *Handler) internalError(w http.ResponseWriter, op string, err error) {
	h.logger.Error("Ошибка хранилища stub API",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	if errors.Is(err, errStoreUnavailable) {
		apierrors.CatalogUnavailable(w, "Хранилище каталога недоступно")
		return
	}
	apierrors.InternalError(w, "Внутренняя ошибка")
}

// bearer извлекает значение из заголовка Authorization: Bearer <value>.
func bearer(r *http.Request) (string, bool) {
	value, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

func indexOf(products []catalogapi.Product, id string) int {
	return slices.IndexFunc(products, func(p catalogapi.Product) bool { return p.ID == id })
}

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
