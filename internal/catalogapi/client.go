// Пакет catalogapi — HTTP-клиент REST API каталога товаров.
// Операции: POST /auth, GET /getproducts, GET /getproducts/{id},
// POST /createproduct, PUT /updateproduct/{id}, DELETE /deleteproduct/{id}.
package catalogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Ошибки клиента.
var (
	// ErrNotFound — API вернул 404.
	ErrNotFound = errors.New("ресурс не найден в API каталога")
	// ErrUnauthorized — API отклонил учётные данные или токен (401/403).
	ErrUnauthorized = errors.New("API каталога отклонил авторизацию")
	// ErrRejected — API отклонил запрос (прочие 4xx).
	ErrRejected = errors.New("API каталога отклонил запрос")
	// ErrUnavailable — сетевая ошибка или 5xx.
	ErrUnavailable = errors.New("API каталога недоступен")
)

// TokenProvider — функция, возвращающая сессионный токен для изменяющих запросов.
type TokenProvider func(ctx context.Context) (string, error)

// Product — товар в формате API. Images[0] — основное изображение.
type Product struct {
	ID            string   `json:"_id"`
	Code          string   `json:"code,omitempty"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Images        []string `json:"images"`
	Price         float64  `json:"price"`
	ExtendedPrice float64  `json:"extendedPrice"`
	Stock         int      `json:"stock"`
}

// CreateRequest — тело POST /createproduct.
type CreateRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Images        []string `json:"images,omitempty"`
	Price         float64  `json:"price"`
	ExtendedPrice float64  `json:"extendedPrice"`
	Stock         int      `json:"stock"`
}

// UpdateRequest — тело PUT /updateproduct/{id}. nil — поле не меняется.
type UpdateRequest struct {
	Name          *string   `json:"name,omitempty"`
	Description   *string   `json:"description,omitempty"`
	Images        *[]string `json:"images,omitempty"`
	Price         *float64  `json:"price,omitempty"`
	ExtendedPrice *float64  `json:"extendedPrice,omitempty"`
	Stock         *int      `json:"stock,omitempty"`
}

// DeleteResponse — ответ DELETE /deleteproduct/{id}.
type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// AuthResponse — ответ POST /auth.
type AuthResponse struct {
	Token string `json:"token"`
}

// errorResponse — конверт ошибки {"error":{"code","message"}}.
type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client — HTTP-клиент REST API каталога.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	tokenProvider TokenProvider
	logger        *slog.Logger
}

// New создаёт клиент. tokenProvider может быть nil, если изменяющие
// операции не используются (stub, health check).
func New(baseURL string, timeout time.Duration, tokenProvider TokenProvider, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:       normalizeURL(baseURL),
		httpClient:    &http.Client{Timeout: timeout},
		tokenProvider: tokenProvider,
		logger:        logger.With(slog.String("component", "catalog_api_client")),
	}
}

// BaseURL возвращает базовый URL API.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Authenticate обменивает зашифрованные учётные данные на сессионный токен.
// POST /auth, Authorization: Bearer <credentials>, пустое тело.
func (c *Client) Authenticate(ctx context.Context, encryptedCredentials string) (string, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth", encryptedCredentials, nil, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("%w: пустой токен в ответе /auth", ErrUnauthorized)
	}
	return resp.Token, nil
}

// ListProducts возвращает все товары (GET /getproducts).
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.do(ctx, http.MethodGet, "/getproducts", "", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct возвращает товар по id (GET /getproducts/{id}).
func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	var p Product
	if err := c.do(ctx, http.MethodGet, "/getproducts/"+url.PathEscape(id), "", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct создаёт товар (POST /createproduct).
func (c *Client) CreateProduct(ctx context.Context, req CreateRequest) (*Product, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	var p Product
	if err := c.do(ctx, http.MethodPost, "/createproduct", token, req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProduct частично обновляет товар (PUT /updateproduct/{id}).
func (c *Client) UpdateProduct(ctx context.Context, id string, req UpdateRequest) (*Product, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	var p Product
	if err := c.do(ctx, http.MethodPut, "/updateproduct/"+url.PathEscape(id), token, req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProduct удаляет товар (DELETE /deleteproduct/{id}).
// Ответ success=false считается отказом API.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}
	var resp DeleteResponse
	if err := c.do(ctx, http.MethodDelete, "/deleteproduct/"+url.PathEscape(id), token, nil, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: %s", ErrRejected, resp.Message)
	}
	return nil
}

// CheckReady проверяет доступность API для /health/ready.
func (c *Client) CheckReady() (status string, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if _, err := c.ListProducts(ctx); err != nil {
		return "fail", fmt.Sprintf("API каталога недоступен: %v", err)
	}
	return "ok", "API каталога доступен"
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.tokenProvider == nil {
		return "", fmt.Errorf("%w: провайдер токена не задан", ErrUnauthorized)
	}
	token, err := c.tokenProvider(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return token, nil
}

// do выполняет запрос и декодирует JSON-ответ в out.
// bearer — значение для заголовка Authorization ("" — без заголовка).
func (c *Client) do(ctx context.Context, method, path, bearer string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("сериализация запроса %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("создание запроса %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Запрос к API каталога не выполнен",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Запрос к API каталога",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(method, path, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: декодирование ответа %s %s: %v", ErrUnavailable, method, path, err)
	}
	return nil
}

// statusError преобразует статус ответа в ошибку клиента.
func statusError(method, path string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	msg := strings.TrimSpace(string(raw))
	var envelope errorResponse
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error.Message != "" {
		msg = envelope.Error.Message
	}

	var kind error
	switch {
	case resp.StatusCode == http.StatusNotFound:
		kind = ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		kind = ErrUnauthorized
	case resp.StatusCode >= 500:
		kind = ErrUnavailable
	default:
		kind = ErrRejected
	}
	return fmt.Errorf("%w: %s %s вернул статус %d: %s", kind, method, path, resp.StatusCode, msg)
}

// normalizeURL убирает trailing slash из URL.
func normalizeURL(rawURL string) string {
	return strings.TrimRight(rawURL, "/")
}
