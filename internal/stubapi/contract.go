// Пакет stubapi — stub-сервер REST API каталога для разработки и e2e-тестов.
// Контракт описан в openapi.yaml (встроен в бинарник); запросы проверяются
// по контракту до попадания в обработчики.
package stubapi

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	apierrors "github.com/bigkaa/goartstore/catalog-admin/internal/api/errors"
)

//go:embed openapi.yaml
var openapiYAML []byte

// GetSwagger загружает и проверяет встроенный OpenAPI контракт.
func GetSwagger() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openapiYAML)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки OpenAPI контракта: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("некорректный OpenAPI контракт: %w", err)
	}
	return doc, nil
}

// ServerInterface — операции API каталога.
type ServerInterface interface {
	// POST /auth
	Authenticate(w http.ResponseWriter, r *http.Request)
	// GET /getproducts
	ListProducts(w http.ResponseWriter, r *http.Request)
	// GET /getproducts/{id}
	GetProduct(w http.ResponseWriter, r *http.Request, id string)
	// POST /createproduct
	CreateProduct(w http.ResponseWriter, r *http.Request)
	// PUT /updateproduct/{id}
	UpdateProduct(w http.ResponseWriter, r *http.Request, id string)
	// DELETE /deleteproduct/{id}
	DeleteProduct(w http.ResponseWriter, r *http.Request, id string)
}

// HandlerFromMux регистрирует операции ServerInterface в chi-роутере.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	r.Post("/auth", si.Authenticate)
	r.Get("/getproducts", si.ListProducts)
	r.Get("/getproducts/{id}", withID(si.GetProduct))
	r.Post("/createproduct", si.CreateProduct)
	r.Put("/updateproduct/{id}", withID(si.UpdateProduct))
	r.Delete("/deleteproduct/{id}", withID(si.DeleteProduct))
	return r
}

// withID извлекает path-параметр id по правилам OpenAPI (style: simple).
func withID(next func(w http.ResponseWriter, r *http.Request, id string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var id string
		err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
			runtime.BindStyledParameterOptions{
				ParamLocation: runtime.ParamLocationPath,
				Explode:       false,
				Required:      true,
			})
		if err != nil {
			apierrors.ValidationError(w, fmt.Sprintf("Некорректный параметр id: %s", err))
			return
		}
		next(w, r, id)
	}
}

// OpenAPIValidator возвращает middleware, проверяющий запросы по контракту:
// известный путь и метод, path-параметры, тело запроса. Аутентификация
// проверяется обработчиками.
func OpenAPIValidator(doc *openapi3.T) (func(http.Handler) http.Handler, error) {
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания роутера OpenAPI: %w", err)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				switch {
				case errors.Is(err, routers.ErrPathNotFound):
					// Служебные пути (/health/*, /metrics) вне контракта
					next.ServeHTTP(w, r)
				case errors.Is(err, routers.ErrMethodNotAllowed):
					apierrors.WriteError(w, http.StatusMethodNotAllowed, apierrors.CodeValidationError, "Метод не поддерживается")
				default:
					apierrors.ValidationError(w, err.Error())
				}
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options: &openapi3filter.Options{
					AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
					MultiError:         false,
				},
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				apierrors.ValidationError(w, validationMessage(err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}

// validationMessage возвращает краткое описание ошибки валидации.
func validationMessage(err error) string {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) && reqErr.Reason != "" {
		if reqErr.Parameter != nil {
			return fmt.Sprintf("Параметр %s: %s", reqErr.Parameter.Name, reqErr.Reason)
		}
		return reqErr.Reason
	}
	return err.Error()
}
