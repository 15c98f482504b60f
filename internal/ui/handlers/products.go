// products.go — страницы товаров: список, карточка, создание, редактирование,
// удаление, управление изображениями.
package handlers

import (
	"errors"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/goartstore/catalog-admin/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-admin/internal/domain/rbac"
	"github.com/bigkaa/goartstore/catalog-admin/internal/service"
	"github.com/bigkaa/goartstore/catalog-admin/internal/ui/auth"
	"github.com/bigkaa/goartstore/catalog-admin/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/goartstore/catalog-admin/internal/ui/middleware"
	"github.com/bigkaa/goartstore/catalog-admin/internal/ui/pages"
)

// DefaultMaxUpload — максимальный размер загружаемого изображения (5 МБ).
const DefaultMaxUpload = 5 << 20

// ProductsHandler — обработчики страниц товаров.
type ProductsHandler struct {
	products   *service.ProductService
	sessions   *auth.SessionManager
	demoImages []string
	// maxUpload — максимальный размер загружаемого изображения в байтах
	maxUpload int64
	logger    *slog.Logger
}

// NewProductsHandler создаёт новый ProductsHandler.
// demoImages — адреса, предлагаемые в форме товара.
func NewProductsHandler(
	products *service.ProductService,
	sessions *auth.SessionManager,
	demoImages []string,
	maxUpload int64,
	logger *slog.Logger,
) *ProductsHandler {
	return &ProductsHandler{
		products:   products,
		sessions:   sessions,
		demoImages: demoImages,
		maxUpload:  maxUpload,
		logger:     logger.With(slog.String("component", "ui.products")),
	}
}

// HandleIndex — GET /products
func (h *ProductsHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, ProductsListPath, http.StatusFound)
}

// HandleList — GET /products/list
// Ошибка чтения каталога показывается баннером на пустом списке.
func (h *ProductsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := uimiddleware.UserFromContext(r.Context())
	alert := popFlash(w, r)

	products, err := h.products.List(r.Context(), user)
	if err != nil {
		if errors.Is(err, service.ErrAuthFailure) || errors.Is(err, service.ErrPermissionDenied) {
			failRedirect(w, r, h.sessions, h.logger, err)
			return
		}
		h.logger.Error("Ошибка получения списка товаров", slog.String("error", err.Error()))
		alert = &pages.Alert{Kind: pages.AlertError, Message: i18n.T(r.Context(), msgUnavailable)}
		products = nil
	}

	render(w, r, http.StatusOK, pages.ProductList(pages.ProductListData{
		User:     user,
		Products: products,
		Can:      permissionsOf(user),
		Alert:    alert,
	}), h.logger)
}

// HandleView — GET /products/view/{id}
func (h *ProductsHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	user := uimiddleware.UserFromContext(r.Context())

	p, err := h.products.Get(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		failRedirect(w, r, h.sessions, h.logger, err)
		return
	}
	render(w, r, http.StatusOK, pages.ProductView(user, p, permissionsOf(user), popFlash(w, r)), h.logger)
}

// HandleCreateForm — GET /products/create
func (h *ProductsHandler) HandleCreateForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, nil, pages.FormValues{}, nil, popFlash(w, r))
}

// HandleCreate — POST /products/create
// Форма проверяется до обращения к сервису; при ошибках форма
// показывается повторно с сообщениями у полей.
func (h *ProductsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := uimiddleware.UserFromContext(r.Context())

	values, in, upload, fieldErrs, ok := h.readForm(w, r)
	if !ok {
		return
	}
	if len(fieldErrs) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, nil, values, fieldErrs, nil)
		return
	}
	if err := h.storeUpload(r, upload, &values, &in); err != nil {
		h.formFailure(w, r, nil, values, err)
		return
	}

	p, err := h.products.Create(r.Context(), user, in)
	if err != nil {
		h.formFailure(w, r, nil, values, err)
		return
	}

	redirectWithAlert(w, r, viewPath(p.ID), pages.AlertSuccess, i18n.Tf(r.Context(), "alert.product_created", p.Name))
}

// HandleEditForm — GET /products/edit/{id}
func (h *ProductsHandler) HandleEditForm(w http.ResponseWriter, r *http.Request) {
	user := uimiddleware.UserFromContext(r.Context())

	p, err := h.products.Get(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		failRedirect(w, r, h.sessions, h.logger, err)
		return
	}
	h.renderForm(w, r, http.StatusOK, p, valuesOf(p), nil, popFlash(w, r))
}

// HandleEdit — POST /products/edit/{id}
// Сохраняет все поля формы частичным обновлением.
func (h *ProductsHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	user := uimiddleware.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	current, err := h.products.Get(r.Context(), user, id)
	if err != nil {
		failRedirect(w, r, h.sessions, h.logger, err)
		return
	}

	values, in, upload, fieldErrs, ok := h.readForm(w, r)
	if !ok {
		return
	}
	if len(fieldErrs) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, current, values, fieldErrs, nil)
		return
	}
	if err := h.storeUpload(r, upload, &values, &in); err != nil {
		h.formFailure(w, r, current, values, err)
		return
	}

	p, err := h.products.Update(r.Context(), user, id, model.ProductPatch{
		Name:          &in.Name,
		Description:   &in.Description,
		Price:         &in.Price,
		ExtendedPrice: &in.ExtendedPrice,
		Stock:         &in.Stock,
		Images:        &in.Images,
	})
	if err != nil {
		h.formFailure(w, r, current, values, err)
		return
	}

	redirectWithAlert(w, r, viewPath(p.ID), pages.AlertSuccess, i18n.T(r.Context(), "alert.product_saved"))
}

// HandleDelete — POST /products/delete/{id}
func (h *ProductsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user := uimiddleware.UserFromContext(r.Context())

	if err := h.products.Delete(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		failRedirect(w, r, h.sessions, h.logger, err)
		return
	}
	redirectWithAlert(w, r, ProductsListPath, pages.AlertSuccess, i18n.T(r.Context(), "alert.product_deleted"))
}

// HandleSetMainImage — POST /products/edit/{id}/images/{imageID}/main
func (h *ProductsHandler) HandleSetMainImage(w http.ResponseWriter, r *http.Request) {
	user := uimiddleware.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if _, err := h.products.SetMainImage(r.Context(), user, id, chi.URLParam(r, "imageID")); err != nil {
		h.imageFailure(w, r, id, err)
		return
	}
	redirectWithAlert(w, r, editPath(id), pages.AlertSuccess, i18n.T(r.Context(), "alert.main_image_changed"))
}

// HandleRemoveImage — POST /products/edit/{id}/images/{imageID}/remove
func (h *ProductsHandler) HandleRemoveImage(w http.ResponseWriter, r *http.Request) {
	user := uimiddleware.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if _, err := h.products.RemoveImage(r.Context(), user, id, chi.URLParam(r, "imageID")); err != nil {
		h.imageFailure(w, r, id, err)
		return
	}
	redirectWithAlert(w, r, editPath(id), pages.AlertSuccess, i18n.T(r.Context(), "alert.image_removed"))
}

// imageFailure — ошибка валидации (последнее изображение) остаётся на форме,
// остальные ошибки обрабатываются как обычно.
func (h *ProductsHandler) imageFailure(w http.ResponseWriter, r *http.Request, id string, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		redirectWithAlert(w, r, editPath(id), pages.AlertError, i18n.T(r.Context(), "alert.last_image"))
		return
	}
	failRedirect(w, r, h.sessions, h.logger, err)
}

// formFailure — ошибка валидации показывает форму повторно с сообщениями
// у полей, остальные ошибки обрабатываются как обычно.
func (h *ProductsHandler) formFailure(
	w http.ResponseWriter,
	r *http.Request,
	current *model.Product,
	values pages.FormValues,
	err error,
) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		h.renderForm(w, r, http.StatusUnprocessableEntity, current, values, verr.Fields, nil)
		return
	}
	failRedirect(w, r, h.sessions, h.logger, err)
}

// renderForm отрисовывает форму товара. p == nil — создание.
func (h *ProductsHandler) renderForm(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	p *model.Product,
	values pages.FormValues,
	fieldErrs map[string]string,
	alert *pages.Alert,
) {
	if alert == nil && len(fieldErrs) > 0 {
		alert = &pages.Alert{Kind: pages.AlertError, Message: i18n.T(r.Context(), "alert.check_form")}
	}
	render(w, r, status, pages.ProductForm(pages.ProductFormData{
		User:       uimiddleware.UserFromContext(r.Context()),
		Product:    p,
		Values:     values,
		Errors:     fieldErrs,
		DemoImages: h.demoImages,
		CanUpload:  h.products.SupportsUpload(),
		Alert:      alert,
	}), h.logger)
}

// formUpload — файл из поля upload, прочитанный, но ещё не сохранённый.
type formUpload struct {
	name        string
	contentType string
	data        []byte
}

// readForm разбирает форму товара, читает приложенный файл и проверяет
// значения. Файл в хранилище не записывается. ok == false — ответ уже отправлен.
func (h *ProductsHandler) readForm(
	w http.ResponseWriter,
	r *http.Request,
) (pages.FormValues, model.ProductInput, *formUpload, map[string]string, bool) {
	if err := r.ParseMultipartForm(h.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.logger.Warn("Некорректная форма товара", slog.String("error", err.Error()))
		http.Error(w, i18n.T(r.Context(), "alert.bad_form"), http.StatusBadRequest)
		return pages.FormValues{}, model.ProductInput{}, nil, nil, false
	}

	values := pages.FormValues{
		Name:          strings.TrimSpace(r.PostFormValue("name")),
		Description:   strings.TrimSpace(r.PostFormValue("description")),
		Price:         strings.TrimSpace(r.PostFormValue("price")),
		ExtendedPrice: strings.TrimSpace(r.PostFormValue("extendedPrice")),
		Stock:         strings.TrimSpace(r.PostFormValue("stock")),
		Images:        formImageRefs(r),
	}
	parseErrs := map[string]string{}

	upload, err := h.readUpload(r)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			maps.Copy(parseErrs, verr.Fields)
		}
	}

	in := model.ProductInput{
		Name:        values.Name,
		Description: values.Description,
		Images:      values.Images,
	}
	in.Price = parseNumber(values.Price, "price", parseErrs)
	in.ExtendedPrice = parseNumber(values.ExtendedPrice, "extendedPrice", parseErrs)
	if values.Stock != "" {
		stock, err := strconv.Atoi(values.Stock)
		if err != nil {
			parseErrs["stock"] = "validation.integer"
		}
		in.Stock = stock
	}

	// Приложенный файл засчитывается как изображение товара
	check := in
	if upload != nil {
		check.Images = append(slices.Clone(in.Images), upload.name)
	}

	fieldErrs := map[string]string{}
	var verr *service.ValidationError
	if err := service.ValidateForm(check); errors.As(err, &verr) {
		maps.Copy(fieldErrs, verr.Fields)
	}
	maps.Copy(fieldErrs, parseErrs)

	return values, in, upload, fieldErrs, true
}

// readUpload читает файл из поля upload. nil — файла нет.
func (h *ProductsHandler) readUpload(r *http.Request) (*formUpload, error) {
	file, header, err := r.FormFile("upload")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, &service.ValidationError{Fields: map[string]string{"images": "validation.upload_unreadable"}}
	}
	defer file.Close()

	data, contentType, err := readImage(file, h.maxUpload)
	if err != nil {
		return nil, err
	}
	name := header.Filename
	if strings.TrimSpace(name) == "" {
		name = "upload"
	}
	return &formUpload{name: name, contentType: contentType, data: data}, nil
}

// storeUpload сохраняет проверенный файл формы и добавляет его ключ
// к изображениям товара. Вызывается только для прошедшей проверку формы.
func (h *ProductsHandler) storeUpload(
	r *http.Request,
	upload *formUpload,
	values *pages.FormValues,
	in *model.ProductInput,
) error {
	if upload == nil {
		return nil
	}
	user := uimiddleware.UserFromContext(r.Context())
	id, err := h.products.UploadImage(r.Context(), user, upload.name, upload.contentType, upload.data)
	if err != nil {
		return err
	}
	values.Images = append(values.Images, id)
	in.Images = append(slices.Clone(in.Images), id)
	return nil
}

// formImageRefs собирает ссылки на изображения: строки textarea images,
// затем отмеченные demo-изображения. Дубликаты отбрасываются.
func formImageRefs(r *http.Request) []string {
	var refs []string
	add := func(ref string) {
		ref = strings.TrimSpace(ref)
		if ref != "" && !slices.Contains(refs, ref) {
			refs = append(refs, ref)
		}
	}
	for _, line := range strings.Split(r.PostFormValue("images"), "\n") {
		add(line)
	}
	for _, ref := range r.PostForm["demoImages"] {
		add(ref)
	}
	return refs
}

// parseNumber разбирает число из поля формы. Пустое значение — 0.
func parseNumber(value, field string, errs map[string]string) float64 {
	if value == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64)
	if err != nil {
		errs[field] = "validation.number"
		return 0
	}
	return v
}

// valuesOf заполняет форму значениями товара.
func valuesOf(p *model.Product) pages.FormValues {
	return pages.FormValues{
		Name:          p.Name,
		Description:   p.Description,
		Price:         strconv.FormatFloat(p.Price, 'f', -1, 64),
		ExtendedPrice: strconv.FormatFloat(p.ExtendedPrice, 'f', -1, 64),
		Stock:         strconv.Itoa(p.Stock),
		Images:        p.ImageRefs(),
	}
}

// permissionsOf возвращает действия над товарами, доступные пользователю.
func permissionsOf(user *model.User) pages.Permissions {
	if user == nil {
		return pages.Permissions{}
	}
	set := rbac.NewSet(user.Permissions)
	return pages.Permissions{
		Create: set.CanCreate(),
		Edit:   set.CanEdit(),
		Delete: set.CanDelete(),
	}
}

func viewPath(id string) string {
	return "/products/view/" + url.PathEscape(id)
}

func editPath(id string) string {
	return "/products/edit/" + url.PathEscape(id)
}
