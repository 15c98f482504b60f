// Пакет pages — HTML-страницы Catalog Admin на templ.
// Разметка описана в *.templ, код *_templ.go генерируется командой templ generate.
package pages

//go:generate templ generate

import (
	"context"
	"fmt"
	"hash/fnv"
	"net/url"
	"strconv"

	"github.com/bigkaa/goartstore/catalog-admin/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-admin/internal/ui/i18n"
)

// Виды баннера уведомления.
const (
	AlertSuccess = "success"
	AlertError   = "error"
	AlertInfo    = "info"
)

// Alert — баннер уведомления над содержимым страницы.
type Alert struct {
	Kind    string
	Message string
}

// LayoutData — общие данные каркаса страницы.
type LayoutData struct {
	// Title — заголовок страницы
	Title string
	// User — текущий пользователь (nil на публичных страницах)
	User *model.User
	// Alert — уведомление (nil — без баннера)
	Alert *Alert
}

// LoginData — данные страницы входа.
type LoginData struct {
	// UserName — введённый логин (сохраняется при ошибке)
	UserName string
	// Alert — сообщение об ошибке входа
	Alert *Alert
}

// MenuData — данные главного меню.
type MenuData struct {
	User *model.User
	// Token — сессионный токен для пунктов с защитой перехода
	Token string
	Alert *Alert
}

// Permissions — действия над товарами, доступные пользователю на странице.
type Permissions struct {
	Create bool
	Edit   bool
	Delete bool
}

// ProductListData — данные страницы списка товаров.
type ProductListData struct {
	User     *model.User
	Products []model.Product
	Can      Permissions
	Alert    *Alert
}

// FormValues — значения полей формы товара в том виде, как их ввёл пользователь.
type FormValues struct {
	Name          string
	Description   string
	Price         string
	ExtendedPrice string
	Stock         string
	// Images — ссылки на изображения (URL или ключ сохранённого изображения)
	Images []string
}

// ProductFormData — данные формы создания/редактирования товара.
type ProductFormData struct {
	User *model.User
	// Product — редактируемый товар (nil — создание)
	Product *model.Product
	Values  FormValues
	// Errors — сообщения по полям формы
	Errors map[string]string
	// DemoImages — предлагаемые адреса изображений
	DemoImages []string
	// CanUpload — доступна загрузка файлов изображений
	CanUpload bool
	Alert     *Alert
}

// ImageSrc возвращает адрес изображения для тега img:
// сохранённые изображения отдаются через /images/{id}.
func ImageSrc(img model.Image) string {
	if img.Stored {
		return "/images/" + url.PathEscape(img.ID)
	}
	return img.URL
}

// Signature — отпечаток списка товаров. Страница сравнивает его
// с отпечатком снимка из SSE и перезагружается при расхождении.
func Signature(products []model.Product) string {
	h := fnv.New64a()
	for _, p := range products {
		fmt.Fprintf(h, "%s|%s|%s|%s|%g|%g|%d|", p.ID, p.Code, p.Name, p.Description, p.Price, p.ExtendedPrice, p.Stock)
		for _, img := range p.Images {
			fmt.Fprintf(h, "%s:%t;", img.Ref(), img.IsMain)
		}
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// columnKeys — заголовки колонок таблицы товаров.
var columnKeys = []string{"product.code", "product.name", "product.price", "product.extended_price", "product.stock"}

type detail struct {
	key   string
	value string
}

// productDetails — поля карточки товара в порядке вывода.
func productDetails(p *model.Product) []detail {
	return []detail{
		{"product.code", p.Code},
		{"product.description", p.Description},
		{"product.price", formatPrice(p.Price)},
		{"product.extended_price", formatPrice(p.ExtendedPrice)},
		{"product.stock", strconv.Itoa(p.Stock)},
	}
}

// productPath — адрес действия над товаром: /products/{action}/{id}.
func productPath(action, id string) string {
	return "/products/" + action + "/" + url.PathEscape(id)
}

// imagePath — адрес действия над изображением редактируемого товара.
func imagePath(productID, imageID, action string) string {
	return productPath("edit", productID) + "/images/" + url.PathEscape(imageID) + "/" + action
}

func formAction(p *model.Product) string {
	if p == nil {
		return "/products/create"
	}
	return productPath("edit", p.ID)
}

func formTitle(ctx context.Context, data ProductFormData) string {
	if data.Product == nil {
		return i18n.T(ctx, "products.new")
	}
	return i18n.Tf(ctx, "form.edit_title", data.Product.Name)
}

func hasError(errs map[string]string, name string) bool {
	_, ok := errs[name]
	return ok
}

func alertKind(alert *Alert) string {
	if alert.Kind == "" {
		return AlertInfo
	}
	return alert.Kind
}

// formatPrice форматирует цену без дробной части, если она нулевая.
func formatPrice(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

func displayName(u *model.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.UserName
}
