// Пакет model — доменные модели Catalog Admin.
package model

import (
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // идентификатор, не криптография
	"encoding/hex"
	"math/big"
	"regexp"
	"time"
)

// Product — товар каталога.
// В локальном варианте хранится JSON-массивом под ключом silvifrid_products,
// в удалённом — приходит из REST API каталога.
type Product struct {
	// ID — UUID (локально) или _id записи в REST API
	ID string `json:"id"`
	// Code — артикул вида SVF123456ABC (генерируется локально)
	Code string `json:"code,omitempty"`
	// Name — название товара
	Name string `json:"name"`
	// Description — описание товара
	Description string `json:"description"`
	// Images — изображения, первое — основное
	Images []Image `json:"images"`
	// Price — базовая цена
	Price float64 `json:"price"`
	// ExtendedPrice — оптовая/акционная цена
	ExtendedPrice float64 `json:"extendedPrice"`
	// Stock — остаток на складе
	Stock int `json:"stock"`
	// CreatedAt — время создания
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt — время последнего изменения
	UpdatedAt time.Time `json:"updatedAt"`
}

// Image — изображение товара.
type Image struct {
	// ID — идентификатор изображения в рамках товара
	ID string `json:"id"`
	// URL — адрес изображения (для внешних ссылок)
	URL string `json:"url,omitempty"`
	// Stored — изображение хранится blob-ом в хранилище изображений, ID — ключ blob-а
	Stored bool `json:"stored,omitempty"`
	// IsMain — основное изображение товара
	IsMain bool `json:"isMain"`
}

// Ref возвращает ссылку на изображение: ключ blob-а для сохранённых
// изображений и URL для внешних.
func (i Image) Ref() string {
	if i.Stored {
		return i.ID
	}
	return i.URL
}

// NewImage создаёт изображение по ссылке. Для сохранённых изображений
// ID — ключ blob-а, для внешних — стабильный идентификатор от URL.
func NewImage(ref string, stored bool) Image {
	if stored {
		return Image{ID: ref, Stored: true}
	}
	sum := sha1.Sum([]byte(ref)) //nolint:gosec
	return Image{ID: "url_" + hex.EncodeToString(sum[:6]), URL: ref}
}

// ImagesFromRefs строит список изображений по ссылкам, первое — основное.
// isStored сообщает, является ли ссылка ключом blob-а (nil — все внешние).
func ImagesFromRefs(refs []string, isStored func(ref string) bool) []Image {
	images := make([]Image, 0, len(refs))
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		stored := isStored != nil && isStored(ref)
		img := NewImage(ref, stored)
		img.IsMain = len(images) == 0
		images = append(images, img)
	}
	return images
}

// ImageRefs возвращает ссылки на изображения товара в порядке хранения.
func (p *Product) ImageRefs() []string {
	refs := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		refs = append(refs, img.Ref())
	}
	return refs
}

// MainImage возвращает основное изображение или false, если изображений нет.
func (p *Product) MainImage() (Image, bool) {
	for _, img := range p.Images {
		if img.IsMain {
			return img, true
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0], true
	}
	return Image{}, false
}

// SetMainImage делает изображение id основным: снимает флаг со всех
// остальных и переносит его в начало списка.
// Возвращает false, если изображение не найдено.
func (p *Product) SetMainImage(id string) bool {
	idx := p.imageIndex(id)
	if idx < 0 {
		return false
	}

	main := p.Images[idx]
	main.IsMain = true

	images := make([]Image, 0, len(p.Images))
	images = append(images, main)
	for i, img := range p.Images {
		if i == idx {
			continue
		}
		img.IsMain = false
		images = append(images, img)
	}
	p.Images = images
	return true
}

// RemoveImage удаляет изображение id. Если удалено основное изображение
// и остались другие, основным становится первое из оставшихся.
// Возвращает удалённое изображение и false, если оно не найдено.
func (p *Product) RemoveImage(id string) (Image, bool) {
	idx := p.imageIndex(id)
	if idx < 0 {
		return Image{}, false
	}

	removed := p.Images[idx]
	p.Images = append(p.Images[:idx:idx], p.Images[idx+1:]...)

	if removed.IsMain && len(p.Images) > 0 {
		for i := range p.Images {
			p.Images[i].IsMain = i == 0
		}
	}
	return removed, true
}

// NormalizeImages восстанавливает инвариант «ровно одно основное изображение»:
// оставляет первое помеченное основным (или первое в списке) и переносит его в начало.
func (p *Product) NormalizeImages() {
	if len(p.Images) == 0 {
		return
	}
	mainID := p.Images[0].ID
	for _, img := range p.Images {
		if img.IsMain {
			mainID = img.ID
			break
		}
	}
	p.SetMainImage(mainID)
}

func (p *Product) imageIndex(id string) int {
	for i, img := range p.Images {
		if img.ID == id {
			return i
		}
	}
	return -1
}

// ProductInput — данные для создания товара.
type ProductInput struct {
	Name          string
	Description   string
	Price         float64
	ExtendedPrice float64
	Stock         int
	// Images — ссылки на изображения (ключ blob-а или URL), индекс 0 — основное
	Images []string
}

// ProductPatch — частичное обновление товара. nil — поле не меняется.
type ProductPatch struct {
	Name          *string
	Description   *string
	Price         *float64
	ExtendedPrice *float64
	Stock         *int
	Images        *[]string
}

// IsEmpty возвращает true, если патч ничего не меняет.
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil &&
		p.ExtendedPrice == nil && p.Stock == nil && p.Images == nil
}

// CodePattern — формат артикула товара.
var CodePattern = regexp.MustCompile(`^SVF\d{6}[A-Z]{3}$`)

const (
	codePrefix  = "SVF"
	codeDigits  = "0123456789"
	codeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NewProductCode генерирует артикул: SVF + 6 цифр + 3 заглавные латинские буквы.
func NewProductCode() (string, error) {
	buf := make([]byte, 0, len(codePrefix)+9)
	buf = append(buf, codePrefix...)
	for range 6 {
		c, err := randomChar(codeDigits)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}
	for range 3 {
		c, err := randomChar(codeLetters)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}
	return string(buf), nil
}

func randomChar(alphabet string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, err
	}
	return alphabet[n.Int64()], nil
}
