// validation.go — проверка данных товара.
package service

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/bigkaa/goartstore/catalog-admin/internal/domain/model"
)

// ValidationError — ошибки валидации по полям. errors.Is(err, ErrValidation) == true.
type ValidationError struct {
	// Fields — поле формы → ключ сообщения в каталоге i18n
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := slices.Sorted(maps.Keys(e.Fields))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// fieldErrors накапливает ошибки и возвращает nil, если их нет.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

// validateCreate проверяет обязательные поля при создании товара.
func validateCreate(in model.ProductInput) error {
	errs := fieldErrors{}
	if strings.TrimSpace(in.Name) == "" {
		errs.add("name", "validation.name_required")
	}
	if strings.TrimSpace(in.Description) == "" {
		errs.add("description", "validation.description_required")
	}
	if in.Price <= 0 {
		errs.add("price", "validation.price_positive")
	}
	if countRefs(in.Images) == 0 {
		errs.add("images", "validation.images_required")
	}
	return errs.err()
}

// validatePatch проверяет только переданные поля.
func validatePatch(p model.ProductPatch) error {
	errs := fieldErrors{}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		errs.add("name", "validation.name_empty")
	}
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		errs.add("description", "validation.description_empty")
	}
	if p.Price != nil && *p.Price <= 0 {
		errs.add("price", "validation.price_positive")
	}
	if p.Images != nil && countRefs(*p.Images) == 0 {
		errs.add("images", "validation.images_required")
	}
	return errs.err()
}

// Ограничения формы товара.
const (
	NameMinLen        = 3
	NameMaxLen        = 100
	DescriptionMinLen = 10
	DescriptionMaxLen = 1000
)

// ValidateForm проверяет данные формы товара по правилам экрана редактирования:
// длина названия и описания, цены не меньше 1, неотрицательный остаток,
// хотя бы одно изображение.
func ValidateForm(in model.ProductInput) error {
	errs := fieldErrors{}

	nameLen := utf8.RuneCountInString(strings.TrimSpace(in.Name))
	switch {
	case nameLen == 0:
		errs.add("name", "validation.name_required")
	case nameLen < NameMinLen || nameLen > NameMaxLen:
		errs.add("name", "validation.name_length")
	}

	descLen := utf8.RuneCountInString(strings.TrimSpace(in.Description))
	switch {
	case descLen == 0:
		errs.add("description", "validation.description_required")
	case descLen < DescriptionMinLen || descLen > DescriptionMaxLen:
		errs.add("description", "validation.description_length")
	}

	if in.Price < 1 {
		errs.add("price", "validation.price_min")
	}
	if in.ExtendedPrice < 1 {
		errs.add("extendedPrice", "validation.extended_price_min")
	}
	if in.Stock < 0 {
		errs.add("stock", "validation.stock_negative")
	}
	if countRefs(in.Images) == 0 {
		errs.add("images", "validation.images_required")
	}
	return errs.err()
}

func countRefs(refs []string) int {
	n := 0
	for _, r := range refs {
		if strings.TrimSpace(r) != "" {
			n++
		}
	}
	return n
}

// imageContentTypes — растровые форматы, разрешённые для загрузки.
// Форматы с активным содержимым (SVG, HTML) не принимаются.
var imageContentTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// IsImageContentType сообщает, разрешён ли тип содержимого изображения.
func IsImageContentType(contentType string) bool {
	return slices.Contains(imageContentTypes, contentType)
}
