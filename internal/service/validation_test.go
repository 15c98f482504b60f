package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/bigkaa/goartstore/catalog-admin/internal/domain/model"
)

func TestValidateForm(t *testing.T) {
	valid := model.ProductInput{
		Name:          "Perfume",
		Description:   "Fragancia floral",
		Price:         22000,
		ExtendedPrice: 20000,
		Stock:         0,
		Images:        []string{"https://img/1.jpg"},
	}

	tests := []struct {
		name      string
		mutate    func(in *model.ProductInput)
		wantField string
	}{
		{"корректные данные", func(*model.ProductInput) {}, ""},
		{"короткое название", func(in *model.ProductInput) { in.Name = "ab" }, "name"},
		{"длинное название", func(in *model.ProductInput) { in.Name = strings.Repeat("a", 101) }, "name"},
		{"название из кириллицы считается в символах", func(in *model.ProductInput) { in.Name = "Духи" }, ""},
		{"короткое описание", func(in *model.ProductInput) { in.Description = "corta" }, "description"},
		{"цена меньше 1", func(in *model.ProductInput) { in.Price = 0.5 }, "price"},
		{"оптовая цена меньше 1", func(in *model.ProductInput) { in.ExtendedPrice = 0 }, "extendedPrice"},
		{"отрицательный остаток", func(in *model.ProductInput) { in.Stock = -1 }, "stock"},
		{"нет изображений", func(in *model.ProductInput) { in.Images = []string{" "} }, "images"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			in.Images = append([]string(nil), valid.Images...)
			tt.mutate(&in)

			err := ValidateForm(in)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateForm() = %v, ожидается nil", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("ValidateForm() = %v, ожидается ValidationError", err)
			}
			if verr.Fields[tt.wantField] == "" {
				t.Errorf("нет ошибки поля %s: %v", tt.wantField, verr.Fields)
			}
			if !errors.Is(err, ErrValidation) {
				t.Error("errors.Is(err, ErrValidation) = false")
			}
		})
	}
}

func TestValidatePatch(t *testing.T) {
	empty := []string{}
	zero := 0.0
	if err := validatePatch(model.ProductPatch{Images: &empty}); !errors.Is(err, ErrValidation) {
		t.Errorf("пустой список изображений: ошибка = %v", err)
	}
	if err := validatePatch(model.ProductPatch{Price: &zero}); !errors.Is(err, ErrValidation) {
		t.Errorf("нулевая цена: ошибка = %v", err)
	}
	if err := validatePatch(model.ProductPatch{}); err != nil {
		t.Errorf("пустой патч: ошибка = %v", err)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"price": "b", "name": "a"}}
	if got := err.Error(); got != "ошибка валидации: name: a; price: b" {
		t.Errorf("Error() = %q", got)
	}
}
