package rbac

import (
	"testing"
)

func TestSet_Capabilities(t *testing.T) {
	tests := []struct {
		name        string
		permissions []string
		view        bool
		create      bool
		edit        bool
		delete      bool
	}{
		{
			name:        "products-all — все действия",
			permissions: []string{"products-all"},
			view:        true, create: true, edit: true, delete: true,
		},
		{
			name:        "только просмотр",
			permissions: []string{"products-view"},
			view:        true,
		},
		{
			name:        "создание и редактирование",
			permissions: []string{"products-create", "products-edit"},
			create:      true, edit: true,
		},
		{
			name:        "удаление",
			permissions: []string{"products-delete"},
			delete:      true,
		},
		{
			name:        "пустой набор — ничего",
			permissions: nil,
		},
		{
			name:        "all другого ресурса не даёт прав на товары",
			permissions: []string{"orders-all"},
		},
		{
			name:        "пустые строки игнорируются",
			permissions: []string{"", "  "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSet(tt.permissions)
			if got := s.CanView(); got != tt.view {
				t.Errorf("CanView() = %v, хотели %v", got, tt.view)
			}
			if got := s.CanCreate(); got != tt.create {
				t.Errorf("CanCreate() = %v, хотели %v", got, tt.create)
			}
			if got := s.CanEdit(); got != tt.edit {
				t.Errorf("CanEdit() = %v, хотели %v", got, tt.edit)
			}
			if got := s.CanDelete(); got != tt.delete {
				t.Errorf("CanDelete() = %v, хотели %v", got, tt.delete)
			}
			if got := s.CanCreateOrEdit(); got != (tt.create || tt.edit) {
				t.Errorf("CanCreateOrEdit() = %v, хотели %v", got, tt.create || tt.edit)
			}
		})
	}
}

func TestSet_Nil(t *testing.T) {
	var s *Set
	if s.CanView() || s.CanCreate() || s.CanEdit() || s.CanDelete() {
		t.Error("nil набор: ожидаются false для всех проверок")
	}
	if s.Has(ProductsAll) {
		t.Error("nil набор: Has(products-all) = true")
	}
	if s.List() != nil {
		t.Error("nil набор: List() != nil")
	}
}

func TestSet_Has(t *testing.T) {
	s := NewSet([]string{"products-view", "reports-all"})

	tests := []struct {
		permission string
		want       bool
	}{
		{"products-view", true},
		{"products-edit", false},
		{"reports-export", true},
		{"reports-all", true},
		{"products", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.permission, func(t *testing.T) {
			if got := s.Has(tt.permission); got != tt.want {
				t.Errorf("Has(%q) = %v, хотели %v", tt.permission, got, tt.want)
			}
		})
	}
}

func TestPermission(t *testing.T) {
	if got := Permission(ResourceProducts, CapDelete); got != "products-delete" {
		t.Errorf("Permission() = %q, хотели products-delete", got)
	}
	if !NewSet([]string{ProductsAll}).Can(ResourceProducts, CapEdit) {
		t.Error("Can(products, edit) с products-all = false")
	}
}
