// Пакет rbac — вычисление прав администратора каталога.
// Разрешение — строка вида "<ресурс>-<действие>" (products-view).
// Универсальный маркер "<ресурс>-all" даёт все действия над ресурсом.
package rbac

import "strings"

// Resource — ресурс, над которым выдаются права.
type Resource string

// Capability — действие над ресурсом.
type Capability string

// Ресурсы.
const (
	ResourceProducts Resource = "products"
)

// Действия.
const (
	CapView   Capability = "view"
	CapCreate Capability = "create"
	CapEdit   Capability = "edit"
	CapDelete Capability = "delete"
	// CapAll — универсальный маркер ресурса
	CapAll Capability = "all"
)

// Разрешения каталога товаров.
var (
	ProductsView   = Permission(ResourceProducts, CapView)
	ProductsCreate = Permission(ResourceProducts, CapCreate)
	ProductsEdit   = Permission(ResourceProducts, CapEdit)
	ProductsDelete = Permission(ResourceProducts, CapDelete)
	ProductsAll    = Permission(ResourceProducts, CapAll)
)

// Permission собирает строку разрешения из ресурса и действия.
func Permission(r Resource, c Capability) string {
	return string(r) + "-" + string(c)
}

// Set — набор выданных пользователю разрешений.
// Нулевое значение (и nil) — пустой набор: все проверки возвращают false.
type Set struct {
	granted map[string]bool
}

// NewSet строит набор из списка разрешений пользователя.
// Пустые строки игнорируются.
func NewSet(permissions []string) *Set {
	s := &Set{granted: make(map[string]bool, len(permissions))}
	for _, p := range permissions {
		p = strings.TrimSpace(p)
		if p != "" {
			s.granted[p] = true
		}
	}
	return s
}

// Has проверяет разрешение: точное совпадение или маркер "<ресурс>-all".
func (s *Set) Has(permission string) bool {
	if s == nil || len(s.granted) == 0 || permission == "" {
		return false
	}
	if s.granted[permission] {
		return true
	}
	family, _, ok := strings.Cut(permission, "-")
	if !ok {
		return false
	}
	return s.granted[Permission(Resource(family), CapAll)]
}

// Can проверяет действие над ресурсом.
func (s *Set) Can(r Resource, c Capability) bool {
	return s.Has(Permission(r, c))
}

// CanView — просмотр товаров.
func (s *Set) CanView() bool { return s.Has(ProductsView) }

// CanCreate — создание товаров.
func (s *Set) CanCreate() bool { return s.Has(ProductsCreate) }

// CanEdit — редактирование товаров.
func (s *Set) CanEdit() bool { return s.Has(ProductsEdit) }

// CanDelete — удаление товаров.
func (s *Set) CanDelete() bool { return s.Has(ProductsDelete) }

// CanCreateOrEdit — доступ к форме товара (создание или редактирование).
func (s *Set) CanCreateOrEdit() bool { return s.CanCreate() || s.CanEdit() }

// List возвращает выданные разрешения (порядок не определён).
func (s *Set) List() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.granted))
	for p := range s.granted {
		out = append(out, p)
	}
	return out
}
