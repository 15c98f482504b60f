package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bigkaa/goartstore/catalog-admin/internal/catalogapi"
	"github.com/bigkaa/goartstore/catalog-admin/internal/domain/model"
)

// fakeAPI — in-memory реализация CatalogAPI со счётчиком вызовов.
type fakeAPI struct {
	products map[string]catalogapi.Product
	calls    int
	failWith error
	lastUpd  catalogapi.UpdateRequest
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{products: map[string]catalogapi.Product{
		"p1": {ID: "p1", Name: "Perfume", Description: "Floral", Images: []string{"https://img/1.jpg", "https://img/2.jpg"}, Price: 22000, Stock: 3},
	}}
}

func (f *fakeAPI) ListProducts(_ context.Context) ([]catalogapi.Product, error) {
	f.calls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]catalogapi.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeAPI) GetProduct(_ context.Context, id string) (*catalogapi.Product, error) {
	f.calls++
	p, ok := f.products[id]
	if !ok {
		return nil, fmt.Errorf("GET /getproducts/%s: %w", id, catalogapi.ErrNotFound)
	}
	return &p, nil
}

func (f *fakeAPI) CreateProduct(_ context.Context, req catalogapi.CreateRequest) (*catalogapi.Product, error) {
	f.calls++
	p := catalogapi.Product{ID: fmt.Sprintf("p%d", len(f.products)+1), Name: req.Name, Description: req.Description, Images: req.Images, Price: req.Price}
	f.products[p.ID] = p
	return &p, nil
}

func (f *fakeAPI) UpdateProduct(_ context.Context, id string, req catalogapi.UpdateRequest) (*catalogapi.Product, error) {
	f.calls++
	f.lastUpd = req
	p, ok := f.products[id]
	if !ok {
		return nil, catalogapi.ErrNotFound
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	f.products[id] = p
	return &p, nil
}

func (f *fakeAPI) DeleteProduct(_ context.Context, id string) error {
	f.calls++
	if _, ok := f.products[id]; !ok {
		return catalogapi.ErrNotFound
	}
	delete(f.products, id)
	return nil
}

func TestRemoteProductRepository_NoCache(t *testing.T) {
	api := newFakeAPI()
	repo := NewRemoteProductRepository(api, 16, 0, testLogger())
	ctx := context.Background()

	for range 2 {
		if _, err := repo.List(ctx); err != nil {
			t.Fatalf("List() вернул ошибку: %v", err)
		}
	}
	if api.calls != 2 {
		t.Errorf("вызовов API = %d, ожидается 2 (без кэша)", api.calls)
	}

	p, err := repo.GetByID(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByID() вернул ошибку: %v", err)
	}
	if len(p.Images) != 2 || !p.Images[0].IsMain || p.Images[0].Stored {
		t.Errorf("Images = %+v, ожидаются внешние изображения, первое основное", p.Images)
	}
	if p.Images[0].URL != "https://img/1.jpg" {
		t.Errorf("Images[0].URL = %q", p.Images[0].URL)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) || !errors.Is(err, catalogapi.ErrNotFound) {
		t.Errorf("GetByID(missing): ошибка = %v, ожидается ErrNotFound", err)
	}
}

func TestRemoteProductRepository_CacheAndPurge(t *testing.T) {
	api := newFakeAPI()
	repo := NewRemoteProductRepository(api, 16, time.Minute, testLogger())
	ctx := context.Background()

	if _, err := repo.List(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.List(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetByID(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetByID(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	if api.calls != 2 {
		t.Fatalf("вызовов API = %d, ожидается 2 (повторные чтения из кэша)", api.calls)
	}

	name := "Renamed"
	if _, err := repo.Update(ctx, "p1", model.ProductPatch{Name: &name}); err != nil {
		t.Fatalf("Update() вернул ошибку: %v", err)
	}
	if api.lastUpd.Name == nil || api.lastUpd.Price != nil {
		t.Errorf("UpdateRequest = %+v, ожидается только name", api.lastUpd)
	}

	got, err := repo.GetByID(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Renamed" {
		t.Errorf("после мутации кэш должен быть очищен: Name = %q", got.Name)
	}
	if api.calls != 4 {
		t.Errorf("вызовов API = %d, ожидается 4", api.calls)
	}
}

func TestRemoteProductRepository_CreateDelete(t *testing.T) {
	api := newFakeAPI()
	repo := NewRemoteProductRepository(api, 16, time.Minute, testLogger())
	ctx := context.Background()

	created, err := repo.Create(ctx, model.ProductInput{Name: "X", Description: "desc", Price: 100, Images: []string{"imgA"}})
	if err != nil {
		t.Fatalf("Create() вернул ошибку: %v", err)
	}
	if refs := created.ImageRefs(); len(refs) != 1 || refs[0] != "imgA" {
		t.Errorf("ImageRefs() = %v, ожидается [imgA]", refs)
	}

	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() вернул ошибку: %v", err)
	}
	if _, err := repo.GetByID(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() после удаления: ошибка = %v, ожидается ErrNotFound", err)
	}
	if err := repo.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("повторный Delete(): ошибка = %v, ожидается ErrNotFound", err)
	}
}

func TestRemoteProductRepository_Unavailable(t *testing.T) {
	api := newFakeAPI()
	api.failWith = catalogapi.ErrUnavailable
	repo := NewRemoteProductRepository(api, 16, 0, testLogger())

	if _, err := repo.List(context.Background()); !errors.Is(err, catalogapi.ErrUnavailable) {
		t.Errorf("List(): ошибка = %v, ожидается ErrUnavailable", err)
	}
}
