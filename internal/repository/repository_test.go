package repository

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/bigkaa/goartstore/catalog-admin/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-admin/internal/kvstore"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// setupLocalRepo создаёт локальный репозиторий поверх in-memory хранилища.
func setupLocalRepo(t *testing.T) (*LocalProductRepository, *kvstore.MemoryStore) {
	t.Helper()
	store := kvstore.NewMemoryStore()
	return NewLocalProductRepository(store, NewImageStore(store), testLogger()), store
}

func TestLocalProductRepository_CreateScenario(t *testing.T) {
	repo, _ := setupLocalRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, model.ProductInput{
		Name:        "X",
		Description: "desc",
		Price:       100,
		Images:      []string{"imgA"},
	})
	if err != nil {
		t.Fatalf("Create() вернул ошибку: %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() вернул ошибку: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len(List()) = %d, ожидается 1", len(list))
	}
	p := list[0]
	if p.Name != "X" {
		t.Errorf("Name = %q, ожидается X", p.Name)
	}
	if refs := p.ImageRefs(); len(refs) != 1 || refs[0] != "imgA" {
		t.Errorf("ImageRefs() = %v, ожидается [imgA]", refs)
	}
	if p.ID == "" || p.ID != created.ID {
		t.Errorf("ID = %q, ожидается непустой %q", p.ID, created.ID)
	}
	if !model.CodePattern.MatchString(p.Code) {
		t.Errorf("Code = %q, не соответствует формату", p.Code)
	}
	if !p.Images[0].IsMain {
		t.Error("первое изображение должно быть основным")
	}
}

func TestLocalProductRepository_Persistence(t *testing.T) {
	repo, store := setupLocalRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, model.ProductInput{Name: "Perfume", Description: "Floral", Price: 10, Images: []string{"https://img/1.jpg"}})
	if err != nil {
		t.Fatalf("Create() вернул ошибку: %v", err)
	}

	// Новый экземпляр над тем же хранилищем видит сохранённый товар
	reopened := NewLocalProductRepository(store, NewImageStore(store), testLogger())
	got, err := reopened.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() вернул ошибку: %v", err)
	}
	if got.Name != "Perfume" || got.Images[0].URL != "https://img/1.jpg" {
		t.Errorf("GetByID() = %+v", got)
	}
}

func TestLocalProductRepository_CorruptedData(t *testing.T) {
	store := kvstore.NewMemoryStore()
	ctx := context.Background()
	if err := store.Set(ctx, ProductsKey, []byte("{not json")); err != nil {
		t.Fatal(err)
	}

	repo := NewLocalProductRepository(store, NewImageStore(store), testLogger())
	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() вернул ошибку: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("len(List()) = %d, ожидается 0 для повреждённых данных", len(list))
	}
}

func TestLocalProductRepository_Update(t *testing.T) {
	repo, _ := setupLocalRepo(t)
	ctx := context.Background()
	images := repo.Images()

	blobA, err := images.Save(ctx, "a.png", "image/png", []byte("aaa"))
	if err != nil {
		t.Fatalf("Save() вернул ошибку: %v", err)
	}
	blobB, err := images.Save(ctx, "b.png", "image/png", []byte("bbb"))
	if err != nil {
		t.Fatalf("Save() вернул ошибку: %v", err)
	}

	created, err := repo.Create(ctx, model.ProductInput{Name: "X", Description: "desc", Price: 1, Images: []string{blobA, blobB}})
	if err != nil {
		t.Fatalf("Create() вернул ошибку: %v", err)
	}
	if !created.Images[0].Stored || !created.Images[1].Stored {
		t.Fatalf("изображения должны быть помечены как сохранённые: %+v", created.Images)
	}

	name := "Y"
	refs := []string{blobB}
	updated, err := repo.Update(ctx, created.ID, model.ProductPatch{Name: &name, Images: &refs})
	if err != nil {
		t.Fatalf("Update() вернул ошибку: %v", err)
	}
	if updated.Name != "Y" || updated.Description != "desc" {
		t.Errorf("Update() = %+v, ожидается Name=Y при неизменном Description", updated)
	}
	if len(updated.Images) != 1 || updated.Images[0].ID != blobB || !updated.Images[0].IsMain {
		t.Errorf("Images = %+v, ожидается [%s] (основное)", updated.Images, blobB)
	}
	if images.Exists(ctx, blobA) {
		t.Error("исключённое изображение должно быть удалено из хранилища")
	}
	if !images.Exists(ctx, blobB) {
		t.Error("оставшееся изображение не должно удаляться")
	}

	if _, err := repo.Update(ctx, "missing", model.ProductPatch{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(missing): ошибка = %v, ожидается ErrNotFound", err)
	}
}

func TestLocalProductRepository_Delete(t *testing.T) {
	repo, _ := setupLocalRepo(t)
	ctx := context.Background()
	images := repo.Images()

	blob, err := images.Save(ctx, "a.png", "image/png", []byte("aaa"))
	if err != nil {
		t.Fatalf("Save() вернул ошибку: %v", err)
	}
	created, err := repo.Create(ctx, model.ProductInput{Name: "X", Description: "desc", Price: 1, Images: []string{blob, "https://img/1.jpg"}})
	if err != nil {
		t.Fatalf("Create() вернул ошибку: %v", err)
	}

	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() вернул ошибку: %v", err)
	}
	if _, err := repo.GetByID(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() после удаления: ошибка = %v, ожидается ErrNotFound", err)
	}
	if images.Exists(ctx, blob) {
		t.Error("изображения удалённого товара должны быть удалены")
	}
	if err := repo.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("повторный Delete(): ошибка = %v, ожидается ErrNotFound", err)
	}
}

func TestLocalProductRepository_ReturnsCopies(t *testing.T) {
	repo, _ := setupLocalRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, model.ProductInput{Name: "X", Description: "desc", Price: 1, Images: []string{"https://img/1.jpg"}})
	if err != nil {
		t.Fatal(err)
	}
	created.Name = "mutated"
	created.Images[0].URL = "mutated"

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "X" || got.Images[0].URL != "https://img/1.jpg" {
		t.Errorf("изменение возвращённой копии повлияло на репозиторий: %+v", got)
	}
}

func TestLocalProductRepository_SeedAndClear(t *testing.T) {
	repo, store := setupLocalRepo(t)
	ctx := context.Background()

	seeded, err := repo.SeedDemoData(ctx)
	if err != nil || !seeded {
		t.Fatalf("SeedDemoData() = %v, %v, ожидается true, nil", seeded, err)
	}
	seeded, err = repo.SeedDemoData(ctx)
	if err != nil || seeded {
		t.Fatalf("повторный SeedDemoData() = %v, %v, ожидается false, nil", seeded, err)
	}

	list, _ := repo.List(ctx)
	if len(list) != 1 || !strings.HasPrefix(list[0].Name, "Victoria's Secret") || len(list[0].Images) != 3 {
		t.Fatalf("demo-данные = %+v", list)
	}

	if _, err := repo.Images().Save(ctx, "a.png", "image/png", []byte("a")); err != nil {
		t.Fatal(err)
	}
	if err := repo.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll() вернул ошибку: %v", err)
	}
	list, _ = repo.List(ctx)
	if len(list) != 0 {
		t.Errorf("len(List()) после ClearAll = %d, ожидается 0", len(list))
	}
	for _, key := range []string{ProductsKey, ImagesKey} {
		if _, err := store.Get(ctx, key); !errors.Is(err, kvstore.ErrNotFound) {
			t.Errorf("ключ %s должен быть удалён, ошибка = %v", key, err)
		}
	}
}
