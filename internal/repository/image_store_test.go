package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/bigkaa/goartstore/catalog-admin/internal/kvstore"
)

var imageIDPattern = regexp.MustCompile(`^img_[0-9a-z]{9}\d+$`)

func TestImageStore_SaveGet(t *testing.T) {
	store := NewImageStore(kvstore.NewMemoryStore())
	store.now = func() time.Time { return time.UnixMilli(1716766165000) }
	ctx := context.Background()

	id, err := store.Save(ctx, "photo.png", "image/png", []byte{0x89, 'P', 'N', 'G'})
	if err != nil {
		t.Fatalf("Save() вернул ошибку: %v", err)
	}
	if !imageIDPattern.MatchString(id) || id[len(id)-13:] != "1716766165000" {
		t.Errorf("id = %q, не соответствует формату img_<base36><ms>", id)
	}

	blob, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() вернул ошибку: %v", err)
	}
	if blob.Name != "photo.png" || blob.Size != 4 || blob.Type != "image/png" {
		t.Errorf("blob = %+v", blob)
	}
	if store.DataURL(ctx, id) != "data:image/png;base64,iVBORw==" {
		t.Errorf("DataURL() = %q", store.DataURL(ctx, id))
	}

	contentType, data, err := blob.Decode()
	if err != nil {
		t.Fatalf("Decode() вернул ошибку: %v", err)
	}
	if contentType != "image/png" || string(data) != "\x89PNG" {
		t.Errorf("Decode() = %q, %q", contentType, data)
	}
}

func TestImageStore_RemoveAndClear(t *testing.T) {
	store := NewImageStore(kvstore.NewMemoryStore())
	ctx := context.Background()

	a, _ := store.Save(ctx, "a", "image/jpeg", []byte("a"))
	b, _ := store.Save(ctx, "b", "image/jpeg", []byte("b"))

	if err := store.Remove(ctx, a, "missing"); err != nil {
		t.Fatalf("Remove() вернул ошибку: %v", err)
	}
	if store.Exists(ctx, a) {
		t.Error("изображение a должно быть удалено")
	}
	if !store.Exists(ctx, b) {
		t.Error("изображение b не должно удаляться")
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear() вернул ошибку: %v", err)
	}
	if _, err := store.Get(ctx, b); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() после Clear: ошибка = %v, ожидается ErrNotFound", err)
	}
	if store.DataURL(ctx, b) != "" {
		t.Error("DataURL() отсутствующего изображения должен быть пустым")
	}
}

func TestImageBlob_DecodeInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"без запятой", "data:image/png;base64"},
		{"без префикса", "image/png;base64,AAAA"},
		{"не base64", "data:image/png;base64,@@@"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := ImageBlob{Data: tt.data}
			if _, _, err := blob.Decode(); err == nil {
				t.Error("Decode() должен вернуть ошибку")
			}
		})
	}
}
