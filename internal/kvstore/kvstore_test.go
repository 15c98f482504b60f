package kvstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeContract — общие проверки для всех реализаций Store.
func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "silvifrid_products", []byte(`[{"id":"1"}]`)))
	got, err := s.Get(ctx, "silvifrid_products")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, string(got))

	// Перезапись целиком
	require.NoError(t, s.Set(ctx, "silvifrid_products", []byte(`[]`)))
	got, err = s.Get(ctx, "silvifrid_products")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	require.NoError(t, s.Delete(ctx, "silvifrid_products"))
	_, err = s.Get(ctx, "silvifrid_products")
	assert.ErrorIs(t, err, ErrNotFound)

	// Удаление отсутствующего ключа — не ошибка
	assert.NoError(t, s.Delete(ctx, "silvifrid_products"))
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestMemoryStore_ReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	value := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", value))
	value[0] = 'x'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got), "изменение исходного среза не должно влиять на хранилище")
}

func TestFileStore(t *testing.T) {
	s, err := OpenFileStore(filepath.Join(t.TempDir(), "data", "store.json"))
	require.NoError(t, err)
	storeContract(t, s)
}

func TestFileStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	ctx := context.Background()

	s, err := OpenFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "token", []byte("a.b.c")))
	require.NoError(t, s.Set(ctx, "silvifrid_product_images", []byte(`{"img_1":{"name":"a.png"}}`)))

	// Временный файл не остаётся после записи
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "временный файл не удалён")

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)

	got, err := reopened.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "a.b.c", string(got))

	got, err = reopened.Get(ctx, "silvifrid_product_images")
	require.NoError(t, err)
	assert.JSONEq(t, `{"img_1":{"name":"a.png"}}`, string(got))
}

func TestOpenFileStore_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := OpenFileStore(path)
	assert.Error(t, err)
}

func TestOpenFileStore_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	s, err := OpenFileStore(path)
	require.NoError(t, err)
	_, err = s.Get(context.Background(), "any")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_CheckReady(t *testing.T) {
	s, err := OpenFileStore(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)

	status, _ := s.CheckReady()
	assert.Equal(t, "ok", status)
}
