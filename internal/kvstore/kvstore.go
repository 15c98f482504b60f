// Пакет kvstore — key/value хранилище строковых значений для локального
// каталога (товары, blob-ы изображений) и сессии UI.
// Реализации: JSON-файл на диске, PostgreSQL (таблица kv_store), память.
package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound — ключ отсутствует в хранилище.
var ErrNotFound = errors.New("ключ не найден")

// Store — key/value хранилище. Значение по ключу перезаписывается целиком.
type Store interface {
	// Get возвращает значение по ключу. Если ключа нет — ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set создаёт или перезаписывает значение.
	Set(ctx context.Context, key string, value []byte) error
	// Delete удаляет ключ. Отсутствие ключа — не ошибка.
	Delete(ctx context.Context, key string) error
}
