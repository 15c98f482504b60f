package repository

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bigkaa/goartstore/catalog-admin/internal/kvstore"
)

// ImagesKey — ключ хранилища для blob-ов изображений.
const ImagesKey = "silvifrid_product_images"

// ImageBlob — сохранённое изображение (data URL в base64).
type ImageBlob struct {
	Data      string    `json:"data"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

// Decode разбирает data URL и возвращает тип содержимого и байты изображения.
func (b *ImageBlob) Decode() (string, []byte, error) {
	meta, payload, ok := strings.Cut(b.Data, ",")
	if !ok || !strings.HasPrefix(meta, "data:") || !strings.HasSuffix(meta, ";base64") {
		return "", nil, errors.New("некорректный data URL изображения")
	}
	contentType := strings.TrimSuffix(strings.TrimPrefix(meta, "data:"), ";base64")
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("ошибка декодирования изображения: %w", err)
	}
	return contentType, data, nil
}

// ImageStore — blob-ы изображений в одном JSON-объекте {id: blob}
// под ключом silvifrid_product_images.
type ImageStore struct {
	store kvstore.Store
	mu    sync.Mutex
	now   func() time.Time
}

// NewImageStore создаёт хранилище изображений.
func NewImageStore(store kvstore.Store) *ImageStore {
	return &ImageStore{store: store, now: time.Now}
}

// Save сохраняет изображение и возвращает его ключ вида img_<9 символов base36><unix ms>.
func (s *ImageStore) Save(ctx context.Context, name, contentType string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blobs, err := s.load(ctx)
	if err != nil {
		return "", err
	}

	id, err := newImageID(s.now())
	if err != nil {
		return "", err
	}
	blobs[id] = ImageBlob{
		Data:      "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data),
		Name:      name,
		Size:      int64(len(data)),
		Type:      contentType,
		CreatedAt: s.now().UTC(),
	}

	if err := s.save(ctx, blobs); err != nil {
		return "", err
	}
	return id, nil
}

// Get возвращает blob по ключу. Если нет — ErrNotFound.
func (s *ImageStore) Get(ctx context.Context, id string) (*ImageBlob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blobs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	blob, ok := blobs[id]
	if !ok {
		return nil, fmt.Errorf("изображение %s: %w", id, ErrNotFound)
	}
	return &blob, nil
}

// DataURL возвращает data URL изображения или пустую строку, если его нет.
func (s *ImageStore) DataURL(ctx context.Context, id string) string {
	blob, err := s.Get(ctx, id)
	if err != nil {
		return ""
	}
	return blob.Data
}

// Exists сообщает, хранится ли изображение с ключом id.
func (s *ImageStore) Exists(ctx context.Context, id string) bool {
	_, err := s.Get(ctx, id)
	return err == nil
}

// Remove удаляет изображения. Отсутствующие ключи игнорируются.
func (s *ImageStore) Remove(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	blobs, err := s.load(ctx)
	if err != nil {
		return err
	}
	changed := false
	for _, id := range ids {
		if _, ok := blobs[id]; ok {
			delete(blobs, id)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.save(ctx, blobs)
}

// Clear удаляет все изображения.
func (s *ImageStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, ImagesKey); err != nil {
		return fmt.Errorf("ошибка очистки изображений: %w", err)
	}
	return nil
}

// load читает все blob-ы. Повреждённое значение считается пустым набором.
func (s *ImageStore) load(ctx context.Context) (map[string]ImageBlob, error) {
	raw, err := s.store.Get(ctx, ImagesKey)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return make(map[string]ImageBlob), nil
		}
		return nil, fmt.Errorf("ошибка чтения изображений: %w", err)
	}

	blobs := make(map[string]ImageBlob)
	if err := json.Unmarshal(raw, &blobs); err != nil {
		return make(map[string]ImageBlob), nil
	}
	return blobs, nil
}

func (s *ImageStore) save(ctx context.Context, blobs map[string]ImageBlob) error {
	raw, err := json.Marshal(blobs)
	if err != nil {
		return fmt.Errorf("ошибка сериализации изображений: %w", err)
	}
	if err := s.store.Set(ctx, ImagesKey, raw); err != nil {
		return fmt.Errorf("ошибка записи изображений: %w", err)
	}
	return nil
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// newImageID генерирует ключ изображения: img_ + 9 символов base36 + unix ms.
func newImageID(now time.Time) (string, error) {
	var b strings.Builder
	b.WriteString("img_")
	for range 9 {
		c, err := randomBase36()
		if err != nil {
			return "", fmt.Errorf("ошибка генерации ключа изображения: %w", err)
		}
		b.WriteByte(c)
	}
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	return b.String(), nil
}

func randomBase36() (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(base36))))
	if err != nil {
		return 0, err
	}
	return base36[n.Int64()], nil
}
