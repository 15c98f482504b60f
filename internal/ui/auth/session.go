package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bigkaa/goartstore/catalog-admin/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-admin/internal/kvstore"
)

// TokenKey — ключ, под которым в хранилище лежит сессионный токен.
const TokenKey = "token"

// SessionCookieMaxAge — максимальный возраст cookie сессии (24 часа).
const SessionCookieMaxAge = 24 * 60 * 60

// ErrNoSession — нет действующей сессии (нет токена, подпись неверна или срок истёк).
var ErrNoSession = errors.New("сессия отсутствует")

// SessionManager создаёт сессии поверх key/value хранилища.
// В Admin UI хранилище — cookie запроса (CookieStore).
type SessionManager struct {
	secret string
	// secure — Secure flag для cookie (true для HTTPS).
	secure bool
	now    func() time.Time
}

// NewSessionManager создаёт менеджер сессий. secret — общий секрет подписи токена.
func NewSessionManager(secret string, secure bool) *SessionManager {
	return &SessionManager{
		secret: secret,
		secure: secure,
		now:    time.Now,
	}
}

// Secret возвращает секрет подписи токена.
func (m *SessionManager) Secret() string {
	return m.secret
}

// Now возвращает текущее время менеджера.
func (m *SessionManager) Now() time.Time {
	return m.now()
}

// Session возвращает сессию поверх произвольного хранилища.
func (m *SessionManager) Session(store kvstore.Store) *Session {
	return &Session{store: store, secret: m.secret, now: m.now}
}

// ForRequest возвращает сессию поверх cookie запроса.
func (m *SessionManager) ForRequest(w http.ResponseWriter, r *http.Request) *Session {
	return m.Session(NewCookieStore(w, r, m.secure))
}

// Session — хранение сессионного токена и восстановление пользователя.
type Session struct {
	store  kvstore.Store
	secret string
	now    func() time.Time
}

// Save сохраняет токен.
func (s *Session) Save(ctx context.Context, token string) error {
	if err := s.store.Set(ctx, TokenKey, []byte(token)); err != nil {
		return fmt.Errorf("ошибка сохранения токена: %w", err)
	}
	return nil
}

// Load возвращает сохранённый токен; false — токена нет.
func (s *Session) Load(ctx context.Context) (string, bool, error) {
	raw, err := s.store.Get(ctx, TokenKey)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("ошибка чтения токена: %w", err)
	}
	if len(raw) == 0 {
		return "", false, nil
	}
	return string(raw), true, nil
}

// Clear удаляет токен (выход из системы).
func (s *Session) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, TokenKey); err != nil {
		return fmt.Errorf("ошибка удаления токена: %w", err)
	}
	return nil
}

// CurrentUser восстанавливает пользователя из сохранённого токена:
// токен есть, подпись верна, срок не истёк. Иначе — ErrNoSession.
func (s *Session) CurrentUser(ctx context.Context) (*model.User, error) {
	token, ok, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoSession
	}
	return UserFromToken(token, s.secret, s.now())
}

// UserFromToken проверяет подпись и срок действия токена и возвращает пользователя.
func UserFromToken(token, secret string, now time.Time) (*model.User, error) {
	if !VerifySignature(token, secret) {
		return nil, fmt.Errorf("%w: неверная подпись", ErrNoSession)
	}
	if IsExpired(token, now) {
		return nil, fmt.Errorf("%w: срок действия истёк", ErrNoSession)
	}
	claims, err := DecodeClaims(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	return claims.User(), nil
}

// CookieStore — kvstore.Store поверх cookie HTTP-запроса.
// Записи попадают в ответ и видны последующим Get в рамках того же запроса.
type CookieStore struct {
	w       http.ResponseWriter
	r       *http.Request
	secure  bool
	pending map[string]*string
}

// NewCookieStore создаёт хранилище для пары запрос/ответ.
func NewCookieStore(w http.ResponseWriter, r *http.Request, secure bool) *CookieStore {
	return &CookieStore{w: w, r: r, secure: secure, pending: make(map[string]*string)}
}

// Get возвращает значение cookie.
func (c *CookieStore) Get(_ context.Context, key string) ([]byte, error) {
	if v, ok := c.pending[key]; ok {
		if v == nil {
			return nil, kvstore.ErrNotFound
		}
		return []byte(*v), nil
	}
	cookie, err := c.r.Cookie(key)
	if err != nil || cookie.Value == "" {
		return nil, kvstore.ErrNotFound
	}
	return []byte(cookie.Value), nil
}

// Set устанавливает cookie в ответ.
func (c *CookieStore) Set(_ context.Context, key string, value []byte) error {
	v := string(value)
	c.pending[key] = &v
	http.SetCookie(c.w, &http.Cookie{
		Name:     key,
		Value:    v,
		Path:     "/",
		MaxAge:   SessionCookieMaxAge,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Delete удаляет cookie.
func (c *CookieStore) Delete(_ context.Context, key string) error {
	c.pending[key] = nil
	http.SetCookie(c.w, &http.Cookie{
		Name:     key,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
