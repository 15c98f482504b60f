// snapshot.go — рассылка актуального списка товаров подписчикам (SSE).
package service

import (
	"sync"

	"github.com/bigkaa/goartstore/catalog-admin/internal/domain/model"
)

// Snapshot хранит последний опубликованный список товаров и рассылает его
// подписчикам. Канал подписчика имеет буфер 1: медленный подписчик получает
// только самый свежий снимок.
type Snapshot struct {
	mu          sync.Mutex
	current     []model.Product
	published   bool
	nextID      int
	subscribers map[int]chan []model.Product
}

// NewSnapshot создаёт пустой broadcaster.
func NewSnapshot() *Snapshot {
	return &Snapshot{subscribers: make(map[int]chan []model.Product)}
}

// Publish заменяет текущий снимок и рассылает его всем подписчикам.
func (s *Snapshot) Publish(products []model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = products
	s.published = true
	for _, ch := range s.subscribers {
		offer(ch, products)
	}
}

// PublishInitial публикует снимок, только если публикаций ещё не было.
// Возвращает true, если снимок опубликован.
func (s *Snapshot) PublishInitial(products []model.Product) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.published {
		return false
	}
	s.current = products
	s.published = true
	for _, ch := range s.subscribers {
		offer(ch, products)
	}
	return true
}

// Current возвращает текущий снимок и false, если публикаций ещё не было.
func (s *Snapshot) Current() ([]model.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.published
}

// Subscribe возвращает канал снимков и функцию отписки.
// Если снимок уже опубликован, он сразу доступен в канале.
// После отписки канал закрывается.
func (s *Snapshot) Subscribe() (<-chan []model.Product, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan []model.Product, 1)
	if s.published {
		ch <- s.current
	}
	s.subscribers[id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subscribers, id)
			close(ch)
		})
	}
	return ch, unsubscribe
}

// Subscribers возвращает количество активных подписчиков.
func (s *Snapshot) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

// offer кладёт снимок в канал, вытесняя непрочитанный.
func offer(ch chan []model.Product, products []model.Product) {
	select {
	case ch <- products:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- products:
	default:
	}
}
