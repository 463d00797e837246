package repositories

import (
	"sync"

	"go-todo-app/backend/internal/models"
)

// listenerSet は認証状態リスナーの登録簿です。
// 両方のAuthRepository実装が同じ購読セマンティクスを共有するために使います。
type listenerSet struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]func(*models.User)
}

func newListenerSet() *listenerSet {
	return &listenerSet{listeners: make(map[int]func(*models.User))}
}

// subscribe はコールバックを登録し、解除用の関数を返します。
// 解除は何度呼んでも安全です。
func (s *listenerSet) subscribe(callback func(*models.User)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = callback
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// notify は登録済みのすべてのリスナーを呼び出します。
// コールバック内から購読解除できるよう、ロックの外で呼び出します。
func (s *listenerSet) notify(user *models.User) {
	s.mu.Lock()
	callbacks := make([]func(*models.User), 0, len(s.listeners))
	for _, cb := range s.listeners {
		callbacks = append(callbacks, cb)
	}
	s.mu.Unlock()

	for _, cb := range callbacks {
		cb(user)
	}
}
