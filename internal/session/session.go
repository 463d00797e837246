// Package session は認証済みユーザーごとに状態ストアとユースケース一式を束ねます。
//
// ブラウザのマウントごとに1つのストアが作られるのと同じように、サーバーでは
// 認証済みuidごとに1つのセッションを保持します。HTTPハンドラーはセッションの
// ユースケースを呼び出すだけで、状態遷移そのものには触れません。
package session

import (
	"sync"

	"go-todo-app/backend/internal/models"
	"go-todo-app/backend/internal/repositories"
	"go-todo-app/backend/internal/state"
	"go-todo-app/backend/internal/usecases"
)

// Session は1ユーザー分の状態ストアとユースケースの束です。
type Session struct {
	Store *state.Store
	Auth  *usecases.Auth
	Todos *usecases.Todos

	unbind func()
}

// Manager はuidごとのセッション登録簿です。
type Manager struct {
	authRepo repositories.AuthRepository
	todoRepo repositories.TodoRepository

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager は新しいManagerを作成します。
func NewManager(authRepo repositories.AuthRepository, todoRepo repositories.TodoRepository) *Manager {
	return &Manager{
		authRepo: authRepo,
		todoRepo: todoRepo,
		sessions: make(map[string]*Session),
	}
}

// NewSession はまだuidに紐づいていないセッションを作成します。
// ログイン/登録のユースケースを通すために使い、成功したらBindで登録します。
func (m *Manager) NewSession() *Session {
	store := state.NewStore()
	return &Session{
		Store: store,
		Auth:  usecases.NewAuth(store, m.authRepo),
		Todos: usecases.NewTodos(store, m.todoRepo),
	}
}

// Bind はセッションをuidに登録し、認証状態リスナーを購読します。
// 同じuidの既存セッションは購読を解除したうえで置き換えられます。
// 認証リポジトリのセッションはプロセス全体で共有されるため、リスナーは
// 自分のuidの再サインイン（プロフィール差し替え）にだけ反応します。
// 自分のサインアウトはLogoutユースケースが状態をリセットします。
func (m *Manager) Bind(uid string, sess *Session) {
	sess.unbind = m.authRepo.OnAuthStateChanged(func(user *models.User) {
		if user != nil && user.UID == uid {
			sess.Store.SetUser(user)
		}
	})

	m.mu.Lock()
	old, exists := m.sessions[uid]
	m.sessions[uid] = sess
	m.mu.Unlock()

	if exists && old.unbind != nil {
		old.unbind()
	}
}

// Get は登録済みのセッションを返します。
func (m *Manager) Get(uid string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[uid]
	return sess, ok
}

// GetOrCreate は登録済みのセッションを返すか、無ければ作成して登録します。
// プロセス再起動後に有効なトークンでアクセスされた場合の再構築に使います。
// 認証状態はトークンのクレームから復元されます。
func (m *Manager) GetOrCreate(uid, email string) *Session {
	if sess, ok := m.Get(uid); ok {
		return sess
	}

	sess := m.NewSession()
	sess.Store.SetUser(&models.User{UID: uid, Email: email})
	m.Bind(uid, sess)
	return sess
}

// Remove はセッションの登録を解除し、リスナーの購読を必ず破棄します。
func (m *Manager) Remove(uid string) {
	m.mu.Lock()
	sess, exists := m.sessions[uid]
	delete(m.sessions, uid)
	m.mu.Unlock()

	if exists && sess.unbind != nil {
		sess.unbind()
	}
}
