// Package state はアプリケーション状態コンテナを提供します。
//
// 状態は認証とTodoの2つの独立したスライスからなり、定義された遷移メソッド
// 以外からは変更できません。すべての遷移は同期的で、失敗せず、自然に
// 冪等なものは冪等です（存在しないIDの削除はno-op、など）。
// 状態はプロセス再起動をまたいで保持されません。バッキングサービスの
// 現在のセッションとTodoの再取得から再構築されます。
package state

import (
	"sync"

	"go-todo-app/backend/internal/models"
)

// AuthState は認証スライスです。IsAuthenticatedは常に User != nil と一致します。
type AuthState struct {
	User            *models.User `json:"user"`
	IsAuthenticated bool         `json:"is_authenticated"`
	IsLoading       bool         `json:"is_loading"`
	Error           string       `json:"error,omitempty"`
}

// TodoState はTodoスライスです。Itemsの順序は表示順として意味を持ちます。
type TodoState struct {
	Items        []*models.Todo `json:"items"`
	IsLoading    bool           `json:"is_loading"`
	Error        string         `json:"error,omitempty"`
	SelectedTodo *models.Todo   `json:"selected_todo,omitempty"`
}

// TodoPatch はUpdateTodoLocalに渡す部分更新です。
// UpdatedAtが空の場合は現在時刻が使われます。
type TodoPatch struct {
	ID        string
	Title     *string
	Completed *bool
	UpdatedAt string
}

// PatchFromTodo はストアが返した確定済みのTodoを丸ごと適用するためのパッチを作ります。
func PatchFromTodo(t *models.Todo) TodoPatch {
	title := t.Title
	completed := t.Completed
	return TodoPatch{
		ID:        t.ID,
		Title:     &title,
		Completed: &completed,
		UpdatedAt: t.UpdatedAt,
	}
}

// Store は明示的に構築して依存性注入するアプリケーション状態コンテナです。
// ginのハンドラーは複数のgoroutineで動くため、遷移はミューテックスで
// 直列化されます。個々の遷移は互いにアトミックです。
type Store struct {
	mu    sync.Mutex
	auth  AuthState
	todos TodoState
}

// NewStore は初期状態のStoreを作成します。
func NewStore() *Store {
	return &Store{}
}

// Auth は認証スライスのスナップショットを返します。
func (s *Store) Auth() AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auth
}

// Todos はTodoスライスのスナップショットを返します。Itemsはコピーです。
func (s *Store) Todos() TodoState {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.todos
	snapshot.Items = make([]*models.Todo, len(s.todos.Items))
	copy(snapshot.Items, s.todos.Items)
	return snapshot
}

// ---- 認証スライスの遷移 ----

// SetUser は現在のユーザーを設定します。
// IsAuthenticatedが導出され、ローディングとエラーはクリアされます。
func (s *Store) SetUser(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth.User = user
	s.auth.IsAuthenticated = user != nil
	s.auth.IsLoading = false
	s.auth.Error = ""
}

// SetAuthLoading は認証スライスのローディング状態を設定します。
func (s *Store) SetAuthLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth.IsLoading = loading
}

// SetAuthError は認証スライスのエラーを設定し、ローディングをクリアします。
func (s *Store) SetAuthError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth.Error = message
	s.auth.IsLoading = false
}

// ClearAuthError は認証スライスのエラーをクリアします。
func (s *Store) ClearAuthError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth.Error = ""
}

// ResetState は認証スライスを初期化します（ログアウト）。
func (s *Store) ResetState() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth.User = nil
	s.auth.IsAuthenticated = false
	s.auth.Error = ""
}

// ---- Todoスライスの遷移 ----

// SetTodos はコレクション全体を置き換え、ローディングとエラーをクリアします。
func (s *Store) SetTodos(todos []*models.Todo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.todos.Items = make([]*models.Todo, len(todos))
	copy(s.todos.Items, todos)
	s.todos.IsLoading = false
	s.todos.Error = ""
}

// AddTodoLocal はTodoを末尾に追加します（楽観的挿入）。
func (s *Store) AddTodoLocal(todo *models.Todo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *todo
	s.todos.Items = append(s.todos.Items, &copied)
}

// RemoveTodoLocal は指定IDのTodoを除外します（楽観的削除）。
// 存在しないIDはno-opです。
func (s *Store) RemoveTodoLocal(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

// DeleteTodoLocal は指定IDのTodoを除外します。
// RemoveTodoLocalの別名で、確定後の削除に使います。
func (s *Store) DeleteTodoLocal(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

func (s *Store) removeLocked(id string) {
	items := s.todos.Items[:0]
	for _, t := range s.todos.Items {
		if t.ID != id {
			items = append(items, t)
		}
	}
	s.todos.Items = items
}

// UpdateTodoLocal はIDが一致するTodoにパッチをマージします。
// UpdatedAtはパッチの値、無ければ現在時刻に更新されます。
// IDが見つからない場合はno-opです。
func (s *Store) UpdateTodoLocal(patch TodoPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.todos.Items {
		if t.ID != patch.ID {
			continue
		}
		updated := *t
		if patch.Title != nil {
			updated.Title = *patch.Title
		}
		if patch.Completed != nil {
			updated.Completed = *patch.Completed
		}
		if patch.UpdatedAt != "" {
			updated.UpdatedAt = patch.UpdatedAt
		} else {
			updated.UpdatedAt = models.TimestampNow()
		}
		s.todos.Items[i] = &updated
		return
	}
}

// ToggleTodoLocal は指定IDのTodoの完了状態を反転します。
// IDが見つからない場合はno-opです。
func (s *Store) ToggleTodoLocal(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.todos.Items {
		if t.ID == id {
			toggled := *t
			toggled.Completed = !toggled.Completed
			s.todos.Items[i] = &toggled
			return
		}
	}
}

// SetSelectedTodo は選択中のTodoを設定します。
func (s *Store) SetSelectedTodo(todo *models.Todo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.todos.SelectedTodo = todo
}

// SetTodosLoading はTodoスライスのローディング状態を設定します。
func (s *Store) SetTodosLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.todos.IsLoading = loading
}

// SetTodosError はTodoスライスのエラーを設定し、ローディングをクリアします。
func (s *Store) SetTodosError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.todos.Error = message
	s.todos.IsLoading = false
}

// ClearTodos はTodoスライスを初期化します（ログアウト時）。
func (s *Store) ClearTodos() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.todos.Items = nil
	s.todos.SelectedTodo = nil
	s.todos.Error = ""
	s.todos.IsLoading = false
}
