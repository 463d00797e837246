package repositories

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"go-todo-app/backend/internal/models"
)

// MemoryAuthRepository はAuthRepositoryのインメモリ実装です。
// テストと AUTH_BACKEND=memory でのローカル開発に使います。
// パスワードは平文ではなくbcryptハッシュで保持します。
type MemoryAuthRepository struct {
	listeners *listenerSet

	mu      sync.Mutex
	users   map[string]*memoryAccount // email -> account
	current *models.User
}

type memoryAccount struct {
	user *models.User
	hash []byte
}

// NewMemoryAuthRepository は新しいMemoryAuthRepositoryを作成します。
func NewMemoryAuthRepository() *MemoryAuthRepository {
	return &MemoryAuthRepository{
		listeners: newListenerSet(),
		users:     make(map[string]*memoryAccount),
	}
}

// RegisterUser は新しいユーザーを登録し、サインイン状態にします。
func (r *MemoryAuthRepository) RegisterUser(ctx context.Context, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if _, exists := r.users[email]; exists {
		r.mu.Unlock()
		return nil, ErrDuplicateEmail
	}
	user := models.NewUser(uuid.NewString(), email, "", "")
	r.users[email] = &memoryAccount{user: user, hash: hash}
	r.current = user
	r.mu.Unlock()

	r.listeners.notify(user)
	return copyUser(user), nil
}

// LoginUser はメールアドレスとパスワードでユーザーを認証します。
func (r *MemoryAuthRepository) LoginUser(ctx context.Context, email, password string) (*models.User, error) {
	r.mu.Lock()
	account, exists := r.users[email]
	r.mu.Unlock()
	if !exists {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(account.hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	r.mu.Lock()
	r.current = account.user
	r.mu.Unlock()

	r.listeners.notify(account.user)
	return copyUser(account.user), nil
}

// LogoutUser は現在のセッションを終了します。
func (r *MemoryAuthRepository) LogoutUser(ctx context.Context) error {
	r.mu.Lock()
	r.current = nil
	r.mu.Unlock()

	r.listeners.notify(nil)
	return nil
}

// CurrentUser は現在サインインしているユーザーを返します。
func (r *MemoryAuthRepository) CurrentUser(ctx context.Context) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return nil, nil
	}
	return copyUser(r.current), nil
}

// OnAuthStateChanged は認証状態の変化を購読します。
func (r *MemoryAuthRepository) OnAuthStateChanged(callback func(*models.User)) func() {
	return r.listeners.subscribe(callback)
}

func copyUser(u *models.User) *models.User {
	copied := *u
	return &copied
}

// MemoryTodoRepository はTodoRepositoryのインメモリ実装です。
// IDはuuidで採番し、挿入順を保持します。
// FailNext* にエラーを設定すると次の該当操作が一度だけ失敗します
// （ロールバック経路のテスト用）。
type MemoryTodoRepository struct {
	mu    sync.Mutex
	todos []*models.Todo

	FailNextAdd    error
	FailNextUpdate error
	FailNextDelete error
}

// NewMemoryTodoRepository は新しいMemoryTodoRepositoryを作成します。
func NewMemoryTodoRepository() *MemoryTodoRepository {
	return &MemoryTodoRepository{}
}

// AddTodo は新しいTodoを保存します。IDとタイムスタンプを採番します。
func (r *MemoryTodoRepository) AddTodo(ctx context.Context, todo *models.Todo) (*models.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.FailNextAdd; err != nil {
		r.FailNextAdd = nil
		return nil, err
	}

	created := *todo
	created.ID = uuid.NewString()
	now := models.TimestampNow()
	created.CreatedAt = now
	created.UpdatedAt = now
	r.todos = append(r.todos, &created)

	result := created
	return &result, nil
}

// GetTodos は指定ユーザーのTodoを挿入順（＝作成順）で取得します。
func (r *MemoryTodoRepository) GetTodos(ctx context.Context, userID string) ([]*models.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var todos []*models.Todo
	for _, t := range r.todos {
		if t.UserID == userID {
			copied := *t
			todos = append(todos, &copied)
		}
	}
	return todos, nil
}

// GetTodoByID は指定IDのTodoを取得します。
func (r *MemoryTodoRepository) GetTodoByID(ctx context.Context, id string) (*models.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.todos {
		if t.ID == id {
			copied := *t
			return &copied, nil
		}
	}
	return nil, ErrTodoNotFound
}

// UpdateTodo は指定IDのTodoを部分更新します。
func (r *MemoryTodoRepository) UpdateTodo(ctx context.Context, id string, update models.TodoUpdate) (*models.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.FailNextUpdate; err != nil {
		r.FailNextUpdate = nil
		return nil, err
	}

	for _, t := range r.todos {
		if t.ID != id {
			continue
		}
		if update.Title != nil {
			t.Title = *update.Title
		}
		if update.Completed != nil {
			t.Completed = *update.Completed
		}
		t.UpdatedAt = models.TimestampNow()
		copied := *t
		return &copied, nil
	}
	return nil, ErrTodoNotFound
}

// DeleteTodo は指定IDのTodoを削除します。対象が無かった場合はfalseを返します。
func (r *MemoryTodoRepository) DeleteTodo(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.FailNextDelete; err != nil {
		r.FailNextDelete = nil
		return false, err
	}

	for i, t := range r.todos {
		if t.ID == id {
			r.todos = append(r.todos[:i], r.todos[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ToggleTodoStatus は完了状態を更新します。
func (r *MemoryTodoRepository) ToggleTodoStatus(ctx context.Context, id string, completed bool) (*models.Todo, error) {
	return r.UpdateTodo(ctx, id, models.TodoUpdate{Completed: &completed})
}
