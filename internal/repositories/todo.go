package repositories

import (
	"context"
	"errors"

	"go-todo-app/backend/internal/models"
)

// ErrTodoNotFound はTodoが見つからない場合のエラーです。
var ErrTodoNotFound = errors.New("todo not found")

// TodoRepository は外部ドキュメントストアに対するTodo操作を抽象化するインターフェースです。
// すべてのクエリと更新は所有ユーザーにスコープされます。
type TodoRepository interface {
	// AddTodo は新しいTodoを保存します。IDとタイムスタンプはストアが採番します。
	AddTodo(ctx context.Context, todo *models.Todo) (*models.Todo, error)

	// GetTodos は指定ユーザーのTodoを作成日時の昇順で取得します。
	GetTodos(ctx context.Context, userID string) ([]*models.Todo, error)

	// GetTodoByID は指定IDのTodoを取得します。存在しない場合はErrTodoNotFoundを返します。
	GetTodoByID(ctx context.Context, id string) (*models.Todo, error)

	// UpdateTodo は指定IDのTodoを部分更新します。対象が存在しない場合は失敗します。
	UpdateTodo(ctx context.Context, id string, update models.TodoUpdate) (*models.Todo, error)

	// DeleteTodo は指定IDのTodoを削除します。対象が存在しなかった場合はfalseを返します。
	DeleteTodo(ctx context.Context, id string) (bool, error)

	// ToggleTodoStatus は完了状態を更新します。UpdateTodoのcompletedのみ版です。
	ToggleTodoStatus(ctx context.Context, id string, completed bool) (*models.Todo, error)
}
