package usecases

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"go-todo-app/backend/internal/models"
	"go-todo-app/backend/internal/repositories"
	"go-todo-app/backend/internal/state"
)

// Todos はTodo変更の楽観的更新を編成するユースケースです。
//
// 変更系の各ユースケースは、楽観的なローカル書き込み → リモート呼び出し →
// 照合または補償、という固定の順序で進みます。リモート呼び出しが同期的に
// 完了する場合でもこの順序は入れ替わりません。
type Todos struct {
	store *state.Store
	repo  repositories.TodoRepository
}

// NewTodos は新しいTodosユースケースを作成します。
func NewTodos(store *state.Store, repo repositories.TodoRepository) *Todos {
	return &Todos{store: store, repo: repo}
}

// Fetch は指定ユーザーのTodoを取得してコレクション全体を置き換えます。
func (u *Todos) Fetch(ctx context.Context, userID string) error {
	u.store.SetTodosLoading(true)

	todos, err := u.repo.GetTodos(ctx, userID)
	if err != nil {
		u.store.SetTodosError(errorMessage(err, "failed to fetch todos"))
		return err
	}

	u.store.SetTodos(todos)
	return nil
}

// Add は新しいTodoを作成します。
//
// 仮のIDを採番したTodoを即座に状態へ追加し（楽観的挿入）、その後ストアへ
// 保存します。ストアが採番したIDが仮のIDと異なる場合は、仮のエントリを
// 取り除いてから確定済みのエントリを追加します（2段階の置き換え。状態の
// 購読者からはきれいな遷移として見えます）。
// リモートが失敗しても楽観的エントリは取り除かれず、次の全件取得まで
// 残ります（既知の非対称性。削除経路だけが補償を持ちます）。
func (u *Todos) Add(ctx context.Context, userID, title string) (*models.Todo, error) {
	if err := models.ValidateTitle(title); err != nil {
		return nil, err
	}

	optimistic := models.NewTodo(userID, title)
	optimistic.ID = uuid.NewString()
	u.store.AddTodoLocal(optimistic)

	pending := *optimistic
	pending.ID = ""
	created, err := u.repo.AddTodo(ctx, &pending)
	if err != nil {
		u.store.SetTodosError(errorMessage(err, "failed to add todo"))
		return nil, err
	}

	if created.ID != optimistic.ID {
		u.store.RemoveTodoLocal(optimistic.ID)
		u.store.AddTodoLocal(created)
	}
	return created, nil
}

// Update は既存のTodoを部分更新します。
//
// パッチを即座に状態へ適用し（楽観的更新）、その後ストアへ反映します。
// 成功時はストアが返した確定済みのTodoをもう一度適用して、サーバー側でのみ
// 変わったフィールドを照合します。失敗時はエラーを書いて返しますが、
// 楽観的パッチのロールバックは行いません（既知の非対称性）。
func (u *Todos) Update(ctx context.Context, userID, id string, update models.TodoUpdate) (*models.Todo, error) {
	if update.Title != nil {
		if err := models.ValidateTitle(*update.Title); err != nil {
			return nil, err
		}
	}
	if err := u.authorize(ctx, userID, id); err != nil {
		return nil, err
	}

	u.store.UpdateTodoLocal(state.TodoPatch{
		ID:        id,
		Title:     update.Title,
		Completed: update.Completed,
	})

	updated, err := u.repo.UpdateTodo(ctx, id, update)
	if err != nil {
		u.store.SetTodosError(errorMessage(err, "failed to update todo"))
		return nil, err
	}

	u.store.UpdateTodoLocal(state.PatchFromTodo(updated))
	return updated, nil
}

// Toggle は完了状態を切り替えます。
//
// ローカルで即座に反転し、その後ストアへ反映します。失敗時は反転を
// 元に戻します（反転は正確に戻せるため、この経路は補償を持ちます）。
func (u *Todos) Toggle(ctx context.Context, userID, id string, completed bool) (*models.Todo, error) {
	if err := u.authorize(ctx, userID, id); err != nil {
		return nil, err
	}

	u.store.ToggleTodoLocal(id)

	updated, err := u.repo.ToggleTodoStatus(ctx, id, completed)
	if err != nil {
		u.store.SetTodosError(errorMessage(err, "failed to toggle todo"))
		u.store.ToggleTodoLocal(id)
		return nil, err
	}

	u.store.UpdateTodoLocal(state.PatchFromTodo(updated))
	return updated, nil
}

// Delete はTodoを削除します。
//
// 状態から即座に取り除き（楽観的削除）、その後ストアから削除します。
// ストアが削除しなかったと報告した場合も失敗として扱います。
// 失敗時はエラーを書き、取り除いたTodoを状態に戻します（補償ロールバック）。
func (u *Todos) Delete(ctx context.Context, userID, id string) error {
	original, err := u.repo.GetTodoByID(ctx, id)
	if err != nil {
		return err
	}
	if original.UserID != userID {
		return repositories.ErrTodoNotFound
	}

	u.store.RemoveTodoLocal(id)

	deleted, err := u.repo.DeleteTodo(ctx, id)
	if err == nil && !deleted {
		err = errors.New("failed to delete todo")
	}
	if err != nil {
		u.store.SetTodosError(errorMessage(err, "failed to delete todo"))
		u.store.AddTodoLocal(original)
		return err
	}
	return nil
}

// Select は指定IDのTodoを取得して選択状態にします。
func (u *Todos) Select(ctx context.Context, userID, id string) (*models.Todo, error) {
	todo, err := u.repo.GetTodoByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if todo.UserID != userID {
		return nil, repositories.ErrTodoNotFound
	}

	u.store.SetSelectedTodo(todo)
	return todo, nil
}

// authorize は対象のTodoが指定ユーザーの所有であることを確認します。
// 他ユーザーのTodoは存在しないものとして扱います。
// 所有確認は楽観的書き込みより前に行われ、違反時には状態は変更されません。
func (u *Todos) authorize(ctx context.Context, userID, id string) error {
	existing, err := u.repo.GetTodoByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.UserID != userID {
		return repositories.ErrTodoNotFound
	}
	return nil
}
