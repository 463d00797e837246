package usecases_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-todo-app/backend/internal/models"
	"go-todo-app/backend/internal/repositories"
	"go-todo-app/backend/internal/state"
	"go-todo-app/backend/internal/usecases"
)

const testUserID = "user-1"

func newTodoFixture() (*state.Store, *repositories.MemoryTodoRepository, *usecases.Todos) {
	store := state.NewStore()
	repo := repositories.NewMemoryTodoRepository()
	return store, repo, usecases.NewTodos(store, repo)
}

func parseTimestamp(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339Nano, s)
	require.NoError(t, err)
	return parsed
}

func TestAdd_Success(t *testing.T) {
	store, _, todos := newTodoFixture()

	created, err := todos.Add(context.Background(), testUserID, "Buy milk")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Buy milk", created.Title)
	assert.False(t, created.Completed)
	assert.Equal(t, testUserID, created.UserID)

	items := store.Todos().Items
	require.Len(t, items, 1, "provisional entry must not remain alongside the committed one")
	assert.Equal(t, created.ID, items[0].ID)
	assert.Equal(t, "Buy milk", items[0].Title)
}

func TestAdd_ReplacesProvisionalID(t *testing.T) {
	store, _, todos := newTodoFixture()

	created, err := todos.Add(context.Background(), testUserID, "Buy milk")
	require.NoError(t, err)

	// ストアが採番したIDだけが残ること（重複エントリなし）
	items := store.Todos().Items
	require.Len(t, items, 1)
	assert.Equal(t, created.ID, items[0].ID)
}

func TestAdd_ValidationFailsBeforeAnyStateMutation(t *testing.T) {
	store, _, todos := newTodoFixture()

	_, err := todos.Add(context.Background(), testUserID, "   ")
	require.ErrorIs(t, err, models.ErrEmptyTitle)

	_, err = todos.Add(context.Background(), testUserID, strings.Repeat("x", 101))
	require.ErrorIs(t, err, models.ErrTitleTooLong)

	snapshot := store.Todos()
	assert.Empty(t, snapshot.Items, "validation errors must not touch state")
	assert.Empty(t, snapshot.Error)
}

func TestAdd_RemoteFailure_LeavesOptimisticEntry(t *testing.T) {
	store, repo, todos := newTodoFixture()
	repo.FailNextAdd = errors.New("store unavailable")

	_, err := todos.Add(context.Background(), testUserID, "Buy milk")
	require.Error(t, err)

	snapshot := store.Todos()
	assert.NotEmpty(t, snapshot.Error)
	// 追加経路に補償は無い。楽観的エントリは次の全件取得まで残る
	require.Len(t, snapshot.Items, 1)
	assert.Equal(t, "Buy milk", snapshot.Items[0].Title)

	// 全件取得で楽観的エントリが消えること
	require.NoError(t, todos.Fetch(context.Background(), testUserID))
	assert.Empty(t, store.Todos().Items)
}

func TestUpdate_Success(t *testing.T) {
	store, _, todos := newTodoFixture()

	created, err := todos.Add(context.Background(), testUserID, "A")
	require.NoError(t, err)
	before := parseTimestamp(t, created.UpdatedAt)

	completed := true
	updated, err := todos.Update(context.Background(), testUserID, created.ID, models.TodoUpdate{Completed: &completed})
	require.NoError(t, err)
	assert.True(t, updated.Completed)

	items := store.Todos().Items
	require.Len(t, items, 1)
	assert.Equal(t, created.ID, items[0].ID)
	assert.True(t, items[0].Completed)
	assert.Equal(t, "A", items[0].Title)
	assert.True(t, parseTimestamp(t, items[0].UpdatedAt).After(before),
		"UpdatedAt must be strictly greater than its prior value")
}

func TestUpdate_RemoteFailure_KeepsOptimisticPatch(t *testing.T) {
	store, repo, todos := newTodoFixture()

	created, err := todos.Add(context.Background(), testUserID, "A")
	require.NoError(t, err)

	repo.FailNextUpdate = errors.New("store unavailable")
	title := "B"
	_, err = todos.Update(context.Background(), testUserID, created.ID, models.TodoUpdate{Title: &title})
	require.Error(t, err)

	snapshot := store.Todos()
	assert.NotEmpty(t, snapshot.Error)
	// 更新経路にロールバックは無い。楽観的パッチがそのまま残る
	assert.Equal(t, "B", snapshot.Items[0].Title)
}

func TestUpdate_NotFound(t *testing.T) {
	store, _, todos := newTodoFixture()

	title := "B"
	_, err := todos.Update(context.Background(), testUserID, "missing", models.TodoUpdate{Title: &title})
	require.ErrorIs(t, err, repositories.ErrTodoNotFound)
	assert.Empty(t, store.Todos().Items)
}

func TestUpdate_OtherUsersTodoReadsAsNotFound(t *testing.T) {
	store, _, todos := newTodoFixture()

	created, err := todos.Add(context.Background(), testUserID, "mine")
	require.NoError(t, err)

	title := "stolen"
	_, err = todos.Update(context.Background(), "intruder", created.ID, models.TodoUpdate{Title: &title})
	require.ErrorIs(t, err, repositories.ErrTodoNotFound)

	// 状態は変更されない
	assert.Equal(t, "mine", store.Todos().Items[0].Title)
}

func TestToggle_RollsBackOnFailure(t *testing.T) {
	store, repo, todos := newTodoFixture()

	created, err := todos.Add(context.Background(), testUserID, "A")
	require.NoError(t, err)
	require.False(t, created.Completed)

	repo.FailNextUpdate = errors.New("store unavailable")
	_, err = todos.Toggle(context.Background(), testUserID, created.ID, true)
	require.Error(t, err)

	snapshot := store.Todos()
	assert.NotEmpty(t, snapshot.Error)
	assert.False(t, snapshot.Items[0].Completed, "failed toggle must be flipped back")
}

func TestToggle_Success(t *testing.T) {
	store, _, todos := newTodoFixture()

	created, err := todos.Add(context.Background(), testUserID, "A")
	require.NoError(t, err)

	updated, err := todos.Toggle(context.Background(), testUserID, created.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.True(t, store.Todos().Items[0].Completed)
}

func TestDelete_RemovesImmediately(t *testing.T) {
	store, _, todos := newTodoFixture()

	created, err := todos.Add(context.Background(), testUserID, "A")
	require.NoError(t, err)

	require.NoError(t, todos.Delete(context.Background(), testUserID, created.ID))
	assert.Empty(t, store.Todos().Items)

	// リポジトリからも消えていること
	_, err = todos.Select(context.Background(), testUserID, created.ID)
	require.ErrorIs(t, err, repositories.ErrTodoNotFound)
}

func TestDelete_RemoteFailure_RestoresOriginal(t *testing.T) {
	store, repo, todos := newTodoFixture()

	created, err := todos.Add(context.Background(), testUserID, "keep me")
	require.NoError(t, err)

	repo.FailNextDelete = errors.New("store unavailable")
	err = todos.Delete(context.Background(), testUserID, created.ID)
	require.Error(t, err)

	snapshot := store.Todos()
	assert.NotEmpty(t, snapshot.Error)
	require.Len(t, snapshot.Items, 1, "failed delete must restore the original")
	assert.Equal(t, created.ID, snapshot.Items[0].ID)
	assert.Equal(t, "keep me", snapshot.Items[0].Title)
	assert.Equal(t, created.Completed, snapshot.Items[0].Completed)
}

func TestDelete_OtherUsersTodoReadsAsNotFound(t *testing.T) {
	store, _, todos := newTodoFixture()

	created, err := todos.Add(context.Background(), testUserID, "mine")
	require.NoError(t, err)

	err = todos.Delete(context.Background(), "intruder", created.ID)
	require.ErrorIs(t, err, repositories.ErrTodoNotFound)
	require.Len(t, store.Todos().Items, 1)
}

func TestFetch_ReplacesCollection(t *testing.T) {
	store, repo, todos := newTodoFixture()

	_, err := repo.AddTodo(context.Background(), models.NewTodo(testUserID, "first"))
	require.NoError(t, err)
	_, err = repo.AddTodo(context.Background(), models.NewTodo(testUserID, "second"))
	require.NoError(t, err)
	_, err = repo.AddTodo(context.Background(), models.NewTodo("someone-else", "not mine"))
	require.NoError(t, err)

	require.NoError(t, todos.Fetch(context.Background(), testUserID))

	snapshot := store.Todos()
	require.Len(t, snapshot.Items, 2, "fetch must be scoped to the owner")
	assert.Equal(t, "first", snapshot.Items[0].Title)
	assert.Equal(t, "second", snapshot.Items[1].Title)
	assert.False(t, snapshot.IsLoading)
	assert.Empty(t, snapshot.Error)
}

func TestSelect_SetsSelectedTodo(t *testing.T) {
	store, _, todos := newTodoFixture()

	created, err := todos.Add(context.Background(), testUserID, "pick me")
	require.NoError(t, err)

	selected, err := todos.Select(context.Background(), testUserID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, selected.ID)

	snapshot := store.Todos()
	require.NotNil(t, snapshot.SelectedTodo)
	assert.Equal(t, created.ID, snapshot.SelectedTodo.ID)
}
