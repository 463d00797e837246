package repositories

import (
	"context"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go-todo-app/backend/internal/models"
)

// todosCollection はTodoドキュメントを保持するコレクション名です。
const todosCollection = "todos"

// todoDoc はFirestoreに永続化されるTodoドキュメントの形です。
// タイムスタンプはゼロ値のまま書き込むとサーバー側で採番されます。
type todoDoc struct {
	Title     string    `firestore:"title"`
	Completed bool      `firestore:"completed"`
	UserID    string    `firestore:"userId"`
	CreatedAt time.Time `firestore:"createdAt,serverTimestamp"`
	UpdatedAt time.Time `firestore:"updatedAt,serverTimestamp"`
}

// docToTodo はFirestoreのドキュメントをドメインのTodoに変換します。
// サーバータイムスタンプが未解決の場合は現在時刻で代用します（失敗させない）。
func docToTodo(id string, d todoDoc) *models.Todo {
	createdAt := d.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	updatedAt := d.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	return &models.Todo{
		ID:        id,
		Title:     d.Title,
		Completed: d.Completed,
		UserID:    d.UserID,
		CreatedAt: createdAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: updatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// FirestoreTodoRepository はFirestoreをバッキングストアとするTodoRepositoryの実装です。
type FirestoreTodoRepository struct {
	client *firestore.Client
}

// NewFirestoreTodoRepository は新しいFirestoreTodoRepositoryを作成します。
func NewFirestoreTodoRepository(ctx context.Context, projectID string) (*FirestoreTodoRepository, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return &FirestoreTodoRepository{client: client}, nil
}

// Close はFirestoreクライアントを閉じます。
func (r *FirestoreTodoRepository) Close() error {
	return r.client.Close()
}

// AddTodo は新しいTodoをFirestoreに保存します。
// IDはストアが採番し、タイムスタンプはサーバー側で設定されます。
// 返り値のタイムスタンプは渡されたTodoのものを引き継ぎます。
func (r *FirestoreTodoRepository) AddTodo(ctx context.Context, todo *models.Todo) (*models.Todo, error) {
	ref := r.client.Collection(todosCollection).NewDoc()
	_, err := ref.Set(ctx, todoDoc{
		Title:     todo.Title,
		Completed: todo.Completed,
		UserID:    todo.UserID,
	})
	if err != nil {
		log.Printf("Failed to insert todo: %v", err)
		return nil, fmt.Errorf("could not insert todo: %w", err)
	}

	created := *todo
	created.ID = ref.ID
	return &created, nil
}

// GetTodos は指定ユーザーのTodoを作成日時の昇順で取得します。
func (r *FirestoreTodoRepository) GetTodos(ctx context.Context, userID string) ([]*models.Todo, error) {
	iter := r.client.Collection(todosCollection).
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var todos []*models.Todo
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.Printf("Failed to query todos: %v", err)
			return nil, fmt.Errorf("could not query todos: %w", err)
		}

		var d todoDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, fmt.Errorf("could not unmarshal todo: %w", err)
		}
		todos = append(todos, docToTodo(doc.Ref.ID, d))
	}

	return todos, nil
}

// GetTodoByID は指定IDのTodoを取得します。
func (r *FirestoreTodoRepository) GetTodoByID(ctx context.Context, id string) (*models.Todo, error) {
	doc, err := r.client.Collection(todosCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrTodoNotFound
		}
		log.Printf("Failed to query todo by ID: %v", err)
		return nil, fmt.Errorf("could not query todo: %w", err)
	}

	var d todoDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, fmt.Errorf("could not unmarshal todo: %w", err)
	}
	return docToTodo(doc.Ref.ID, d), nil
}

// UpdateTodo は指定IDのTodoを部分更新し、更新後のTodoを返します。
func (r *FirestoreTodoRepository) UpdateTodo(ctx context.Context, id string, update models.TodoUpdate) (*models.Todo, error) {
	updates := []firestore.Update{
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	}
	if update.Title != nil {
		updates = append(updates, firestore.Update{Path: "title", Value: *update.Title})
	}
	if update.Completed != nil {
		updates = append(updates, firestore.Update{Path: "completed", Value: *update.Completed})
	}

	ref := r.client.Collection(todosCollection).Doc(id)
	if _, err := ref.Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrTodoNotFound
		}
		log.Printf("Failed to update todo: %v", err)
		return nil, fmt.Errorf("could not update todo: %w", err)
	}

	// 更新後のTodoを取得して返す
	return r.GetTodoByID(ctx, id)
}

// DeleteTodo は指定IDのTodoを削除します。
// Firestoreの削除は対象が無くても成功するため、先に存在確認を行います。
func (r *FirestoreTodoRepository) DeleteTodo(ctx context.Context, id string) (bool, error) {
	ref := r.client.Collection(todosCollection).Doc(id)
	if _, err := ref.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("could not query todo: %w", err)
	}

	if _, err := ref.Delete(ctx); err != nil {
		log.Printf("Failed to delete todo: %v", err)
		return false, fmt.Errorf("could not delete todo: %w", err)
	}
	return true, nil
}

// ToggleTodoStatus は完了状態を更新します。
func (r *FirestoreTodoRepository) ToggleTodoStatus(ctx context.Context, id string, completed bool) (*models.Todo, error) {
	return r.UpdateTodo(ctx, id, models.TodoUpdate{Completed: &completed})
}
