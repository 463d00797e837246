// Package modelsはTodoとUserのドメインエンティティを定義します。
package models

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTitleLength はタイトルの最大文字数です。
const MaxTitleLength = 100

var (
	// ErrEmptyTitle はタイトルが空の場合のエラーです。
	ErrEmptyTitle = errors.New("title must not be empty")
	// ErrTitleTooLong はタイトルが長すぎる場合のエラーです。
	ErrTitleTooLong = errors.New("title must be 100 characters or less")
)

// Todo は ToDoタスクを表します。
// タイムスタンプはストアおよびクライアントとの互換性のためRFC3339文字列で保持します。
// IDはバッキングストアが採番するため、永続化されるまでは空です。
// 永続化待ちの間は仮のIDを持つことがありますが、そのIDは安定したものとは
// 見なされず、ストアが採番したIDに必ず置き換えられます。
type Todo struct {
	ID        string `json:"id,omitempty"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	UserID    string `json:"user_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// TodoUpdate はTodoの部分更新を表します。nilのフィールドは変更されません。
type TodoUpdate struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// NewTodo は新しいTodoを作成します。
// completedはfalse、createdAt/updatedAtは現在時刻でスタンプされます。
// IDはここでは設定しません（バッキングストアが採番します）。
func NewTodo(userID, title string) *Todo {
	now := TimestampNow()
	return &Todo{
		Title:     title,
		Completed: false,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TimestampNow は現在時刻をRFC3339文字列で返します。
func TimestampNow() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// ValidateTitle はタイトルのバリデーションポリシーを適用します。
// 空（空白のみを含む）または100文字を超えるタイトルは拒否されます。
func ValidateTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return ErrEmptyTitle
	}
	if utf8.RuneCountInString(trimmed) > MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

// TodoCreateRequest はTodo作成リクエストの構造体です。
type TodoCreateRequest struct {
	Title string `json:"title" binding:"required,max=100"`
}

// TodoUpdateRequest はTodo更新リクエストの構造体です。
type TodoUpdateRequest struct {
	Title     *string `json:"title,omitempty" binding:"omitempty,max=100"`
	Completed *bool   `json:"completed,omitempty"`
}

// TodoToggleRequest は完了状態の切り替えリクエストの構造体です。
type TodoToggleRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}
