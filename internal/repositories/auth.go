// Package repositories はバッキングサービスへのアクセスを抽象化するリポジトリを提供します。
package repositories

import (
	"context"
	"errors"

	"go-todo-app/backend/internal/models"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("duplicate email")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

// AuthRepository は外部認証サービスに対する操作を抽象化するインターフェースです。
// 実装は internal/repositories/identity_auth.go（本番）と memory.go（テスト・ローカル用）にあります。
type AuthRepository interface {
	// RegisterUser は新しいユーザーを登録します。
	RegisterUser(ctx context.Context, email, password string) (*models.User, error)

	// LoginUser はユーザーを認証します。
	LoginUser(ctx context.Context, email, password string) (*models.User, error)

	// LogoutUser は現在のセッションを終了します。
	LogoutUser(ctx context.Context) error

	// CurrentUser は現在サインインしているユーザーを返します。
	// サインアウト状態では (nil, nil) を返します。
	CurrentUser(ctx context.Context) (*models.User, error)

	// OnAuthStateChanged は認証状態の変化を購読します。
	// サインイン時はユーザー、サインアウト時はnilでコールバックが呼ばれます。
	// 返される関数を呼ぶと購読が解除されます。
	OnAuthStateChanged(callback func(*models.User)) (unsubscribe func())
}
