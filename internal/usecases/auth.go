// Package usecases は状態遷移とリモート呼び出しを編成するユースケースを提供します。
//
// 各ユースケースは共通の形に従います: ローディングを立てる → リモート操作を
// 試みる → 成功なら結果を状態ストアへコミット / 失敗ならエラーを状態に書いた
// うえで呼び出し元へ返す → 最後に必ずローディングを下ろす。
// エラーは握りつぶしません。状態のerrorにも書き、エラーとしても返します。
package usecases

import (
	"context"

	"go-todo-app/backend/internal/models"
	"go-todo-app/backend/internal/repositories"
	"go-todo-app/backend/internal/state"
)

// errorMessage はエラーを表示用メッセージに正規化します。
// メッセージを持たないエラーには汎用のフォールバック文字列を使います。
func errorMessage(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}

// Auth は認証のユースケースです。
// 状態ストアとリポジトリは明示的な依存として注入されます。
type Auth struct {
	store *state.Store
	repo  repositories.AuthRepository
}

// NewAuth は新しいAuthユースケースを作成します。
func NewAuth(store *state.Store, repo repositories.AuthRepository) *Auth {
	return &Auth{store: store, repo: repo}
}

// Register は新しいユーザーを登録し、成功したら認証状態にコミットします。
func (u *Auth) Register(ctx context.Context, email, password string) (*models.User, error) {
	u.store.SetAuthLoading(true)
	defer u.store.SetAuthLoading(false)

	user, err := u.repo.RegisterUser(ctx, email, password)
	if err != nil {
		u.store.SetAuthError(errorMessage(err, "failed to register"))
		return nil, err
	}

	u.store.SetUser(user)
	return user, nil
}

// Login はユーザーを認証し、成功したら認証状態にコミットします。
func (u *Auth) Login(ctx context.Context, email, password string) (*models.User, error) {
	u.store.SetAuthLoading(true)
	defer u.store.SetAuthLoading(false)

	user, err := u.repo.LoginUser(ctx, email, password)
	if err != nil {
		u.store.SetAuthError(errorMessage(err, "failed to login"))
		return nil, err
	}

	u.store.SetUser(user)
	return user, nil
}

// Logout はセッションを終了します。
// 成功時は認証状態のリセットとTodoスライスのクリアを必ずセットで行います。
func (u *Auth) Logout(ctx context.Context) error {
	u.store.SetAuthLoading(true)
	defer u.store.SetAuthLoading(false)

	if err := u.repo.LogoutUser(ctx); err != nil {
		u.store.SetAuthError(errorMessage(err, "failed to logout"))
		return err
	}

	u.store.ResetState()
	u.store.ClearTodos()
	return nil
}
