package usecases

import (
	"go-todo-app/backend/internal/models"
	"go-todo-app/backend/internal/repositories"
	"go-todo-app/backend/internal/state"
)

// BindAuthListener は認証状態の変化を状態ストアに反映するリスナーを登録します。
//
// 登録はストアごとに一度だけ行い、返された関数で解除します。
// サインイン時はユーザーが丸ごと差し替わり、サインアウト時は認証状態の
// クリアとTodoスライスのクリアがセットで行われます。
// このリスナーは、ログイン/登録ユースケース以外で SetUser を呼ぶ唯一の経路です。
func BindAuthListener(store *state.Store, repo repositories.AuthRepository) (unbind func()) {
	return repo.OnAuthStateChanged(func(user *models.User) {
		if user != nil {
			store.SetUser(user)
		} else {
			store.SetUser(nil)
			store.ClearTodos()
		}
		store.SetAuthLoading(false)
	})
}
