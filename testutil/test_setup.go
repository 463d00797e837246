// Package testutil はテスト用の共通セットアップを提供します。
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"go-todo-app/backend/internal/models"
	"go-todo-app/backend/internal/repositories"
	"go-todo-app/backend/internal/routes"
	"go-todo-app/backend/internal/services"
)

// テストで使うシードユーザー
const (
	NormalUserEmail    = "normal_user@example.com"
	NormalUserPassword = "password123"
	SecondUserEmail    = "second_user@example.com"
	SecondUserPassword = "password456"
)

// SetupTestRouter はインメモリバックエンドでルーターを組み立て、
// シードユーザーを投入して返します。外部サービスは不要です。
func SetupTestRouter(t *testing.T) (*gin.Engine, *repositories.MemoryAuthRepository, *repositories.MemoryTodoRepository) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret-key")
	gin.SetMode(gin.TestMode)

	authRepo := repositories.NewMemoryAuthRepository()
	todoRepo := repositories.NewMemoryTodoRepository()

	// シードユーザーを作成してサインアウト状態に戻しておく
	ctx := context.Background()
	_, err := authRepo.RegisterUser(ctx, NormalUserEmail, NormalUserPassword)
	require.NoError(t, err)
	_, err = authRepo.RegisterUser(ctx, SecondUserEmail, SecondUserPassword)
	require.NoError(t, err)
	require.NoError(t, authRepo.LogoutUser(ctx))

	jwtService := services.NewJWTService()
	r := routes.SetupRouter(authRepo, todoRepo, jwtService)
	return r, authRepo, todoRepo
}

// LoginAndGetToken はログインAPIを呼んでセッショントークンを取得します。
func LoginAndGetToken(t *testing.T, r *gin.Engine, email, password string) (string, error) {
	t.Helper()

	body, _ := json.Marshal(models.UserLoginRequest{Email: email, Password: password})
	req, _ := http.NewRequest("POST", "/api/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("no token in login response")
	}
	return resp.Token, nil
}

// CreateTestTodo はAPI経由でTodoを作成します。completedがtrueの場合は
// 作成後に切り替えAPIで完了状態にします。
func CreateTestTodo(t *testing.T, r *gin.Engine, token, title string, completed bool) models.Todo {
	t.Helper()

	body, _ := json.Marshal(models.TodoCreateRequest{Title: title})
	req, _ := http.NewRequest("POST", "/api/todos", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, "failed to create test todo: %s", w.Body.String())

	var created models.Todo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	if completed {
		toggleBody, _ := json.Marshal(map[string]bool{"completed": true})
		req, _ := http.NewRequest("PATCH", "/api/todos/"+created.ID+"/toggle", bytes.NewBuffer(toggleBody))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, "failed to toggle test todo: %s", w.Body.String())
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	}

	return created
}
