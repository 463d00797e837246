package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-todo-app/backend/internal/models"
	"go-todo-app/backend/testutil"
)

func TestCreateTodo_Success(t *testing.T) {
	r, _, _ := testutil.SetupTestRouter(t)

	token, err := testutil.LoginAndGetToken(t, r, testutil.NormalUserEmail, testutil.NormalUserPassword)
	require.NoError(t, err)

	body, _ := json.Marshal(models.TodoCreateRequest{Title: "Test Todo"})
	req, _ := http.NewRequest("POST", "/api/todos", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code, "Expected HTTP Status Code 201 Created")
	var created models.Todo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	assert.NotEmpty(t, created.ID, "Expected a store-assigned Todo ID")
	assert.Equal(t, "Test Todo", created.Title)
	assert.False(t, created.Completed, "Expected completed to be false")
	assert.NotEmpty(t, created.UserID)

	createdAt, err := time.Parse(time.RFC3339Nano, created.CreatedAt)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now(), createdAt, 5*time.Second)
}

func TestCreateTodo_Unauthorized(t *testing.T) {
	r, _, _ := testutil.SetupTestRouter(t)

	body, _ := json.Marshal(models.TodoCreateRequest{Title: "Test Todo"})
	req, _ := http.NewRequest("POST", "/api/todos", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateTodo_ValidationErrors(t *testing.T) {
	r, _, _ := testutil.SetupTestRouter(t)

	token, err := testutil.LoginAndGetToken(t, r, testutil.NormalUserEmail, testutil.NormalUserPassword)
	require.NoError(t, err)

	cases := []struct {
		name string
		body string
	}{
		{"missing title", `{}`},
		{"blank title", `{"title":"   "}`},
		{"too long title", `{"title":"` + strings.Repeat("x", 101) + `"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, _ := http.NewRequest("POST", "/api/todos", bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGetTodos_ScopedToOwner(t *testing.T) {
	r, _, _ := testutil.SetupTestRouter(t)

	tokenNormal, err := testutil.LoginAndGetToken(t, r, testutil.NormalUserEmail, testutil.NormalUserPassword)
	require.NoError(t, err)
	tokenSecond, err := testutil.LoginAndGetToken(t, r, testutil.SecondUserEmail, testutil.SecondUserPassword)
	require.NoError(t, err)

	todo1 := testutil.CreateTestTodo(t, r, tokenNormal, "Normal User Todo 1", false)
	todo2 := testutil.CreateTestTodo(t, r, tokenNormal, "Normal User Todo 2", true)
	_ = testutil.CreateTestTodo(t, r, tokenSecond, "Second User Todo", false)

	req, _ := http.NewRequest("GET", "/api/todos", nil)
	req.Header.Set("Authorization", "Bearer "+tokenNormal)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var todos []models.Todo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &todos))
	require.Len(t, todos, 2, "only the owner's todos must be returned")
	assert.Equal(t, todo1.ID, todos[0].ID)
	assert.Equal(t, todo2.ID, todos[1].ID)
	assert.True(t, todos[1].Completed)
	for _, todo := range todos {
		assert.Equal(t, todo1.UserID, todo.UserID)
	}
}

func TestGetTodoByID(t *testing.T) {
	r, _, _ := testutil.SetupTestRouter(t)

	token, err := testutil.LoginAndGetToken(t, r, testutil.NormalUserEmail, testutil.NormalUserPassword)
	require.NoError(t, err)
	created := testutil.CreateTestTodo(t, r, token, "find me", false)

	req, _ := http.NewRequest("GET", "/api/todos/"+created.ID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var fetched models.Todo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "find me", fetched.Title)
}

func TestGetTodoByID_OtherUsersTodoIsNotFound(t *testing.T) {
	r, _, _ := testutil.SetupTestRouter(t)

	tokenNormal, err := testutil.LoginAndGetToken(t, r, testutil.NormalUserEmail, testutil.NormalUserPassword)
	require.NoError(t, err)
	tokenSecond, err := testutil.LoginAndGetToken(t, r, testutil.SecondUserEmail, testutil.SecondUserPassword)
	require.NoError(t, err)

	created := testutil.CreateTestTodo(t, r, tokenNormal, "private", false)

	req, _ := http.NewRequest("GET", "/api/todos/"+created.ID, nil)
	req.Header.Set("Authorization", "Bearer "+tokenSecond)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code, "another user's todo must read as not found")
}

func TestUpdateTodo(t *testing.T) {
	r, _, _ := testutil.SetupTestRouter(t)

	token, err := testutil.LoginAndGetToken(t, r, testutil.NormalUserEmail, testutil.NormalUserPassword)
	require.NoError(t, err)
	created := testutil.CreateTestTodo(t, r, token, "before", false)

	body := []byte(`{"title":"after","completed":true}`)
	req, _ := http.NewRequest("PUT", "/api/todos/"+created.ID, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var updated models.Todo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "after", updated.Title)
	assert.True(t, updated.Completed)
}

func TestUpdateTodo_NotFound(t *testing.T) {
	r, _, _ := testutil.SetupTestRouter(t)

	token, err := testutil.LoginAndGetToken(t, r, testutil.NormalUserEmail, testutil.NormalUserPassword)
	require.NoError(t, err)

	body := []byte(`{"title":"after"}`)
	req, _ := http.NewRequest("PUT", "/api/todos/missing-id", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestToggleTodo(t *testing.T) {
	r, _, _ := testutil.SetupTestRouter(t)

	token, err := testutil.LoginAndGetToken(t, r, testutil.NormalUserEmail, testutil.NormalUserPassword)
	require.NoError(t, err)
	created := testutil.CreateTestTodo(t, r, token, "toggle me", false)

	body := []byte(`{"completed":true}`)
	req, _ := http.NewRequest("PATCH", "/api/todos/"+created.ID+"/toggle", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var toggled models.Todo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &toggled))
	assert.True(t, toggled.Completed)
	assert.Equal(t, "toggle me", toggled.Title)
}

func TestDeleteTodo(t *testing.T) {
	r, _, _ := testutil.SetupTestRouter(t)

	token, err := testutil.LoginAndGetToken(t, r, testutil.NormalUserEmail, testutil.NormalUserPassword)
	require.NoError(t, err)
	created := testutil.CreateTestTodo(t, r, token, "delete me", false)

	req, _ := http.NewRequest("DELETE", "/api/todos/"+created.ID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)

	// 削除後は取得できない
	req, _ = http.NewRequest("GET", "/api/todos/"+created.ID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteTodo_OtherUsersTodoIsNotFound(t *testing.T) {
	r, _, _ := testutil.SetupTestRouter(t)

	tokenNormal, err := testutil.LoginAndGetToken(t, r, testutil.NormalUserEmail, testutil.NormalUserPassword)
	require.NoError(t, err)
	tokenSecond, err := testutil.LoginAndGetToken(t, r, testutil.SecondUserEmail, testutil.SecondUserPassword)
	require.NoError(t, err)

	created := testutil.CreateTestTodo(t, r, tokenNormal, "private", false)

	req, _ := http.NewRequest("DELETE", "/api/todos/"+created.ID, nil)
	req.Header.Set("Authorization", "Bearer "+tokenSecond)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	// 所有者からはまだ見えること
	req, _ = http.NewRequest("GET", "/api/todos/"+created.ID, nil)
	req.Header.Set("Authorization", "Bearer "+tokenNormal)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
