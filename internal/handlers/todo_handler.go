package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-todo-app/backend/internal/models"
	"go-todo-app/backend/internal/repositories"
	"go-todo-app/backend/internal/session"
)

// TodoHandler はTodo関連のハンドラーを管理します。
type TodoHandler struct {
	sessions *session.Manager
}

// NewTodoHandler は新しいTodoHandlerを作成します。
func NewTodoHandler(sessions *session.Manager) *TodoHandler {
	return &TodoHandler{sessions: sessions}
}

// GetTodosHandler は認証済みユーザーのTodoリストを取得します。
func (h *TodoHandler) GetTodosHandler(c *gin.Context) {
	uid, email, ok := claimsFromContext(c)
	if !ok {
		return
	}

	sess := h.sessions.GetOrCreate(uid, email)
	if err := sess.Todos.Fetch(c.Request.Context(), uid); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch todos"})
		return
	}

	items := sess.Store.Todos().Items
	if items == nil {
		items = []*models.Todo{}
	}
	c.JSON(http.StatusOK, items)
}

// CreateTodoHandler は新しいTodoを作成します。
func (h *TodoHandler) CreateTodoHandler(c *gin.Context) {
	uid, email, ok := claimsFromContext(c)
	if !ok {
		return
	}

	var req models.TodoCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	sess := h.sessions.GetOrCreate(uid, email)
	created, err := sess.Todos.Add(c.Request.Context(), uid, req.Title)
	if err != nil {
		if errors.Is(err, models.ErrEmptyTitle) || errors.Is(err, models.ErrTitleTooLong) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save todo"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetTodoByIDHandler は指定IDのTodoを取得します。
func (h *TodoHandler) GetTodoByIDHandler(c *gin.Context) {
	uid, email, ok := claimsFromContext(c)
	if !ok {
		return
	}

	sess := h.sessions.GetOrCreate(uid, email)
	todo, err := sess.Todos.Select(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrTodoNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch todo"})
		return
	}
	c.JSON(http.StatusOK, todo)
}

// UpdateTodoHandler はTodoを更新します。
func (h *TodoHandler) UpdateTodoHandler(c *gin.Context) {
	uid, email, ok := claimsFromContext(c)
	if !ok {
		return
	}

	var req models.TodoUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	sess := h.sessions.GetOrCreate(uid, email)
	updated, err := sess.Todos.Update(c.Request.Context(), uid, c.Param("id"), models.TodoUpdate{
		Title:     req.Title,
		Completed: req.Completed,
	})
	if err != nil {
		if errors.Is(err, models.ErrEmptyTitle) || errors.Is(err, models.ErrTitleTooLong) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, repositories.ErrTodoNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update todo"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// ToggleTodoHandler は完了状態を切り替えます。
func (h *TodoHandler) ToggleTodoHandler(c *gin.Context) {
	uid, email, ok := claimsFromContext(c)
	if !ok {
		return
	}

	var req models.TodoToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	sess := h.sessions.GetOrCreate(uid, email)
	updated, err := sess.Todos.Toggle(c.Request.Context(), uid, c.Param("id"), *req.Completed)
	if err != nil {
		if errors.Is(err, repositories.ErrTodoNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle todo"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteTodoHandler はTodoを削除します。
func (h *TodoHandler) DeleteTodoHandler(c *gin.Context) {
	uid, email, ok := claimsFromContext(c)
	if !ok {
		return
	}

	sess := h.sessions.GetOrCreate(uid, email)
	if err := sess.Todos.Delete(c.Request.Context(), uid, c.Param("id")); err != nil {
		if errors.Is(err, repositories.ErrTodoNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete todo"})
		return
	}
	c.Status(http.StatusNoContent)
}
