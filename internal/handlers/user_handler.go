// Package handlers はHTTPハンドラーを提供します。
// ハンドラーはユースケースを呼び出して状態ストアのスナップショットを返すだけで、
// 状態遷移そのものには関与しません。
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-todo-app/backend/internal/models"
	"go-todo-app/backend/internal/repositories"
	"go-todo-app/backend/internal/services"
	"go-todo-app/backend/internal/session"
)

// UserHandler はユーザー関連のハンドラーを管理します。
type UserHandler struct {
	sessions   *session.Manager
	jwtService *services.JWTService
}

// NewUserHandler は新しいUserHandlerを作成します。
func NewUserHandler(sessions *session.Manager, jwtService *services.JWTService) *UserHandler {
	return &UserHandler{sessions: sessions, jwtService: jwtService}
}

// RegisterHandler はユーザー登録を処理します。
func (h *UserHandler) RegisterHandler(c *gin.Context) {
	var req models.UserRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	sess := h.sessions.NewSession()
	user, err := sess.Auth.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
		return
	}
	h.sessions.Bind(user.UID, sess)

	token, err := h.jwtService.GenerateToken(user.UID, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

// LoginHandler はユーザーログインを処理します。
func (h *UserHandler) LoginHandler(c *gin.Context) {
	var req models.UserLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	sess := h.sessions.NewSession()
	user, err := sess.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	h.sessions.Bind(user.UID, sess)

	token, err := h.jwtService.GenerateToken(user.UID, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	// ログイン直後にTodoを取り込んでおく。失敗は状態のerrorとして現れる
	_ = sess.Todos.Fetch(c.Request.Context(), user.UID)

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// LogoutHandler はログアウトを処理します。
// 成功時は認証状態とTodoスライスの両方が無条件にクリアされます。
func (h *UserHandler) LogoutHandler(c *gin.Context) {
	uid, email, ok := claimsFromContext(c)
	if !ok {
		return
	}

	sess := h.sessions.GetOrCreate(uid, email)
	if err := sess.Auth.Logout(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
		return
	}
	h.sessions.Remove(uid)

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// MeHandler は現在のユーザーと認証スライスの状態を返します。
func (h *UserHandler) MeHandler(c *gin.Context) {
	uid, email, ok := claimsFromContext(c)
	if !ok {
		return
	}

	sess := h.sessions.GetOrCreate(uid, email)
	c.JSON(http.StatusOK, sess.Store.Auth())
}

// claimsFromContext はミドルウェアが設定したクレームを取り出します。
func claimsFromContext(c *gin.Context) (uid, email string, ok bool) {
	uidVal, exists := c.Get("user_uid")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
		return "", "", false
	}
	uid, ok = uidVal.(string)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID type in context"})
		return "", "", false
	}

	emailVal, exists := c.Get("user_email")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User email not found in context"})
		return "", "", false
	}
	email, ok = emailVal.(string)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user email type in context"})
		return "", "", false
	}

	return uid, email, true
}
