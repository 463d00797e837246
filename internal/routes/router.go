// Package routesはroutingを行います。
package routes

import (
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"go-todo-app/backend/internal/handlers"
	"go-todo-app/backend/internal/repositories"
	"go-todo-app/backend/internal/services"
	"go-todo-app/backend/internal/session"
)

// SetupRouter はGinルーターをセットアップし、すべてのエンドポイントを登録します。
func SetupRouter(authRepo repositories.AuthRepository, todoRepo repositories.TodoRepository, jwtService *services.JWTService) *gin.Engine {
	r := gin.Default()

	// CORS対策
	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{frontendURL}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	config.AllowCredentials = true
	r.Use(cors.New(config))

	// セッション登録簿
	sessions := session.NewManager(authRepo, todoRepo)

	// ハンドラー
	userHandler := handlers.NewUserHandler(sessions, jwtService)
	todoHandler := handlers.NewTodoHandler(sessions)

	// ルーティング
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/api/register", userHandler.RegisterHandler)
	r.POST("/api/login", userHandler.LoginHandler)

	authorized := r.Group("/")
	authorized.Use(AuthMiddleware(jwtService))
	{
		authorized.POST("/api/logout", userHandler.LogoutHandler)
		authorized.GET("/api/me", userHandler.MeHandler)
		authorized.GET("/api/todos", todoHandler.GetTodosHandler)
		authorized.GET("/api/todos/:id", todoHandler.GetTodoByIDHandler)
		authorized.POST("/api/todos", todoHandler.CreateTodoHandler)
		authorized.PUT("/api/todos/:id", todoHandler.UpdateTodoHandler)
		authorized.PATCH("/api/todos/:id/toggle", todoHandler.ToggleTodoHandler)
		authorized.DELETE("/api/todos/:id", todoHandler.DeleteTodoHandler)
	}

	return r
}
