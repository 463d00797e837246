package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"go-todo-app/backend/internal/repositories"
	"go-todo-app/backend/internal/routes"
	"go-todo-app/backend/internal/services"
)

// newAuthRepository はAUTH_BACKENDに応じて認証リポジトリを作成します。
// 既定はFirebase Authentication (Identity Toolkit) です。
func newAuthRepository(ctx context.Context) repositories.AuthRepository {
	if os.Getenv("AUTH_BACKEND") == "memory" {
		log.Println("Using in-memory auth backend")
		return repositories.NewMemoryAuthRepository()
	}

	apiKey := os.Getenv("FIREBASE_API_KEY")
	if apiKey == "" {
		log.Fatal("FIREBASE_API_KEY environment variable is required")
	}
	repo, err := repositories.NewIdentityAuthRepository(ctx, apiKey)
	if err != nil {
		log.Fatalf("Fatal: Failed to create auth repository: %v", err)
	}
	return repo
}

// newTodoRepository はSTORE_BACKENDに応じてTodoリポジトリを作成します。
// 既定はFirestoreです。
func newTodoRepository(ctx context.Context) (repositories.TodoRepository, func()) {
	if os.Getenv("STORE_BACKEND") == "memory" {
		log.Println("Using in-memory todo backend")
		return repositories.NewMemoryTodoRepository(), func() {}
	}

	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		log.Fatal("GOOGLE_CLOUD_PROJECT environment variable is required")
	}
	repo, err := repositories.NewFirestoreTodoRepository(ctx, projectID)
	if err != nil {
		log.Fatalf("Fatal: Failed to create Firestore todo repository: %v", err)
	}
	return repo, func() {
		if err := repo.Close(); err != nil {
			log.Printf("Failed to close Firestore client: %v", err)
		}
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	ctx := context.Background()

	authRepo := newAuthRepository(ctx)
	todoRepo, closeTodoRepo := newTodoRepository(ctx)
	defer closeTodoRepo()

	jwtService := services.NewJWTService()

	r := routes.SetupRouter(authRepo, todoRepo, jwtService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// サーバー起動
	log.Printf("Server listening on port %s...", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
