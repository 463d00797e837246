package repositories

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"go-todo-app/backend/internal/models"
)

// IdentityAuthRepository はGoogle Identity Toolkit (Firebase Authentication) を
// バッキングサービスとするAuthRepositoryの実装です。
// 認証サービス自体はブラックボックスとして扱い、成功/失敗と返ってくる
// ユーザー情報のみを利用します。リトライは行いません。
type IdentityAuthRepository struct {
	svc       *identitytoolkit.RelyingpartyService
	listeners *listenerSet

	mu      sync.Mutex
	current *models.User
	idToken string
}

// NewIdentityAuthRepository は新しいIdentityAuthRepositoryを作成します。
// apiKeyはFirebaseプロジェクトのWeb APIキーです。
func NewIdentityAuthRepository(ctx context.Context, apiKey string) (*IdentityAuthRepository, error) {
	svc, err := identitytoolkit.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create identity toolkit service: %w", err)
	}
	return &IdentityAuthRepository{
		svc:       svc.Relyingparty,
		listeners: newListenerSet(),
	}, nil
}

// RegisterUser は新しいユーザーを登録し、サインイン状態にします。
func (r *IdentityAuthRepository) RegisterUser(ctx context.Context, email, password string) (*models.User, error) {
	resp, err := r.svc.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    email,
		Password: password,
	}).Context(ctx).Do()
	if err != nil {
		return nil, mapIdentityError(err, "failed to register user")
	}

	user := models.NewUser(resp.LocalId, resp.Email, resp.DisplayName, "")
	r.setCurrent(user, resp.IdToken)
	return user, nil
}

// LoginUser はメールアドレスとパスワードでユーザーを認証します。
func (r *IdentityAuthRepository) LoginUser(ctx context.Context, email, password string) (*models.User, error) {
	resp, err := r.svc.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, mapIdentityError(err, "failed to login user")
	}

	user, err := r.fetchAccount(ctx, resp.IdToken)
	if err != nil {
		// プロフィール取得に失敗してもログイン自体は成功している
		log.Printf("Failed to fetch account info: %v", err)
		user = models.NewUser(resp.LocalId, resp.Email, resp.DisplayName, resp.PhotoUrl)
	}

	r.setCurrent(user, resp.IdToken)
	return user, nil
}

// LogoutUser は現在のセッションを終了します。
func (r *IdentityAuthRepository) LogoutUser(ctx context.Context) error {
	r.mu.Lock()
	r.current = nil
	r.idToken = ""
	r.mu.Unlock()

	r.listeners.notify(nil)
	return nil
}

// CurrentUser は現在サインインしているユーザーを返します。
func (r *IdentityAuthRepository) CurrentUser(ctx context.Context) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, nil
}

// OnAuthStateChanged は認証状態の変化を購読します。
func (r *IdentityAuthRepository) OnAuthStateChanged(callback func(*models.User)) func() {
	return r.listeners.subscribe(callback)
}

// fetchAccount はIDトークンでアカウント情報を取得しドメインのUserに変換します。
func (r *IdentityAuthRepository) fetchAccount(ctx context.Context, idToken string) (*models.User, error) {
	resp, err := r.svc.GetAccountInfo(&identitytoolkit.IdentitytoolkitRelyingpartyGetAccountInfoRequest{
		IdToken: idToken,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("could not get account info: %w", err)
	}
	if len(resp.Users) == 0 {
		return nil, ErrUserNotFound
	}

	info := resp.Users[0]
	user := &models.User{
		UID:         info.LocalId,
		Email:       info.Email,
		DisplayName: info.DisplayName,
		PhotoURL:    info.PhotoUrl,
	}
	if info.CreatedAt != 0 {
		createdAt := time.UnixMilli(info.CreatedAt)
		user.CreatedAt = &createdAt
	}
	return user, nil
}

// setCurrent はセッションを差し替えてリスナーに通知します。
func (r *IdentityAuthRepository) setCurrent(user *models.User, idToken string) {
	r.mu.Lock()
	r.current = user
	r.idToken = idToken
	r.mu.Unlock()

	r.listeners.notify(user)
}

// mapIdentityError は認証サービスのエラーをドメインのエラーに正規化します。
func mapIdentityError(err error, fallback string) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case strings.Contains(apiErr.Message, "EMAIL_EXISTS"):
			return ErrDuplicateEmail
		case strings.Contains(apiErr.Message, "EMAIL_NOT_FOUND"),
			strings.Contains(apiErr.Message, "INVALID_PASSWORD"),
			strings.Contains(apiErr.Message, "INVALID_LOGIN_CREDENTIALS"):
			return ErrInvalidCredentials
		}
	}
	return fmt.Errorf("%s: %w", fallback, err)
}
