package models

import "time"

// User は外部認証サービスが発行するユーザーを表します。
// UIDは認証サービスが割り当てる安定した識別子で、アプリケーション側からは
// 再認証時に丸ごと置き換えられる以外は不変です。
// JSONタグ: クライアントとの通信用
type User struct {
	UID         string     `json:"uid"`
	Email       string     `json:"email,omitempty"`
	DisplayName string     `json:"display_name,omitempty"`
	PhotoURL    string     `json:"photo_url,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// NewUser は新しいUserを作成し、作成日時をスタンプします。
func NewUser(uid, email, displayName, photoURL string) *User {
	now := time.Now()
	return &User{
		UID:         uid,
		Email:       email,
		DisplayName: displayName,
		PhotoURL:    photoURL,
		CreatedAt:   &now,
	}
}

// UserRegisterRequest はユーザー登録リクエストの構造体です。
type UserRegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"` // 認証サービスのパスワードポリシーに合わせる
}

// UserLoginRequest はユーザーログインリクエストの構造体です。
type UserLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// JWTClaims はセッショントークンに含まれるクレームです。
type JWTClaims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}
