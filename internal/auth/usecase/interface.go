package usecase

import (
	authdomain "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/auth/domain"
	authdto "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/auth/dto"
)

// EmailSyncFunc is invoked after a successful Google login to start the
// initial mailbox sync for the account. It must not block the login.
type EmailSyncFunc func(googleAccessToken, userID string)

// AuthUsecase defines authentication business logic
type AuthUsecase interface {
	Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error)
	Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error)
	GoogleSignIn(req *authdto.GoogleLoginRequest) (*authdto.TokenResponse, error)
	RefreshToken(req *authdto.RefreshRequest) (*authdto.TokenResponse, error)
	Logout(req *authdto.LogoutRequest) error
	ValidateToken(tokenString string) (*authdomain.User, error)

	// SetEmailSyncCallback wires the post-login sync trigger after creation.
	SetEmailSyncCallback(fn EmailSyncFunc)
}
