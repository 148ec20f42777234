package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	authdomain "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/auth/domain"
	authdto "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/auth/dto"
	"github.com/Email-Client-AI/Email-Client-AI-Backend/internal/auth/repository"
	"github.com/Email-Client-AI/Email-Client-AI-Backend/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// authUsecase implements AuthUsecase interface
type authUsecase struct {
	userRepo     repository.UserRepository
	sessionRepo  repository.SessionRepository
	config       *config.Config
	syncCallback EmailSyncFunc
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, cfg *config.Config) AuthUsecase {
	u := &authUsecase{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		config:      cfg,
	}
	u.startSessionCleanup()
	return u
}

func (u *authUsecase) SetEmailSyncCallback(fn EmailSyncFunc) {
	u.syncCallback = fn
}

// startSessionCleanup deletes expired sessions once a day.
func (u *authUsecase) startSessionCleanup() {
	ticker := time.NewTicker(24 * time.Hour)
	go func() {
		for range ticker.C {
			if err := u.sessionRepo.DeleteExpired(); err != nil {
				log.Printf("[Auth] Expired session cleanup failed: %v", err)
			}
		}
	}()
}

func (u *authUsecase) Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error) {
	existing, err := u.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		return nil, errors.New("email already registered")
	}

	hashedPassword, err := repository.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &authdomain.User{
		Email:    req.Email,
		Password: hashedPassword,
		Name:     req.Name,
		Provider: "email",
	}

	if err := u.userRepo.Create(user); err != nil {
		return nil, err
	}

	return u.issueSession(user, "", "")
}

func (u *authUsecase) Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error) {
	user, err := u.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, errors.New("invalid email or password")
	}

	if user.Provider != "email" {
		return nil, errors.New("please use Google Sign-In for this account")
	}

	if !repository.CheckPasswordHash(req.Password, user.Password) {
		return nil, errors.New("invalid email or password")
	}

	return u.issueSession(user, "", "")
}

// googleIDClaims is the subset of the Google ID token payload we consume.
type googleIDClaims struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleSignIn exchanges the authorization code for Google tokens, upserts
// the user and opens a session carrying the Google tokens for the sync
// engine. On success the initial mailbox sync is kicked off in background.
func (u *authUsecase) GoogleSignIn(req *authdto.GoogleLoginRequest) (*authdto.TokenResponse, error) {
	conf := &oauth2.Config{
		ClientID:     u.config.GoogleClientID,
		ClientSecret: u.config.GoogleClientSecret,
		RedirectURL:  u.config.GoogleRedirectURI,
		Endpoint:     google.Endpoint,
	}

	token, err := conf.Exchange(context.Background(), req.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %v", err)
	}

	idToken, _ := token.Extra("id_token").(string)
	claims, err := decodeIDToken(idToken)
	if err != nil {
		return nil, err
	}

	// Find or create user by Google subject
	user, err := u.userRepo.FindBySub(claims.Sub)
	if err != nil {
		return nil, err
	}

	if user == nil {
		user = &authdomain.User{
			Email:     claims.Email,
			Name:      claims.Name,
			AvatarURL: claims.Picture,
			Sub:       claims.Sub,
			Provider:  "google",
		}
		if err := u.userRepo.Create(user); err != nil {
			return nil, err
		}
	} else {
		user.Name = claims.Name
		user.AvatarURL = claims.Picture
		if err := u.userRepo.Update(user); err != nil {
			return nil, err
		}
	}

	resp, err := u.issueSession(user, token.AccessToken, token.RefreshToken)
	if err != nil {
		return nil, err
	}

	// Initial sync and watch registration run in background; login never
	// waits for the mailbox.
	if u.syncCallback != nil {
		u.syncCallback(token.AccessToken, user.ID)
	}

	return resp, nil
}

// decodeIDToken extracts the payload claims from a Google ID token without
// re-verifying the signature: the token was just handed to us directly by
// Google's token endpoint over TLS.
func decodeIDToken(idToken string) (*googleIDClaims, error) {
	parts := strings.Split(idToken, ".")
	if len(parts) != 3 {
		return nil, errors.New("malformed Google ID token")
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode Google ID token: %v", err)
	}

	var claims googleIDClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("failed to parse Google ID token: %v", err)
	}
	if claims.Sub == "" || claims.Email == "" {
		return nil, errors.New("google ID token missing required claims")
	}
	return &claims, nil
}

func (u *authUsecase) RefreshToken(req *authdto.RefreshRequest) (*authdto.TokenResponse, error) {
	session, err := u.sessionRepo.FindByRefreshTokenAndDevice(hashToken(req.RefreshToken), req.DeviceID)
	if err != nil {
		return nil, err
	}

	if session == nil || session.ExpiresAt.Before(time.Now()) {
		return nil, errors.New("refresh token expired")
	}

	user, err := u.userRepo.FindByID(session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user not found")
	}

	accessToken, err := u.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	// Rotate the refresh token on every use
	rawRefresh := uuid.New().String()
	session.AppRefreshToken = hashToken(rawRefresh)
	session.ExpiresAt = time.Now().Add(u.config.SessionExpiry)
	if err := u.sessionRepo.Update(session); err != nil {
		return nil, err
	}

	return &authdto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: rawRefresh,
		DeviceID:     session.DeviceID,
		User:         user,
	}, nil
}

func (u *authUsecase) Logout(req *authdto.LogoutRequest) error {
	session, err := u.sessionRepo.FindByRefreshTokenAndDevice(hashToken(req.RefreshToken), req.DeviceID)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}
	return u.sessionRepo.Delete(session.ID)
}

// issueSession mints an access JWT plus an opaque refresh token and stores
// the session (with the Google tokens, when present) for the sync engine.
func (u *authUsecase) issueSession(user *authdomain.User, googleAccessToken, googleRefreshToken string) (*authdto.TokenResponse, error) {
	accessToken, err := u.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	rawRefresh := uuid.New().String()
	deviceID := uuid.New().String()

	session := &authdomain.UserSession{
		UserID:             user.ID,
		GoogleAccessToken:  googleAccessToken,
		GoogleRefreshToken: googleRefreshToken,
		AppRefreshToken:    hashToken(rawRefresh),
		DeviceID:           deviceID,
		ExpiresAt:          time.Now().Add(u.config.SessionExpiry),
	}
	if err := u.sessionRepo.Create(session); err != nil {
		return nil, err
	}

	return &authdto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: rawRefresh,
		DeviceID:     deviceID,
		User:         user,
	}, nil
}

func (u *authUsecase) generateAccessToken(user *authdomain.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(u.config.JWTAccessExpiry).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(u.config.JWTSecret))
}

func (u *authUsecase) ValidateToken(tokenString string) (*authdomain.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(u.config.JWTSecret), nil
	})

	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, errors.New("user not found")
	}

	return user, nil
}

// hashToken hashes an opaque refresh token for storage and lookup.
func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
