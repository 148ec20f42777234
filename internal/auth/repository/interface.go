package repository

import authdomain "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/auth/domain"

// UserRepository defines persistence operations for users
type UserRepository interface {
	Create(user *authdomain.User) error
	FindByEmail(email string) (*authdomain.User, error)
	FindByID(id string) (*authdomain.User, error)
	FindBySub(sub string) (*authdomain.User, error)
	Update(user *authdomain.User) error
	// UpdateLastHistoryID persists only the sync cursor column.
	UpdateLastHistoryID(userID string, historyID uint64) error
}

// SessionRepository defines persistence operations for user sessions
type SessionRepository interface {
	Create(session *authdomain.UserSession) error
	// FindActiveByUserID returns the newest session by expiry, or nil.
	FindActiveByUserID(userID string) (*authdomain.UserSession, error)
	FindByRefreshTokenAndDevice(hashedToken, deviceID string) (*authdomain.UserSession, error)
	Update(session *authdomain.UserSession) error
	Delete(id string) error
	DeleteExpired() error
}
