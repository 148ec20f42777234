package repository

import (
	"errors"
	"time"

	authdomain "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/auth/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// sessionRepository implements SessionRepository interface
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new instance of sessionRepository
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{
		db: db,
	}
}

func (r *sessionRepository) Create(session *authdomain.UserSession) error {
	session.ID = uuid.New().String()
	session.CreatedAt = time.Now()
	session.UpdatedAt = time.Now()
	return r.db.Create(session).Error
}

func (r *sessionRepository) FindActiveByUserID(userID string) (*authdomain.UserSession, error) {
	var session authdomain.UserSession
	err := r.db.Where("user_id = ?", userID).
		Order("expires_at DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) FindByRefreshTokenAndDevice(hashedToken, deviceID string) (*authdomain.UserSession, error) {
	var session authdomain.UserSession
	err := r.db.Where("app_refresh_token = ? AND device_id = ?", hashedToken, deviceID).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) Update(session *authdomain.UserSession) error {
	session.UpdatedAt = time.Now()
	return r.db.Save(session).Error
}

func (r *sessionRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&authdomain.UserSession{}).Error
}

func (r *sessionRepository) DeleteExpired() error {
	return r.db.Where("expires_at < ?", time.Now()).Delete(&authdomain.UserSession{}).Error
}
