package domain

import "time"

type User struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-"` // Never return password in JSON
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Sub       string    `json:"-" gorm:"uniqueIndex"` // Google OAuth subject, empty for password accounts
	Provider  string    `json:"provider"`             // "email" or "google"

	// LastHistoryID is the mailbox sync cursor: everything up to and
	// including this point has been synchronized. Zero means no sync has
	// ever been recorded for the account.
	LastHistoryID uint64 `json:"-" gorm:"column:last_history_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserSession ties a login to the Google tokens it was granted. The app
// refresh token is stored hashed; the raw value only ever leaves in the
// login response.
type UserSession struct {
	ID                 string    `json:"id" gorm:"primaryKey"`
	UserID             string    `json:"user_id" gorm:"not null;index"`
	GoogleAccessToken  string    `json:"-" gorm:"type:text;not null"`
	GoogleRefreshToken string    `json:"-" gorm:"type:text"`
	AppRefreshToken    string    `json:"-" gorm:"size:512;not null;index"`
	DeviceID           string    `json:"device_id" gorm:"size:512;not null"`
	ExpiresAt          time.Time `json:"expires_at" gorm:"not null;index"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
