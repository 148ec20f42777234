package repository

import (
	"errors"
	"time"

	emaildomain "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// emailRepository implements EmailRepository interface
type emailRepository struct {
	db *gorm.DB
}

// NewEmailRepository creates a new instance of emailRepository
func NewEmailRepository(db *gorm.DB) EmailRepository {
	return &emailRepository{
		db: db,
	}
}

func (r *emailRepository) Create(email *emaildomain.Email) error {
	if email.ID == "" {
		email.ID = uuid.New().String()
	}
	email.CreatedAt = time.Now()
	email.UpdatedAt = time.Now()
	// Attachments are inserted by Update after decoding
	return r.db.Omit("Attachments").Create(email).Error
}

func (r *emailRepository) Update(email *emaildomain.Email) error {
	email.UpdatedAt = time.Now()

	for i := range email.Attachments {
		if email.Attachments[i].ID == "" {
			email.Attachments[i].ID = uuid.New().String()
		}
		email.Attachments[i].EmailID = email.ID
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Attachments").Save(email).Error; err != nil {
			return err
		}
		if len(email.Attachments) == 0 {
			return nil
		}
		return tx.Create(&email.Attachments).Error
	})
}

func (r *emailRepository) ExistsByGmailIDAndUserID(gmailID, userID string) (bool, error) {
	var count int64
	err := r.db.Model(&emaildomain.Email{}).
		Where("gmail_id = ? AND user_id = ?", gmailID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *emailRepository) FindByIDAndUserID(id, userID string) (*emaildomain.Email, error) {
	var email emaildomain.Email
	err := r.db.Preload("Attachments").
		Where("id = ? AND user_id = ?", id, userID).
		First(&email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &email, nil
}

func (r *emailRepository) FindByThreadIDAndUserID(threadID, userID string) ([]emaildomain.Email, error) {
	var emails []emaildomain.Email
	err := r.db.Preload("Attachments").
		Where("thread_id = ? AND user_id = ?", threadID, userID).
		Order("received_at ASC").
		Find(&emails).Error
	return emails, err
}

func (r *emailRepository) ListByUserID(userID string, q ListQuery) ([]emaildomain.Email, int64, error) {
	query := r.db.Model(&emaildomain.Email{}).Where("user_id = ?", userID)
	if q.Label != "" {
		// Labels column stores a JSON array of label IDs
		query = query.Where("labels LIKE ?", "%\""+q.Label+"\"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	size := q.Size
	if size <= 0 {
		size = 10
	}
	page := q.Page
	if page < 1 {
		page = 1
	}

	// Body columns stay out of listings; they can be megabytes each
	var emails []emaildomain.Email
	err := query.Omit("body_html", "body_text").
		Preload("Attachments").
		Order("received_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&emails).Error
	if err != nil {
		return nil, 0, err
	}
	return emails, total, nil
}

func (r *emailRepository) FindRecentByUserID(userID string, limit int) ([]emaildomain.Email, error) {
	if limit <= 0 {
		limit = 500
	}
	var emails []emaildomain.Email
	err := r.db.Where("user_id = ?", userID).
		Order("received_at DESC").
		Limit(limit).
		Find(&emails).Error
	return emails, err
}

func (r *emailRepository) FindAttachmentForUser(attachmentID, userID string) (*emaildomain.Attachment, *emaildomain.Email, error) {
	var attachment emaildomain.Attachment
	err := r.db.Where("id = ?", attachmentID).First(&attachment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	var email emaildomain.Email
	err = r.db.Where("id = ? AND user_id = ?", attachment.EmailID, userID).First(&email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	return &attachment, &email, nil
}
