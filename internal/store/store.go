// Package store is the persistence layer for the email archive.
package store

import (
	"errors"
	"time"

	"github.com/dandcg/emailarchive/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrEmailNotFound indicates the email was not found
	ErrEmailNotFound = errors.New("email not found")
	// ErrAttachmentNotFound indicates the attachment was not found or
	// carries no extracted text
	ErrAttachmentNotFound = errors.New("attachment not found")
	// ErrExcludedNotStorable indicates an attempt to persist an excluded email
	ErrExcludedNotStorable = errors.New("excluded emails are not stored")
)

// StatusCounts reports the archive population by tier. Excluded comes from
// ingestion run counters, the rest from persisted rows.
type StatusCounts struct {
	Total        int64 `json:"total"`
	Excluded     int64 `json:"excluded"`
	MetadataOnly int64 `json:"metadata_only"`
	Vectorize    int64 `json:"vectorize"`
	Embedded     int64 `json:"embedded"`
}

// Store persists emails, attachments and ingestion run counters
type Store struct {
	db *gorm.DB
}

// New creates a Store on an initialized database
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// InsertEmail persists an email. The id is derived from the message id when
// unset, and an already-seen message id is a no-op, so repeat ingestion of
// the same message never duplicates a row.
func (s *Store) InsertEmail(email *models.Email) error {
	if email.Tier == models.TierExcluded {
		return ErrExcludedNotStorable
	}
	if email.ID == "" {
		email.ID = models.NewEmailID(email.MessageID)
	}
	if email.Recipients == "" {
		email.Recipients = "[]"
	}
	if email.CreatedAt.IsZero() {
		email.CreatedAt = time.Now().UTC()
	}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(email).Error
}

// GetEmailByID fetches one email by its storage id
func (s *Store) GetEmailByID(id string) (*models.Email, error) {
	var email models.Email
	if err := s.db.First(&email, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmailNotFound
		}
		return nil, err
	}
	return &email, nil
}

// GetStatusCounts aggregates persisted rows by tier and folds in the
// excluded counter recorded by ingestion runs.
func (s *Store) GetStatusCounts() (*StatusCounts, error) {
	counts := &StatusCounts{}

	if err := s.db.Model(&models.Email{}).Count(&counts.Total).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Email{}).
		Where("tier = ?", models.TierMetadataOnly).
		Count(&counts.MetadataOnly).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Email{}).
		Where("tier = ?", models.TierVectorize).
		Count(&counts.Vectorize).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Email{}).
		Where("tier = ? AND embedded_at IS NOT NULL", models.TierVectorize).
		Count(&counts.Embedded).Error; err != nil {
		return nil, err
	}

	var excluded *int64
	if err := s.db.Model(&models.IngestRun{}).
		Select("SUM(excluded)").Scan(&excluded).Error; err != nil {
		return nil, err
	}
	if excluded != nil {
		counts.Excluded = *excluded
	}

	return counts, nil
}

// GetUnembeddedEmails returns up to limit vectorize-tier emails that have
// no embedding yet, oldest first. The order is stable so repeated backfill
// passes make monotonic progress.
func (s *Store) GetUnembeddedEmails(limit int) ([]models.Email, error) {
	var emails []models.Email
	err := s.db.
		Where("tier = ? AND embedded_at IS NULL", models.TierVectorize).
		Order("date ASC, id ASC").
		Limit(limit).
		Find(&emails).Error
	return emails, err
}

// GetEmbeddedEmails returns all emails that carry an embedding
func (s *Store) GetEmbeddedEmails() ([]models.Email, error) {
	var emails []models.Email
	err := s.db.
		Where("tier = ? AND embedded_at IS NOT NULL", models.TierVectorize).
		Find(&emails).Error
	return emails, err
}

// GetStoredEmails returns every persisted email, oldest first
func (s *Store) GetStoredEmails() ([]models.Email, error) {
	var emails []models.Email
	err := s.db.Order("date ASC, id ASC").Find(&emails).Error
	return emails, err
}

// GetEmailsInPeriod returns emails with date in [start, end] inclusive
func (s *Store) GetEmailsInPeriod(start, end time.Time) ([]models.Email, error) {
	var emails []models.Email
	err := s.db.
		Where("date >= ? AND date <= ?", start, end).
		Order("date ASC, id ASC").
		Find(&emails).Error
	return emails, err
}

// SetEmbedding writes the vector and its timestamp in one update. The two
// fields are never set apart.
func (s *Store) SetEmbedding(id string, vec []float64, at time.Time) error {
	var email models.Email
	if err := email.SetEmbedding(vec, at); err != nil {
		return err
	}
	result := s.db.Model(&models.Email{}).
		Where("id = ? AND tier = ?", id, models.TierVectorize).
		Updates(map[string]interface{}{
			"embedding":   email.Embedding,
			"embedded_at": email.EmbeddedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEmailNotFound
	}
	return nil
}

// RecordRun persists the counters of a finished ingestion run
func (s *Store) RecordRun(run *models.IngestRun) error {
	return s.db.Create(run).Error
}

// Truncate clears all stored emails, attachments and run counters.
// Maintenance only: used for test isolation and full reprocessing.
func (s *Store) Truncate() error {
	if err := s.db.Where("1 = 1").Delete(&models.Attachment{}).Error; err != nil {
		return err
	}
	if err := s.db.Where("1 = 1").Delete(&models.Email{}).Error; err != nil {
		return err
	}
	return s.db.Where("1 = 1").Delete(&models.IngestRun{}).Error
}
