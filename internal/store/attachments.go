package store

import (
	"time"

	"github.com/dandcg/emailarchive/internal/database/models"
	"gorm.io/gorm/clause"
)

// InsertAttachment persists an attachment. Ids are deterministic, so
// re-ingesting an email never duplicates its attachments.
func (s *Store) InsertAttachment(att *models.Attachment) error {
	if att.CreatedAt.IsZero() {
		att.CreatedAt = time.Now().UTC()
	}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(att).Error
}

// GetAttachmentsByEmailID returns all attachments of one email
func (s *Store) GetAttachmentsByEmailID(emailID string) ([]models.Attachment, error) {
	var attachments []models.Attachment
	err := s.db.
		Where("email_id = ?", emailID).
		Order("filename ASC, id ASC").
		Find(&attachments).Error
	return attachments, err
}

// GetAttachmentCount returns the number of stored attachments
func (s *Store) GetAttachmentCount() (int64, error) {
	var count int64
	err := s.db.Model(&models.Attachment{}).Count(&count).Error
	return count, err
}

// GetAttachmentsWithTextCount returns how many attachments carry
// extracted text
func (s *Store) GetAttachmentsWithTextCount() (int64, error) {
	var count int64
	err := s.db.Model(&models.Attachment{}).
		Where("extracted_text IS NOT NULL AND extracted_text != ''").
		Count(&count).Error
	return count, err
}

// GetAttachmentsEmbeddedCount returns how many attachments carry an
// embedding
func (s *Store) GetAttachmentsEmbeddedCount() (int64, error) {
	var count int64
	err := s.db.Model(&models.Attachment{}).
		Where("embedded_at IS NOT NULL").
		Count(&count).Error
	return count, err
}

// GetUnembeddedAttachments returns up to limit attachments that have
// extracted text but no embedding yet. Only attachments with text are
// ever embedded; the order is stable so repeated backfill passes make
// monotonic progress.
func (s *Store) GetUnembeddedAttachments(limit int) ([]models.Attachment, error) {
	var attachments []models.Attachment
	err := s.db.
		Where("extracted_text IS NOT NULL AND extracted_text != '' AND embedded_at IS NULL").
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&attachments).Error
	return attachments, err
}

// GetEmbeddedAttachments returns all attachments that carry an embedding
func (s *Store) GetEmbeddedAttachments() ([]models.Attachment, error) {
	var attachments []models.Attachment
	err := s.db.
		Where("embedded_at IS NOT NULL").
		Find(&attachments).Error
	return attachments, err
}

// SetAttachmentEmbedding writes the vector and its timestamp in one
// update. Attachments without extracted text are refused.
func (s *Store) SetAttachmentEmbedding(id string, vec []float64, at time.Time) error {
	var att models.Attachment
	if err := att.SetEmbedding(vec, at); err != nil {
		return err
	}
	result := s.db.Model(&models.Attachment{}).
		Where("id = ? AND extracted_text IS NOT NULL AND extracted_text != ''", id).
		Updates(map[string]interface{}{
			"embedding":   att.Embedding,
			"embedded_at": att.EmbeddedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAttachmentNotFound
	}
	return nil
}
