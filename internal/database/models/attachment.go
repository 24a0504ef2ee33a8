package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Attachment represents one file attached to a stored email.
// Attachments have no independent lifecycle; they are created and
// deleted with their parent email.
type Attachment struct {
	ID            string     `gorm:"primaryKey;size:64" json:"id"`
	EmailID       string     `gorm:"index;size:64;not null" json:"email_id"`
	Filename      string     `gorm:"size:500" json:"filename"`
	MimeType      string     `gorm:"size:255" json:"mime_type"`
	SizeBytes     int64      `json:"size_bytes"`
	ExtractedText *string    `gorm:"type:text" json:"extracted_text,omitempty"`
	Embedding     string     `gorm:"type:text" json:"-"` // JSON array stored as string
	EmbeddedAt    *time.Time `gorm:"index" json:"embedded_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// NewAttachmentID derives a deterministic identifier from the owning email
// and the attachment's position, so re-ingestion never duplicates
// attachments.
func NewAttachmentID(emailID, filename string, index int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s/%s/%d", emailID, filename, index)))
	return hex.EncodeToString(sum[:])
}

// HasText reports whether the extractor produced text for this attachment
func (a *Attachment) HasText() bool {
	return a.ExtractedText != nil && *a.ExtractedText != ""
}

// EmbeddingVector decodes the embedding column, nil when not embedded
func (a *Attachment) EmbeddingVector() []float64 {
	if a.Embedding == "" {
		return nil
	}
	var vec []float64
	if err := json.Unmarshal([]byte(a.Embedding), &vec); err != nil {
		return nil
	}
	return vec
}

// SetEmbedding encodes the vector and stamps the embedding time.
// The two fields are always set together.
func (a *Attachment) SetEmbedding(vec []float64, at time.Time) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	a.Embedding = string(data)
	a.EmbeddedAt = &at
	return nil
}

// IsEmbedded reports whether the embedding pass has run for this attachment
func (a *Attachment) IsEmbedded() bool {
	return a.EmbeddedAt != nil && a.Embedding != ""
}
