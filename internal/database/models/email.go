package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

// Tier controls how deeply an email is processed and stored
type Tier int

const (
	// TierUnclassified means the email has not been classified yet
	TierUnclassified Tier = 0
	// TierExcluded emails are transactional noise, never stored
	TierExcluded Tier = 1
	// TierMetadataOnly emails are stored for analytics but never embedded
	TierMetadataOnly Tier = 2
	// TierVectorize emails are stored and queued for embedding
	TierVectorize Tier = 3
)

// IsValid checks if the tier is one of the known values
func (t Tier) IsValid() bool {
	switch t {
	case TierUnclassified, TierExcluded, TierMetadataOnly, TierVectorize:
		return true
	}
	return false
}

// String returns a human-readable tier name
func (t Tier) String() string {
	switch t {
	case TierExcluded:
		return "excluded"
	case TierMetadataOnly:
		return "metadata_only"
	case TierVectorize:
		return "vectorize"
	default:
		return "unclassified"
	}
}

// Email represents one ingested archive message
type Email struct {
	ID             string     `gorm:"primaryKey;size:64" json:"id"`
	MessageID      string     `gorm:"uniqueIndex;size:255;not null" json:"message_id"`
	Date           time.Time  `gorm:"index" json:"date"`
	Sender         string     `gorm:"size:255;index" json:"sender"`
	SenderName     string     `gorm:"size:255" json:"sender_name"`
	Recipients     string     `gorm:"type:text" json:"recipients"` // JSON array stored as string
	Subject        string     `gorm:"size:500" json:"subject"`
	BodyText       string     `gorm:"type:text" json:"body_text"`
	IsSent         bool       `gorm:"default:false" json:"is_sent"`
	HasAttachments bool       `gorm:"default:false" json:"has_attachments"`
	Tier           Tier       `gorm:"index" json:"tier"`
	Embedding      string     `gorm:"type:text" json:"-"` // JSON array stored as string
	EmbeddedAt     *time.Time `gorm:"index" json:"embedded_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// NewEmailID derives the storage identifier from the protocol message id.
// The derivation is deterministic so re-ingesting the same message converges
// on one row instead of duplicating it.
func NewEmailID(messageID string) string {
	sum := sha256.Sum256([]byte(messageID))
	return hex.EncodeToString(sum[:])
}

// RecipientList decodes the recipients column, nil when there are none
func (e *Email) RecipientList() []string {
	if e.Recipients == "" {
		return nil
	}
	var recipients []string
	if err := json.Unmarshal([]byte(e.Recipients), &recipients); err != nil {
		return nil
	}
	if len(recipients) == 0 {
		return nil
	}
	return recipients
}

// SetRecipients encodes the recipient addresses into the recipients column
func (e *Email) SetRecipients(addrs []string) {
	if len(addrs) == 0 {
		e.Recipients = "[]"
		return
	}
	data, err := json.Marshal(addrs)
	if err != nil {
		e.Recipients = "[]"
		return
	}
	e.Recipients = string(data)
}

// EmbeddingVector decodes the embedding column, nil when not embedded
func (e *Email) EmbeddingVector() []float64 {
	if e.Embedding == "" {
		return nil
	}
	var vec []float64
	if err := json.Unmarshal([]byte(e.Embedding), &vec); err != nil {
		return nil
	}
	return vec
}

// SetEmbedding encodes the vector and stamps the embedding time.
// The two fields are always set together.
func (e *Email) SetEmbedding(vec []float64, at time.Time) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	e.Embedding = string(data)
	e.EmbeddedAt = &at
	return nil
}

// IsEmbedded reports whether the embedding pass has run for this email
func (e *Email) IsEmbedded() bool {
	return e.EmbeddedAt != nil && e.Embedding != ""
}

// BodyWordCount counts whitespace-delimited tokens in the body.
// Computed on read, not stored.
func (e *Email) BodyWordCount() int {
	return len(strings.Fields(e.BodyText))
}
