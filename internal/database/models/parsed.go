package models

import "time"

// RawAttachment holds attachment bytes as produced by a message source,
// before extraction has run.
type RawAttachment struct {
	Filename  string
	MimeType  string
	Content   []byte
	SizeBytes int64
}

// ParsedEmail pairs a parsed email with its raw attachment payloads
type ParsedEmail struct {
	Email       Email
	Attachments []RawAttachment
}

// IngestRun records the counters of one ingestion run. Excluded emails are
// never stored, so their count only survives here.
type IngestRun struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	StartedAt           time.Time `json:"started_at"`
	FinishedAt          time.Time `json:"finished_at"`
	Total               int64     `json:"total"`
	Excluded            int64     `json:"excluded"`
	MetadataOnly        int64     `json:"metadata_only"`
	Vectorize           int64     `json:"vectorize"`
	Attachments         int64     `json:"attachments"`
	AttachmentsWithText int64     `json:"attachments_with_text"`
	Failures            int64     `json:"failures"`
}
