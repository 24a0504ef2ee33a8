// Package ingest runs the classify-and-store pipeline over a message
// source.
package ingest

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/dandcg/emailarchive/internal/database/models"
	"github.com/dandcg/emailarchive/internal/extractor"
	"github.com/dandcg/emailarchive/internal/filter"
	"github.com/dandcg/emailarchive/internal/store"
)

// Source yields parsed messages one at a time. Next returns io.EOF when
// the source is drained; any other error is counted against that single
// message and the pipeline moves on.
type Source interface {
	Next() (*models.ParsedEmail, error)
}

// RunStats accumulates the counters of one ingestion run
type RunStats struct {
	Total               int64 `json:"total"`
	Excluded            int64 `json:"excluded"`
	MetadataOnly        int64 `json:"metadata_only"`
	Vectorize           int64 `json:"vectorize"`
	Attachments         int64 `json:"attachments"`
	AttachmentsWithText int64 `json:"attachments_with_text"`
	Failures            int64 `json:"failures"`
}

// Pipeline ingests a message source into the archive store
type Pipeline struct {
	store *store.Store
}

// New creates an ingestion pipeline
func New(st *store.Store) *Pipeline {
	return &Pipeline{store: st}
}

// Run drains the source. Each email is classified before any write:
// excluded emails are only counted, the rest are stored, and attachments
// of vectorize emails go through text extraction. A failure on one email
// is recorded and the run continues. The finished run's counters are
// persisted so status reporting keeps the excluded count.
func (p *Pipeline) Run(ctx context.Context, src Source) (*RunStats, error) {
	stats := &RunStats{}
	startedAt := time.Now().UTC()

	for {
		if err := ctx.Err(); err != nil {
			break
		}

		parsed, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			stats.Total++
			stats.Failures++
			log.Printf("[Ingest] Skipping unreadable message: %v", err)
			continue
		}

		stats.Total++
		p.processOne(parsed, stats)
	}

	run := &models.IngestRun{
		StartedAt:           startedAt,
		FinishedAt:          time.Now().UTC(),
		Total:               stats.Total,
		Excluded:            stats.Excluded,
		MetadataOnly:        stats.MetadataOnly,
		Vectorize:           stats.Vectorize,
		Attachments:         stats.Attachments,
		AttachmentsWithText: stats.AttachmentsWithText,
		Failures:            stats.Failures,
	}
	if err := p.store.RecordRun(run); err != nil {
		return stats, err
	}
	return stats, nil
}

func (p *Pipeline) processOne(parsed *models.ParsedEmail, stats *RunStats) {
	email := &parsed.Email

	if filter.HasCalendarAttachment(parsed.Attachments) {
		email.Tier = models.TierExcluded
	} else {
		email.Tier = filter.Classify(email, email.HasAttachments)
	}

	// Excluded emails are never persisted
	if email.Tier == models.TierExcluded {
		stats.Excluded++
		return
	}

	if err := p.store.InsertEmail(email); err != nil {
		stats.Failures++
		log.Printf("[Ingest] Failed to store email %s: %v", email.MessageID, err)
		return
	}

	if email.Tier == models.TierMetadataOnly {
		stats.MetadataOnly++
		return
	}
	stats.Vectorize++

	if !email.HasAttachments {
		return
	}
	for i, raw := range parsed.Attachments {
		stats.Attachments++

		var extractedText *string
		if text, ok := extractor.Extract(raw.Filename, raw.MimeType, raw.Content); ok {
			stats.AttachmentsWithText++
			extractedText = &text
		}

		mimeType := raw.MimeType
		if mimeType == "" {
			mimeType = extractor.MimeTypeFor(raw.Filename)
		}

		att := &models.Attachment{
			ID:            models.NewAttachmentID(email.ID, raw.Filename, i),
			EmailID:       email.ID,
			Filename:      raw.Filename,
			MimeType:      mimeType,
			SizeBytes:     raw.SizeBytes,
			ExtractedText: extractedText,
		}
		if err := p.store.InsertAttachment(att); err != nil {
			stats.Failures++
			log.Printf("[Ingest] Failed to store attachment %s of %s: %v",
				raw.Filename, email.MessageID, err)
		}
	}
}
