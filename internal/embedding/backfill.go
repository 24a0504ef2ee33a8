package embedding

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dandcg/emailarchive/internal/database/models"
	"github.com/dandcg/emailarchive/internal/store"
)

const (
	// DefaultBatchSize is the page size for unembedded email fetches
	DefaultBatchSize = 100
	// DefaultWorkers bounds concurrent provider requests
	DefaultWorkers = 4
)

// BackfillStats reports the outcome of one backfill run
type BackfillStats struct {
	Scanned             int64 `json:"scanned"`
	Embedded            int64 `json:"embedded"`
	Failed              int64 `json:"failed"`
	AttachmentsEmbedded int64 `json:"attachments_embedded"`
	AttachmentsFailed   int64 `json:"attachments_failed"`
}

// Backfiller generates embeddings for stored vectorize-tier emails that
// do not have one yet, then for attachments with extracted text. A run
// is resumable: anything it fails or never reaches simply stays
// unembedded for the next run.
type Backfiller struct {
	store     *store.Store
	provider  Provider
	batchSize int
	workers   int
}

// NewBackfiller creates a Backfiller. Zero batchSize or workers fall
// back to the defaults.
func NewBackfiller(st *store.Store, provider Provider, batchSize, workers int) *Backfiller {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Backfiller{
		store:     st,
		provider:  provider,
		batchSize: batchSize,
		workers:   workers,
	}
}

// Run processes unembedded emails page by page, then unembedded
// attachments, until a short page signals each backlog is drained. A
// page on which nothing could be embedded also ends that phase, so
// permanently failing items cannot loop forever.
func (b *Backfiller) Run(ctx context.Context) (*BackfillStats, error) {
	stats := &BackfillStats{}

	if err := b.runEmails(ctx, stats); err != nil {
		return stats, err
	}
	if err := b.runAttachments(ctx, stats); err != nil {
		return stats, err
	}

	log.Printf("[Backfill] Run finished: scanned=%d embedded=%d failed=%d attachments=%d attachment_failures=%d",
		stats.Scanned, stats.Embedded, stats.Failed,
		stats.AttachmentsEmbedded, stats.AttachmentsFailed)
	return stats, nil
}

func (b *Backfiller) runEmails(ctx context.Context, stats *BackfillStats) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		emails, err := b.store.GetUnembeddedEmails(b.batchSize)
		if err != nil {
			return err
		}
		if len(emails) == 0 {
			return nil
		}

		embedded := b.processEmailPage(ctx, emails, stats)

		if len(emails) < b.batchSize {
			return nil
		}
		if embedded == 0 {
			log.Printf("[Backfill] No progress on a full email page, stopping phase")
			return nil
		}
	}
}

func (b *Backfiller) runAttachments(ctx context.Context, stats *BackfillStats) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		attachments, err := b.store.GetUnembeddedAttachments(b.batchSize)
		if err != nil {
			return err
		}
		if len(attachments) == 0 {
			return nil
		}

		embedded := b.processAttachmentPage(ctx, attachments, stats)

		if len(attachments) < b.batchSize {
			return nil
		}
		if embedded == 0 {
			log.Printf("[Backfill] No progress on a full attachment page, stopping phase")
			return nil
		}
	}
}

// processEmailPage pushes one page of emails through the worker pool and
// returns how many were embedded.
func (b *Backfiller) processEmailPage(ctx context.Context, emails []models.Email, stats *BackfillStats) int64 {
	jobs := make(chan models.Email)
	var embedded int64
	var wg sync.WaitGroup

	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for email := range jobs {
				atomic.AddInt64(&stats.Scanned, 1)
				if err := b.embedEmail(ctx, &email); err != nil {
					atomic.AddInt64(&stats.Failed, 1)
					log.Printf("[Backfill] Email %s left unembedded: %v", email.ID, err)
					continue
				}
				atomic.AddInt64(&embedded, 1)
				atomic.AddInt64(&stats.Embedded, 1)
			}
		}()
	}

	for _, email := range emails {
		if ctx.Err() != nil {
			break
		}
		jobs <- email
	}
	close(jobs)
	wg.Wait()

	return atomic.LoadInt64(&embedded)
}

func (b *Backfiller) processAttachmentPage(ctx context.Context, attachments []models.Attachment, stats *BackfillStats) int64 {
	jobs := make(chan models.Attachment)
	var embedded int64
	var wg sync.WaitGroup

	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for att := range jobs {
				if err := b.embedAttachment(ctx, &att); err != nil {
					atomic.AddInt64(&stats.AttachmentsFailed, 1)
					log.Printf("[Backfill] Attachment %s left unembedded: %v", att.ID, err)
					continue
				}
				atomic.AddInt64(&embedded, 1)
				atomic.AddInt64(&stats.AttachmentsEmbedded, 1)
			}
		}()
	}

	for _, att := range attachments {
		if ctx.Err() != nil {
			break
		}
		jobs <- att
	}
	close(jobs)
	wg.Wait()

	return atomic.LoadInt64(&embedded)
}

func (b *Backfiller) embedEmail(ctx context.Context, email *models.Email) error {
	text := ComposeText(email.Subject, email.Sender, email.BodyText)
	vec, err := b.provider.Embed(ctx, text)
	if err != nil {
		return err
	}
	return b.store.SetEmbedding(email.ID, vec, time.Now().UTC())
}

// embedAttachment embeds the extracted text itself; there is no
// composed envelope for attachments.
func (b *Backfiller) embedAttachment(ctx context.Context, att *models.Attachment) error {
	vec, err := b.provider.Embed(ctx, *att.ExtractedText)
	if err != nil {
		return err
	}
	return b.store.SetAttachmentEmbedding(att.ID, vec, time.Now().UTC())
}
