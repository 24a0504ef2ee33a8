// Package search ranks stored emails and attachments by vector
// similarity.
package search

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dandcg/emailarchive/internal/database/models"
	"github.com/dandcg/emailarchive/internal/embedding"
	"github.com/dandcg/emailarchive/internal/store"
)

// Result is one ranked email with its similarity in [-1, 1]
type Result struct {
	Email      models.Email `json:"email"`
	Similarity float64      `json:"similarity"`
}

// AttachmentResult is one ranked attachment with its parent email's
// metadata alongside.
type AttachmentResult struct {
	Attachment models.Attachment `json:"attachment"`
	Email      *models.Email     `json:"email,omitempty"`
	Similarity float64           `json:"similarity"`
}

// Filters narrows email search results. Zero values mean no filtering.
// Sender matches case-insensitively as a substring of the address or
// the display name.
type Filters struct {
	Start  *time.Time
	End    *time.Time
	Sender string
}

func (f Filters) matches(email *models.Email) bool {
	if f.Start != nil && email.Date.Before(*f.Start) {
		return false
	}
	if f.End != nil && email.Date.After(*f.End) {
		return false
	}
	if f.Sender != "" {
		needle := strings.ToLower(f.Sender)
		if !strings.Contains(strings.ToLower(email.Sender), needle) &&
			!strings.Contains(strings.ToLower(email.SenderName), needle) {
			return false
		}
	}
	return true
}

// Engine answers similarity queries over the archive store
type Engine struct {
	store    *store.Store
	provider embedding.Provider
}

// New creates a search engine. The provider may be nil when only
// vector queries are needed.
func New(st *store.Store, provider embedding.Provider) *Engine {
	return &Engine{store: st, provider: provider}
}

// Search ranks embedded emails by cosine similarity to the query vector,
// descending. Only emails with an embedding participate. Ties break on
// email id so output is deterministic.
func (e *Engine) Search(queryVector []float64, limit int) ([]Result, error) {
	return e.SearchWithFilters(queryVector, limit, Filters{})
}

// SearchWithFilters ranks embedded emails matching the filters
func (e *Engine) SearchWithFilters(queryVector []float64, limit int, filters Filters) ([]Result, error) {
	emails, err := e.store.GetEmbeddedEmails()
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(emails))
	for _, email := range emails {
		if !filters.matches(&email) {
			continue
		}
		vec := email.EmbeddingVector()
		if vec == nil {
			continue
		}
		results = append(results, Result{
			Email:      email,
			Similarity: CosineSimilarity(queryVector, vec),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Email.ID < results[j].Email.ID
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// SearchAttachments ranks embedded attachments by cosine similarity,
// descending with id tie-break. Each result carries its parent email
// when it still exists.
func (e *Engine) SearchAttachments(queryVector []float64, limit int) ([]AttachmentResult, error) {
	attachments, err := e.store.GetEmbeddedAttachments()
	if err != nil {
		return nil, err
	}

	results := make([]AttachmentResult, 0, len(attachments))
	for _, att := range attachments {
		vec := att.EmbeddingVector()
		if vec == nil {
			continue
		}
		results = append(results, AttachmentResult{
			Attachment: att,
			Similarity: CosineSimilarity(queryVector, vec),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Attachment.ID < results[j].Attachment.ID
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	for i := range results {
		email, err := e.store.GetEmailByID(results[i].Attachment.EmailID)
		if err != nil {
			continue
		}
		results[i].Email = email
	}
	return results, nil
}

// SearchText embeds the query text through the provider, then ranks
func (e *Engine) SearchText(ctx context.Context, query string, limit int) ([]Result, error) {
	if e.provider == nil {
		return nil, embedding.ErrNotConfigured
	}
	vec, err := e.provider.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return e.Search(vec, limit)
}

// SearchAllText embeds the query once and ranks both emails and
// attachments. Filters apply to the email results only; attachment
// search is unfiltered.
func (e *Engine) SearchAllText(ctx context.Context, query string, limit int, filters Filters) ([]Result, []AttachmentResult, error) {
	if e.provider == nil {
		return nil, nil, embedding.ErrNotConfigured
	}
	vec, err := e.provider.Embed(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	emails, err := e.SearchWithFilters(vec, limit, filters)
	if err != nil {
		return nil, nil, err
	}
	attachments, err := e.SearchAttachments(vec, limit)
	if err != nil {
		return nil, nil, err
	}
	return emails, attachments, nil
}

// CosineSimilarity computes cosine similarity between two vectors.
// Mismatched lengths or zero vectors score 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
