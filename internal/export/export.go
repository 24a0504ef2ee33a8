// Package export produces period-scoped review data for the reporting
// layer.
package export

import (
	"time"

	"github.com/dandcg/emailarchive/internal/analytics"
	"github.com/dandcg/emailarchive/internal/store"
)

// Direction classifies a contact relationship within a period
type Direction string

const (
	DirectionInbound       Direction = "inbound"
	DirectionOutbound      Direction = "outbound"
	DirectionBidirectional Direction = "bidirectional"
	DirectionUnknown       Direction = "unknown"
)

// Contact is a period-scoped contact summary with its direction
type Contact struct {
	analytics.ContactSummary
	CommunicationDirection Direction `json:"communication_direction"`
}

// ReviewPeriod summarizes a date range for periodic review
type ReviewPeriod struct {
	PeriodStart      time.Time `json:"period_start"`
	PeriodEnd        time.Time `json:"period_end"`
	EmailCount       int       `json:"email_count"`
	SentCount        int       `json:"sent_count"`
	ReceivedCount    int       `json:"received_count"`
	TopContacts      []Contact `json:"top_contacts"`
	PeakActivityDay  string    `json:"peak_activity_day"`
	PeakActivityHour int       `json:"peak_activity_hour"`
}

// Monday-first to match the review layout
var dayNames = [7]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// Engine computes export aggregations over the archive store
type Engine struct {
	store *store.Store
}

// New creates an export engine
func New(st *store.Store) *Engine {
	return &Engine{store: st}
}

// ContactsForPeriod restricts contact aggregation to emails dated within
// [start, end] inclusive and classifies each contact's direction.
func (e *Engine) ContactsForPeriod(start, end time.Time, limit int) ([]Contact, error) {
	emails, err := e.store.GetEmailsInPeriod(start, end)
	if err != nil {
		return nil, err
	}

	summaries := analytics.AggregateContacts(emails)
	analytics.SortContacts(summaries)
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}

	contacts := make([]Contact, 0, len(summaries))
	for _, summary := range summaries {
		contacts = append(contacts, Contact{
			ContactSummary:         summary,
			CommunicationDirection: classifyDirection(summary),
		})
	}
	return contacts, nil
}

// ReviewData computes the full review summary for a period. Peak day and
// hour break ties toward the earliest bucket (Monday-first for days,
// 0-23 for hours) so repeated runs agree.
func (e *Engine) ReviewData(start, end time.Time, topN int) (*ReviewPeriod, error) {
	emails, err := e.store.GetEmailsInPeriod(start, end)
	if err != nil {
		return nil, err
	}

	review := &ReviewPeriod{
		PeriodStart: start,
		PeriodEnd:   end,
		EmailCount:  len(emails),
	}

	var dayCounts [7]int
	var hourCounts [24]int
	for _, email := range emails {
		if email.IsSent {
			review.SentCount++
		} else {
			review.ReceivedCount++
		}
		dayCounts[analytics.MondayFirstWeekday(email.Date)]++
		hourCounts[email.Date.Hour()]++
	}

	if len(emails) > 0 {
		review.PeakActivityDay = dayNames[peakIndex(dayCounts[:])]
		review.PeakActivityHour = peakIndex(hourCounts[:])
	}

	contacts, err := e.ContactsForPeriod(start, end, topN)
	if err != nil {
		return nil, err
	}
	review.TopContacts = contacts

	return review, nil
}

// peakIndex returns the first index holding the maximum count
func peakIndex(counts []int) int {
	peak := 0
	for i, count := range counts {
		if count > counts[peak] {
			peak = i
		}
	}
	return peak
}

func classifyDirection(summary analytics.ContactSummary) Direction {
	switch {
	case summary.SentTo > 0 && summary.ReceivedFrom > 0:
		return DirectionBidirectional
	case summary.SentTo > 0:
		return DirectionOutbound
	case summary.ReceivedFrom > 0:
		return DirectionInbound
	default:
		return DirectionUnknown
	}
}
