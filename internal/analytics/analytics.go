// Package analytics aggregates the archive store into timeline, contact
// and summary views.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/dandcg/emailarchive/internal/database/models"
	"github.com/dandcg/emailarchive/internal/store"
)

// TimelinePoint is one aggregation bucket, per year or per year+month
type TimelinePoint struct {
	Year          int `json:"year"`
	Month         int `json:"month,omitempty"` // 0 for yearly buckets
	EmailCount    int `json:"email_count"`
	SentCount     int `json:"sent_count"`
	ReceivedCount int `json:"received_count"`
}

// Period renders the bucket key, "2009" or "2009-07"
func (p TimelinePoint) Period() string {
	if p.Month == 0 {
		return time.Date(p.Year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006")
	}
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// ContactSummary is the aggregated view of one counterpart address
type ContactSummary struct {
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	TotalEmails  int       `json:"total_emails"`
	SentTo       int       `json:"sent_to"`
	ReceivedFrom int       `json:"received_from"`
	FirstContact time.Time `json:"first_contact"`
	LastContact  time.Time `json:"last_contact"`
}

// ArchiveSummary is a single aggregate over the whole store
type ArchiveSummary struct {
	TotalEmails     int       `json:"total_emails"`
	UniqueContacts  int       `json:"unique_contacts"`
	EarliestEmail   time.Time `json:"earliest_email"`
	LatestEmail     time.Time `json:"latest_email"`
	TotalYearsSpan  int       `json:"total_years_span"`
	AvgEmailsPerDay float64   `json:"avg_emails_per_day"`
}

// ActivityStat is one histogram bucket for hour or day-of-week volume
type ActivityStat struct {
	Hour       int `json:"hour"`
	DayOfWeek  int `json:"day_of_week"` // Monday=0 .. Sunday=6
	EmailCount int `json:"email_count"`
}

// Engine aggregates over the archive store
type Engine struct {
	store *store.Store
}

// New creates an analytics engine
func New(st *store.Store) *Engine {
	return &Engine{store: st}
}

// Timeline buckets all stored emails by calendar year, or year+month when
// groupByMonth is set. Only periods with at least one email are emitted.
func (e *Engine) Timeline(groupByMonth bool) ([]TimelinePoint, error) {
	emails, err := e.store.GetStoredEmails()
	if err != nil {
		return nil, err
	}

	type key struct {
		year  int
		month int
	}
	buckets := make(map[key]*TimelinePoint)

	for _, email := range emails {
		k := key{year: email.Date.Year()}
		if groupByMonth {
			k.month = int(email.Date.Month())
		}
		point, ok := buckets[k]
		if !ok {
			point = &TimelinePoint{Year: k.year, Month: k.month}
			buckets[k] = point
		}
		point.EmailCount++
		if email.IsSent {
			point.SentCount++
		} else {
			point.ReceivedCount++
		}
	}

	points := make([]TimelinePoint, 0, len(buckets))
	for _, point := range buckets {
		points = append(points, *point)
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Year != points[j].Year {
			return points[i].Year < points[j].Year
		}
		return points[i].Month < points[j].Month
	})
	return points, nil
}

// TopContacts groups stored emails by counterpart address, sorted
// descending by volume and truncated to limit. Equal counts order
// alphabetically by address so output is stable across runs.
func (e *Engine) TopContacts(limit int) ([]ContactSummary, error) {
	emails, err := e.store.GetStoredEmails()
	if err != nil {
		return nil, err
	}
	contacts := AggregateContacts(emails)
	SortContacts(contacts)
	if limit > 0 && len(contacts) > limit {
		contacts = contacts[:limit]
	}
	return contacts, nil
}

// Summary computes the single-row aggregate over the whole store
func (e *Engine) Summary() (*ArchiveSummary, error) {
	emails, err := e.store.GetStoredEmails()
	if err != nil {
		return nil, err
	}
	if len(emails) == 0 {
		now := time.Now().UTC()
		return &ArchiveSummary{EarliestEmail: now, LatestEmail: now, TotalYearsSpan: 1}, nil
	}

	senders := make(map[string]struct{})
	earliest := emails[0].Date
	latest := emails[0].Date
	for _, email := range emails {
		senders[email.Sender] = struct{}{}
		if email.Date.Before(earliest) {
			earliest = email.Date
		}
		if email.Date.After(latest) {
			latest = email.Date
		}
	}

	daysSpan := int(latest.Sub(earliest).Hours() / 24)
	if daysSpan < 1 {
		daysSpan = 1
	}

	return &ArchiveSummary{
		TotalEmails:     len(emails),
		UniqueContacts:  len(senders),
		EarliestEmail:   earliest,
		LatestEmail:     latest,
		TotalYearsSpan:  latest.Year() - earliest.Year() + 1,
		AvgEmailsPerDay: math.Round(float64(len(emails))/float64(daysSpan)*100) / 100,
	}, nil
}

// ActivityByHour counts stored emails per hour of day
func (e *Engine) ActivityByHour() ([]ActivityStat, error) {
	emails, err := e.store.GetStoredEmails()
	if err != nil {
		return nil, err
	}
	var counts [24]int
	for _, email := range emails {
		counts[email.Date.Hour()]++
	}
	stats := make([]ActivityStat, 0, 24)
	for hour, count := range counts {
		if count > 0 {
			stats = append(stats, ActivityStat{Hour: hour, EmailCount: count})
		}
	}
	return stats, nil
}

// ActivityByDayOfWeek counts stored emails per weekday, Monday first
func (e *Engine) ActivityByDayOfWeek() ([]ActivityStat, error) {
	emails, err := e.store.GetStoredEmails()
	if err != nil {
		return nil, err
	}
	var counts [7]int
	for _, email := range emails {
		counts[MondayFirstWeekday(email.Date)]++
	}
	stats := make([]ActivityStat, 0, 7)
	for dow, count := range counts {
		if count > 0 {
			stats = append(stats, ActivityStat{DayOfWeek: dow, EmailCount: count})
		}
	}
	return stats, nil
}

// MondayFirstWeekday maps a date to a Monday=0..Sunday=6 index
func MondayFirstWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// AggregateContacts folds emails into per-counterpart summaries. The
// counterpart is the sender on received emails and each recipient on
// sent emails.
func AggregateContacts(emails []models.Email) []ContactSummary {
	type agg struct {
		summary ContactSummary
	}
	byAddr := make(map[string]*agg)

	observe := func(addr, name string, email *models.Email) {
		if addr == "" {
			return
		}
		a, ok := byAddr[addr]
		if !ok {
			a = &agg{summary: ContactSummary{
				Email:        addr,
				Name:         name,
				FirstContact: email.Date,
				LastContact:  email.Date,
			}}
			byAddr[addr] = a
		}
		s := &a.summary
		s.TotalEmails++
		if email.IsSent {
			s.SentTo++
		} else {
			s.ReceivedFrom++
		}
		if name != "" {
			s.Name = name
		}
		if email.Date.Before(s.FirstContact) {
			s.FirstContact = email.Date
		}
		if email.Date.After(s.LastContact) {
			s.LastContact = email.Date
		}
	}

	for i := range emails {
		email := &emails[i]
		if email.IsSent {
			for _, recipient := range email.RecipientList() {
				observe(recipient, "", email)
			}
		} else {
			observe(email.Sender, email.SenderName, email)
		}
	}

	contacts := make([]ContactSummary, 0, len(byAddr))
	for _, a := range byAddr {
		contacts = append(contacts, a.summary)
	}
	return contacts
}

// SortContacts orders by volume descending, then address ascending
func SortContacts(contacts []ContactSummary) {
	sort.Slice(contacts, func(i, j int) bool {
		if contacts[i].TotalEmails != contacts[j].TotalEmails {
			return contacts[i].TotalEmails > contacts[j].TotalEmails
		}
		return contacts[i].Email < contacts[j].Email
	})
}
