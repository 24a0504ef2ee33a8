package export

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/dandcg/emailarchive/internal/analytics"
	"github.com/dandcg/emailarchive/internal/database/models"
	"github.com/dandcg/emailarchive/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupExportTestDB(t *testing.T) (*store.Store, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "export_test_*.db")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	tmpFile.Close()

	db, err := gorm.Open(sqlite.Open(tmpFile.Name()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&models.Email{}, &models.Attachment{}, &models.IngestRun{}); err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("Failed to migrate: %v", err)
	}

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		os.Remove(tmpFile.Name())
	}
	return store.New(db), cleanup
}

var exportSeq int

func seedEmail(t *testing.T, st *store.Store, date time.Time, sender, senderName string, recipients []string, isSent bool) {
	t.Helper()
	exportSeq++
	email := &models.Email{
		MessageID:  fmt.Sprintf("<ex%d@x>", exportSeq),
		Date:       date,
		Sender:     sender,
		SenderName: senderName,
		Subject:    "test",
		BodyText:   "body",
		IsSent:     isSent,
		Tier:       models.TierMetadataOnly,
	}
	email.SetRecipients(recipients)
	if err := st.InsertEmail(email); err != nil {
		t.Fatalf("seed insert: %v", err)
	}
}

func TestContactsForPeriod_Direction(t *testing.T) {
	st, cleanup := setupExportTestDB(t)
	defer cleanup()

	me := []string{"me@example.com"}
	period := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	// alice: one sent, one received -> bidirectional, total 2
	seedEmail(t, st, period.AddDate(0, 0, 1), "alice@x", "Alice", me, false)
	seedEmail(t, st, period.AddDate(0, 0, 2), "me@example.com", "", []string{"alice@x"}, true)
	// bob: received only -> inbound
	seedEmail(t, st, period.AddDate(0, 0, 3), "bob@x", "Bob", me, false)
	// carol: sent only -> outbound
	seedEmail(t, st, period.AddDate(0, 0, 4), "me@example.com", "", []string{"carol@x"}, true)
	// outside the period, must not count
	seedEmail(t, st, period.AddDate(0, 2, 0), "alice@x", "Alice", me, false)

	contacts, err := New(st).ContactsForPeriod(period, period.AddDate(0, 1, 0), 10)
	if err != nil {
		t.Fatalf("ContactsForPeriod: %v", err)
	}
	if len(contacts) != 3 {
		t.Fatalf("contacts = %d, want 3", len(contacts))
	}

	byAddr := make(map[string]Contact)
	for _, contact := range contacts {
		byAddr[contact.Email] = contact
	}

	alice := byAddr["alice@x"]
	if alice.TotalEmails != 2 || alice.CommunicationDirection != DirectionBidirectional {
		t.Errorf("alice = total %d direction %s, want 2 bidirectional",
			alice.TotalEmails, alice.CommunicationDirection)
	}
	if bob := byAddr["bob@x"]; bob.CommunicationDirection != DirectionInbound {
		t.Errorf("bob direction = %s, want inbound", bob.CommunicationDirection)
	}
	if carol := byAddr["carol@x"]; carol.CommunicationDirection != DirectionOutbound {
		t.Errorf("carol direction = %s, want outbound", carol.CommunicationDirection)
	}

	// alice leads on volume
	if contacts[0].Email != "alice@x" {
		t.Errorf("top contact = %s, want alice@x", contacts[0].Email)
	}
}

func TestReviewData_PeakActivity(t *testing.T) {
	st, cleanup := setupExportTestDB(t)
	defer cleanup()

	me := []string{"me@example.com"}
	// 2024-01-01 is a Monday: two emails. Tuesday and Wednesday: one each.
	seedEmail(t, st, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), "alice@x", "Alice", me, false)
	seedEmail(t, st, time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC), "bob@x", "Bob", me, false)
	seedEmail(t, st, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), "me@example.com", "", []string{"alice@x"}, true)
	seedEmail(t, st, time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC), "carol@x", "Carol", me, false)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 7, 23, 59, 59, 0, time.UTC)

	review, err := New(st).ReviewData(start, end, 2)
	if err != nil {
		t.Fatalf("ReviewData: %v", err)
	}

	if review.EmailCount != 4 || review.SentCount != 1 || review.ReceivedCount != 3 {
		t.Errorf("counts = %d/%d/%d, want 4/1/3",
			review.EmailCount, review.SentCount, review.ReceivedCount)
	}
	if review.PeakActivityDay != "Monday" {
		t.Errorf("PeakActivityDay = %q, want Monday", review.PeakActivityDay)
	}
	// 9:00 holds three emails, the most of any hour
	if review.PeakActivityHour != 9 {
		t.Errorf("PeakActivityHour = %d, want 9", review.PeakActivityHour)
	}
	if len(review.TopContacts) != 2 {
		t.Errorf("TopContacts = %d, want limit 2", len(review.TopContacts))
	}
	if review.TopContacts[0].Email != "alice@x" {
		t.Errorf("top contact = %s, want alice@x", review.TopContacts[0].Email)
	}
}

func TestReviewData_EmptyPeriod(t *testing.T) {
	st, cleanup := setupExportTestDB(t)
	defer cleanup()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	review, err := New(st).ReviewData(start, start.AddDate(0, 1, 0), 5)
	if err != nil {
		t.Fatalf("ReviewData: %v", err)
	}
	if review.EmailCount != 0 || review.PeakActivityDay != "" {
		t.Errorf("empty review = %+v", review)
	}
}

func TestReportBuilder(t *testing.T) {
	review := &ReviewPeriod{
		PeriodStart:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:        time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		EmailCount:       10,
		SentCount:        4,
		ReceivedCount:    6,
		PeakActivityDay:  "Monday",
		PeakActivityHour: 9,
		TopContacts: []Contact{
			{
				ContactSummary: analytics.ContactSummary{
					Email:       "alice@x",
					Name:        "Alice",
					TotalEmails: 5,
				},
				CommunicationDirection: DirectionBidirectional,
			},
		},
	}

	report := NewReportBuilder().AddReviewPeriod(review).String()

	for _, want := range []string{
		"## Email Activity",
		"**Period:** 2024-01-01 to 2024-01-31",
		"- **Total Emails:** 10",
		"- **Peak Activity:** Monday at 9:00",
		"- **Alice** (alice@x): 5 emails",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q\n%s", want, report)
		}
	}

	// Two builders never share state
	other := NewReportBuilder().String()
	if other != "" {
		t.Errorf("fresh builder not empty: %q", other)
	}
}
