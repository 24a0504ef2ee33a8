package search

import (
	"fmt"
	"math"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/dandcg/emailarchive/internal/database/models"
	"github.com/dandcg/emailarchive/internal/store"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSearchTestDB(t *testing.T) (*store.Store, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "search_test_*.db")
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

func seedEmbedded(t *testing.T, st *store.Store, id int, vec []float64) *models.Email {
	t.Helper()
	email := &models.Email{
		MessageID: fmt.Sprintf("<s%d@x>", id),
		Date:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, id),
		Sender:    "alice@example.com",
		Subject:   fmt.Sprintf("message %d", id),
		BodyText:  "some body",
		Tier:      models.TierVectorize,
	}
	if err := st.InsertEmail(email); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if vec != nil {
		if err := st.SetEmbedding(email.ID, vec, time.Now().UTC()); err != nil {
			t.Fatalf("embed: %v", err)
		}
	}
	return email
}

func TestSearch_ExactMatchRanksFirst(t *testing.T) {
	st, cleanup := setupSearchTestDB(t)
	defer cleanup()

	target := seedEmbedded(t, st, 0, []float64{0.9, 0.1, 0.0})
	seedEmbedded(t, st, 1, []float64{0.0, 1.0, 0.0})
	seedEmbedded(t, st, 2, []float64{-0.5, 0.2, 0.8})
	// Unembedded emails never participate
	seedEmbedded(t, st, 3, nil)

	engine := New(st, nil)
	results, err := engine.Search([]float64{0.9, 0.1, 0.0}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3 (only embedded emails)", len(results))
	}
	if results[0].Email.ID != target.ID {
		t.Errorf("top result = %s, want %s", results[0].Email.ID, target.ID)
	}
	if results[0].Similarity < 0.99 {
		t.Errorf("exact-match similarity = %f, want >= 0.99", results[0].Similarity)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Similarity > results[i-1].Similarity {
			t.Errorf("results not sorted descending at %d", i)
		}
	}
}

func TestSearch_LimitBounds(t *testing.T) {
	st, cleanup := setupSearchTestDB(t)
	defer cleanup()

	for i := 0; i < 5; i++ {
		seedEmbedded(t, st, i, []float64{float64(i), 1, 0})
	}

	engine := New(st, nil)
	results, err := engine.Search([]float64{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("results = %d, want 2", len(results))
	}

	// Fewer embedded emails than the limit is fine
	results, err = engine.Search([]float64{1, 0, 0}, 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 5 {
		t.Errorf("results = %d, want 5", len(results))
	}
}

func seedAttachment(t *testing.T, st *store.Store, emailID, filename, text string, vec []float64) *models.Attachment {
	t.Helper()
	att := &models.Attachment{
		ID:       models.NewAttachmentID(emailID, filename, 0),
		EmailID:  emailID,
		Filename: filename,
		MimeType: "text/plain",
	}
	if text != "" {
		att.ExtractedText = &text
	}
	if err := st.InsertAttachment(att); err != nil {
		t.Fatalf("insert attachment: %v", err)
	}
	if vec != nil {
		if err := st.SetAttachmentEmbedding(att.ID, vec, time.Now().UTC()); err != nil {
			t.Fatalf("embed attachment: %v", err)
		}
	}
	return att
}

func TestSearchAttachments(t *testing.T) {
	st, cleanup := setupSearchTestDB(t)
	defer cleanup()

	parent := seedEmbedded(t, st, 0, []float64{1, 0, 0})
	target := seedAttachment(t, st, parent.ID, "quote.txt", "renovation estimate", []float64{0.9, 0.1, 0.0})
	seedAttachment(t, st, parent.ID, "notes.txt", "meeting notes", []float64{0.0, 1.0, 0.0})
	// No extracted text means no embedding and no participation
	seedAttachment(t, st, parent.ID, "photo.png", "", nil)

	engine := New(st, nil)
	results, err := engine.SearchAttachments([]float64{0.9, 0.1, 0.0}, 10)
	if err != nil {
		t.Fatalf("SearchAttachments: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2 (only embedded attachments)", len(results))
	}
	if results[0].Attachment.ID != target.ID {
		t.Errorf("top result = %s, want %s", results[0].Attachment.Filename, target.Filename)
	}
	if results[0].Similarity < 0.99 {
		t.Errorf("exact-match similarity = %f, want >= 0.99", results[0].Similarity)
	}
	if results[0].Email == nil || results[0].Email.ID != parent.ID {
		t.Errorf("parent email not attached to result: %+v", results[0].Email)
	}
}

func TestSearchWithFilters(t *testing.T) {
	st, cleanup := setupSearchTestDB(t)
	defer cleanup()

	// seedEmbedded dates each email at 2024-01-01 + id days
	early := seedEmbedded(t, st, 1, []float64{1, 0, 0})
	late := seedEmbedded(t, st, 20, []float64{1, 0, 0})

	engine := New(st, nil)
	query := []float64{1, 0, 0}

	cutoff := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	before, err := engine.SearchWithFilters(query, 10, Filters{End: &cutoff})
	if err != nil {
		t.Fatalf("SearchWithFilters: %v", err)
	}
	if len(before) != 1 || before[0].Email.ID != early.ID {
		t.Errorf("end filter kept %d results, want only the early email", len(before))
	}

	after, err := engine.SearchWithFilters(query, 10, Filters{Start: &cutoff})
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != 1 || after[0].Email.ID != late.ID {
		t.Errorf("start filter kept %d results, want only the late email", len(after))
	}

	// Sender matches case-insensitively on address substring
	bySender, err := engine.SearchWithFilters(query, 10, Filters{Sender: "ALICE"})
	if err != nil {
		t.Fatal(err)
	}
	if len(bySender) != 2 {
		t.Errorf("sender filter kept %d results, want 2", len(bySender))
	}
	none, err := engine.SearchWithFilters(query, 10, Filters{Sender: "nobody"})
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("sender filter kept %d results, want 0", len(none))
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0},
		{"length mismatch", []float64{1}, []float64{1, 0}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestProperty_CosineSimilarity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	vecGen := gen.IntRange(1, 16).FlatMap(func(n interface{}) gopter.Gen {
		return gen.SliceOfN(n.(int), gen.Float64Range(-10, 10))
	}, reflect.TypeOf([]float64{}))

	properties.Property("bounded_in_unit_interval", prop.ForAll(
		func(a []float64) bool {
			b := make([]float64, len(a))
			for i := range a {
				b[i] = a[len(a)-1-i]
			}
			sim := CosineSimilarity(a, b)
			return sim >= -1.0000001 && sim <= 1.0000001
		},
		vecGen,
	))

	properties.Property("self_similarity_is_one", prop.ForAll(
		func(a []float64) bool {
			var norm float64
			for _, v := range a {
				norm += v * v
			}
			if norm == 0 {
				return CosineSimilarity(a, a) == 0
			}
			return math.Abs(CosineSimilarity(a, a)-1) < 1e-9
		},
		vecGen,
	))

	properties.TestingRun(t)
}
