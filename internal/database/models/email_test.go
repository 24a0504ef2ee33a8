package models

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestNewEmailID(t *testing.T) {
	first := NewEmailID("<abc@example.com>")
	second := NewEmailID("<abc@example.com>")
	if first != second {
		t.Errorf("same message id produced different ids: %s / %s", first, second)
	}
	if len(first) != 64 {
		t.Errorf("id length = %d, want 64 hex chars", len(first))
	}
	if NewEmailID("<other@example.com>") == first {
		t.Error("distinct message ids collided")
	}
}

func TestProperty_NewEmailID(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("deterministic", prop.ForAll(
		func(messageID string) bool {
			return NewEmailID(messageID) == NewEmailID(messageID)
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestRecipientsRoundTrip(t *testing.T) {
	var email Email

	email.SetRecipients([]string{"a@x", "b@y"})
	got := email.RecipientList()
	if len(got) != 2 || got[0] != "a@x" || got[1] != "b@y" {
		t.Errorf("RecipientList = %v", got)
	}

	email.SetRecipients(nil)
	if email.Recipients != "[]" {
		t.Errorf("empty recipients column = %q, want []", email.Recipients)
	}
	// An empty JSON array and a missing column both decode to nil
	if email.RecipientList() != nil {
		t.Errorf("empty list decoded as %v", email.RecipientList())
	}
	email.Recipients = ""
	if email.RecipientList() != nil {
		t.Errorf("blank column decoded as %v", email.RecipientList())
	}
}

func TestSetEmbedding(t *testing.T) {
	var email Email
	if email.IsEmbedded() {
		t.Error("fresh email reports embedded")
	}

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := email.SetEmbedding([]float64{0.1, -0.2, 0.3}, at); err != nil {
		t.Fatalf("SetEmbedding: %v", err)
	}
	if !email.IsEmbedded() {
		t.Error("embedded email reports not embedded")
	}
	vec := email.EmbeddingVector()
	if len(vec) != 3 || vec[1] != -0.2 {
		t.Errorf("EmbeddingVector = %v", vec)
	}
	if email.EmbeddedAt == nil || !email.EmbeddedAt.Equal(at) {
		t.Errorf("EmbeddedAt = %v", email.EmbeddedAt)
	}
}

func TestBodyWordCount(t *testing.T) {
	tests := []struct {
		body string
		want int
	}{
		{"", 0},
		{"   \n\t", 0},
		{"one", 1},
		{"one two  three\nfour", 4},
	}
	for _, tt := range tests {
		email := Email{BodyText: tt.body}
		if got := email.BodyWordCount(); got != tt.want {
			t.Errorf("BodyWordCount(%q) = %d, want %d", tt.body, got, tt.want)
		}
	}
}

func TestTierString(t *testing.T) {
	tests := []struct {
		tier Tier
		want string
	}{
		{TierUnclassified, "unclassified"},
		{TierExcluded, "excluded"},
		{TierMetadataOnly, "metadata_only"},
		{TierVectorize, "vectorize"},
		{Tier(99), "unclassified"},
	}
	for _, tt := range tests {
		if got := tt.tier.String(); got != tt.want {
			t.Errorf("Tier(%d).String() = %q, want %q", tt.tier, got, tt.want)
		}
	}
	if Tier(99).IsValid() {
		t.Error("Tier(99) reported valid")
	}
}
