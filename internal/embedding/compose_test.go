package embedding

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestComposeText(t *testing.T) {
	got := ComposeText("Lunch tomorrow", "alice@example.com", "How about noon?")
	want := "Subject: Lunch tomorrow\nFrom: alice@example.com\n\nHow about noon?"
	if got != want {
		t.Errorf("ComposeText() = %q, want %q", got, want)
	}
}

// The composed text must label every field and be reproducible, so the
// same email always embeds to the same vector.
func TestProperty_ComposeText(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	textGen := gen.AlphaString()

	properties.Property("deterministic_and_labelled", prop.ForAll(
		func(subject, sender, body string) bool {
			first := ComposeText(subject, sender, body)
			second := ComposeText(subject, sender, body)
			return first == second &&
				strings.HasPrefix(first, "Subject: "+subject+"\n") &&
				strings.Contains(first, "From: "+sender+"\n") &&
				strings.HasSuffix(first, body)
		},
		textGen,
		textGen,
		textGen,
	))

	properties.TestingRun(t)
}
