// Package embedding composes canonical embedding text, talks to the
// vector provider and backfills stored emails.
package embedding

import "fmt"

// ComposeText builds the canonical representation of an email for
// embedding. Fields are labelled so the generated vectors are
// reproducible and inspectable.
func ComposeText(subject, sender, body string) string {
	return fmt.Sprintf("Subject: %s\nFrom: %s\n\n%s", subject, sender, body)
}
