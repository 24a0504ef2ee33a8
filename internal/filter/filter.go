// Package filter classifies emails into processing tiers.
package filter

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dandcg/emailarchive/internal/database/models"
)

// MinWordsForVectorization is the minimum body word count for an email
// with no attachments to be worth embedding.
const MinWordsForVectorization = 30

// Subject signals for transactional/security noise - ordered by frequency
var excludedSubjectPatterns = []*regexp.Regexp{
	regexp.MustCompile(`password reset`),
	regexp.MustCompile(`reset your password`),
	regexp.MustCompile(`verification code`),
	regexp.MustCompile(`verify your email`),
	regexp.MustCompile(`confirm your email`),
	regexp.MustCompile(`unsubscribe`),
	regexp.MustCompile(`has been delivered`),
	regexp.MustCompile(`out for delivery`),
	regexp.MustCompile(`has shipped`),
	regexp.MustCompile(`delivery notification`),
	regexp.MustCompile(`delivery confirmation`),
	regexp.MustCompile(`accepted:\s`),
	regexp.MustCompile(`declined:\s`),
	regexp.MustCompile(`tentative:\s`),
	regexp.MustCompile(`canceled:\s`),
}

// Body signals for transactional/security noise
var excludedBodyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`click here to reset your password`),
	regexp.MustCompile(`your verification code is`),
	regexp.MustCompile(`your package (has been |was )?(delivered|shipped)`),
	regexp.MustCompile(`you have successfully unsubscribed`),
	regexp.MustCompile(`delivery failure`),
	regexp.MustCompile(`mail delivery (failed|subsystem)`),
	regexp.MustCompile(`mailer-daemon`),
}

// Sender address patterns for automated senders
var automatedSenderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^noreply@`),
	regexp.MustCompile(`^no-reply@`),
	regexp.MustCompile(`^notifications?@`),
	regexp.MustCompile(`^alerts?@`),
	regexp.MustCompile(`^mailer-daemon@`),
	regexp.MustCompile(`^postmaster@`),
	regexp.MustCompile(`^bounce`),
}

// Acknowledgement-style replies whose bodies carry no durable content
var acknowledgementReplies = func() map[string]struct{} {
	replies := []string{
		"thanks", "thank you", "thanks!", "thank you!",
		"ok", "okay", "ok!", "okay!",
		"got it", "got it!",
		"sounds good", "sounds good!",
		"great", "great!",
		"perfect", "perfect!",
		"sure", "sure!",
		"yes", "no", "yep", "nope",
		"agreed", "agreed!",
		"done", "done!",
		"noted", "noted!",
		"will do", "will do!",
	}
	set := make(map[string]struct{}, len(replies))
	for _, r := range replies {
		set[strings.ToLower(r)] = struct{}{}
	}
	return set
}()

// Classify assigns an email to a processing tier. It is pure and total:
// the same email always yields the same tier.
//
// Excluded: transactional/security artifacts (password resets, one-time
// codes, delivery notices, calendar responses). Never stored.
// MetadataOnly: automated senders, acknowledgement replies and short
// bodies with no attachments. Stored, never embedded.
// Vectorize: everything else. Attachments promote an otherwise trivial
// body, since they may carry the real content.
func Classify(email *models.Email, hasAttachments bool) models.Tier {
	subject := strings.ToLower(email.Subject)
	body := strings.ToLower(email.BodyText)

	for _, pattern := range excludedSubjectPatterns {
		if pattern.MatchString(subject) {
			return models.TierExcluded
		}
	}

	for _, pattern := range excludedBodyPatterns {
		if pattern.MatchString(body) {
			return models.TierExcluded
		}
	}

	sender := strings.ToLower(email.Sender)
	for _, pattern := range automatedSenderPatterns {
		if pattern.MatchString(sender) {
			return models.TierMetadataOnly
		}
	}

	if !hasAttachments {
		if _, ok := acknowledgementReplies[strings.TrimSpace(body)]; ok {
			return models.TierMetadataOnly
		}
		if email.BodyWordCount() < MinWordsForVectorization {
			return models.TierMetadataOnly
		}
	}

	return models.TierVectorize
}

// HasCalendarAttachment reports whether any raw attachment is a calendar
// invite. Invites are excluded before classification runs.
func HasCalendarAttachment(attachments []models.RawAttachment) bool {
	for _, att := range attachments {
		if strings.EqualFold(filepath.Ext(att.Filename), ".ics") {
			return true
		}
		if strings.HasPrefix(strings.ToLower(att.MimeType), "text/calendar") {
			return true
		}
	}
	return false
}
