package export

import (
	"fmt"
	"strings"
)

// ReportBuilder accumulates markdown sections for a review report. It is
// an explicit value rather than package state, so concurrent export runs
// never share a buffer.
type ReportBuilder struct {
	sections []string
}

// NewReportBuilder creates an empty report
func NewReportBuilder() *ReportBuilder {
	return &ReportBuilder{}
}

// AddReviewPeriod appends the email-activity section for a review period
func (b *ReportBuilder) AddReviewPeriod(review *ReviewPeriod) *ReportBuilder {
	var sb strings.Builder
	sb.WriteString("## Email Activity\n\n")
	fmt.Fprintf(&sb, "**Period:** %s to %s\n\n",
		review.PeriodStart.Format("2006-01-02"), review.PeriodEnd.Format("2006-01-02"))
	sb.WriteString("### Summary\n")
	fmt.Fprintf(&sb, "- **Total Emails:** %d\n", review.EmailCount)
	fmt.Fprintf(&sb, "- **Sent:** %d\n", review.SentCount)
	fmt.Fprintf(&sb, "- **Received:** %d\n", review.ReceivedCount)
	fmt.Fprintf(&sb, "- **Peak Activity:** %s at %d:00\n\n",
		review.PeakActivityDay, review.PeakActivityHour)

	if len(review.TopContacts) > 0 {
		sb.WriteString("### Top Contacts\n")
		for _, contact := range review.TopContacts {
			name := contact.Name
			if name == "" {
				name = contact.Email
			}
			fmt.Fprintf(&sb, "- **%s** (%s): %d emails\n", name, contact.Email, contact.TotalEmails)
		}
		sb.WriteString("\n")
	}

	b.sections = append(b.sections, sb.String())
	return b
}

// AddContact appends one contact as its own section
func (b *ReportBuilder) AddContact(contact Contact) *ReportBuilder {
	var sb strings.Builder
	header := contact.Name
	if header == "" {
		header = contact.Email
	}
	fmt.Fprintf(&sb, "### %s\n\n", header)
	if contact.Name != "" {
		fmt.Fprintf(&sb, "**Email:** %s\n", contact.Email)
	}
	fmt.Fprintf(&sb, "**Communication:** %d total emails (%d sent, %d received)\n",
		contact.TotalEmails, contact.SentTo, contact.ReceivedFrom)
	fmt.Fprintf(&sb, "**Direction:** %s\n", contact.CommunicationDirection)
	fmt.Fprintf(&sb, "**First Contact:** %s\n", contact.FirstContact.Format("2006-01-02"))
	fmt.Fprintf(&sb, "**Last Contact:** %s\n\n", contact.LastContact.Format("2006-01-02"))

	b.sections = append(b.sections, sb.String())
	return b
}

// String renders the accumulated report
func (b *ReportBuilder) String() string {
	return strings.Join(b.sections, "")
}
