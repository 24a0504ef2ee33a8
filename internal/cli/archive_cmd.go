package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/dandcg/emailarchive/internal/analytics"
	"github.com/dandcg/emailarchive/internal/embedding"
	"github.com/dandcg/emailarchive/internal/export"
	"github.com/dandcg/emailarchive/internal/ingest"
	"github.com/dandcg/emailarchive/internal/search"
	"github.com/dandcg/emailarchive/internal/source"
	"github.com/dandcg/emailarchive/internal/store"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest DIR",
	Short: "Ingest .eml files from a directory into the archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := source.NewDirSource(args[0], cfg.OwnerAddress)
		if err != nil {
			return err
		}

		pipeline := ingest.New(store.New(db))
		stats, err := pipeline.Run(cmd.Context(), src)
		if err != nil {
			return err
		}

		fmt.Println("Ingest complete")
		fmt.Printf("  Total emails:          %d\n", stats.Total)
		fmt.Printf("  Excluded:              %d\n", stats.Excluded)
		fmt.Printf("  Metadata only:         %d\n", stats.MetadataOnly)
		fmt.Printf("  Vectorize:             %d\n", stats.Vectorize)
		fmt.Printf("  Attachments:           %d\n", stats.Attachments)
		fmt.Printf("  Attachments with text: %d\n", stats.AttachmentsWithText)
		fmt.Printf("  Failures:              %d\n", stats.Failures)
		return nil
	},
}

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Generate embeddings for stored emails that have none",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := embedding.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
		if err != nil {
			return fmt.Errorf("set ARCHIVE_OPENAI_API_KEY: %w", err)
		}

		backfiller := embedding.NewBackfiller(store.New(db), provider, cfg.EmbedBatchSize, cfg.EmbedWorkers)
		stats, err := backfiller.Run(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println("Backfill complete")
		fmt.Printf("  Scanned:              %d\n", stats.Scanned)
		fmt.Printf("  Embedded:             %d\n", stats.Embedded)
		fmt.Printf("  Failed:               %d\n", stats.Failed)
		fmt.Printf("  Attachments embedded: %d\n", stats.AttachmentsEmbedded)
		fmt.Printf("  Attachments failed:   %d\n", stats.AttachmentsFailed)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show archive population by tier",
	RunE: func(cmd *cobra.Command, args []string) error {
		st := store.New(db)
		counts, err := st.GetStatusCounts()
		if err != nil {
			return err
		}
		attachments, err := st.GetAttachmentCount()
		if err != nil {
			return err
		}
		withText, err := st.GetAttachmentsWithTextCount()
		if err != nil {
			return err
		}
		attEmbedded, err := st.GetAttachmentsEmbeddedCount()
		if err != nil {
			return err
		}

		fmt.Printf("Stored emails:   %d\n", counts.Total)
		fmt.Printf("  Excluded:      %d (from ingestion runs, never stored)\n", counts.Excluded)
		fmt.Printf("  Metadata only: %d\n", counts.MetadataOnly)
		fmt.Printf("  Vectorize:     %d (%d embedded)\n", counts.Vectorize, counts.Embedded)
		fmt.Printf("Attachments:     %d (%d with text, %d embedded)\n", attachments, withText, attEmbedded)
		return nil
	},
}

var (
	searchLimit           int
	searchEmailsOnly      bool
	searchAttachmentsOnly bool
	searchFrom            string
	searchTo              string
	searchSender          string
)

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Semantic search over embedded emails and attachments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := embedding.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
		if err != nil {
			return fmt.Errorf("set ARCHIVE_OPENAI_API_KEY: %w", err)
		}

		filters := search.Filters{Sender: searchSender}
		if searchFrom != "" {
			start, err := time.Parse("2006-01-02", searchFrom)
			if err != nil {
				return fmt.Errorf("invalid --from, want YYYY-MM-DD: %w", err)
			}
			filters.Start = &start
		}
		if searchTo != "" {
			end, err := time.Parse("2006-01-02", searchTo)
			if err != nil {
				return fmt.Errorf("invalid --to, want YYYY-MM-DD: %w", err)
			}
			end = end.Add(24*time.Hour - time.Nanosecond)
			filters.End = &end
		}

		engine := search.New(store.New(db), provider)
		emailResults, attResults, err := engine.SearchAllText(cmd.Context(), args[0], searchLimit, filters)
		if err != nil {
			return err
		}

		if !searchAttachmentsOnly {
			if len(emailResults) == 0 {
				fmt.Println("No matching emails")
			} else {
				fmt.Printf("Emails (%d results)\n", len(emailResults))
				for i, result := range emailResults {
					fmt.Printf("%2d. [%.3f] %s  %s  %s\n",
						i+1,
						result.Similarity,
						result.Email.Date.Format("2006-01-02"),
						result.Email.Sender,
						result.Email.Subject)
				}
			}
		}
		if !searchEmailsOnly {
			if len(attResults) == 0 {
				fmt.Println("No matching attachments")
			} else {
				fmt.Printf("Attachments (%d results)\n", len(attResults))
				for i, result := range attResults {
					subject := ""
					if result.Email != nil {
						subject = result.Email.Subject
					}
					fmt.Printf("%2d. [%.3f] %s  %s\n",
						i+1,
						result.Similarity,
						result.Attachment.Filename,
						subject)
				}
			}
		}
		return nil
	},
}

var timelineByMonth bool

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Show email volume per year (or per month)",
	RunE: func(cmd *cobra.Command, args []string) error {
		points, err := analytics.New(store.New(db)).Timeline(timelineByMonth)
		if err != nil {
			return err
		}
		for _, point := range points {
			fmt.Printf("%-8s total=%-6d sent=%-6d received=%d\n",
				point.Period(), point.EmailCount, point.SentCount, point.ReceivedCount)
		}
		return nil
	},
}

var contactsLimit int

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Show the busiest contacts across the archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		contacts, err := analytics.New(store.New(db)).TopContacts(contactsLimit)
		if err != nil {
			return err
		}
		for i, contact := range contacts {
			name := contact.Name
			if name == "" {
				name = contact.Email
			}
			fmt.Printf("%2d. %-30s %4d emails (%d sent, %d received)\n",
				i+1, name, contact.TotalEmails, contact.SentTo, contact.ReceivedFrom)
		}
		return nil
	},
}

var (
	reviewStart string
	reviewEnd   string
	reviewTopN  int
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Render a markdown review for a date range",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := time.Parse("2006-01-02", reviewStart)
		if err != nil {
			return fmt.Errorf("invalid --start, want YYYY-MM-DD: %w", err)
		}
		end, err := time.Parse("2006-01-02", reviewEnd)
		if err != nil {
			return fmt.Errorf("invalid --end, want YYYY-MM-DD: %w", err)
		}
		end = end.Add(24*time.Hour - time.Nanosecond)

		review, err := export.New(store.New(db)).ReviewData(start, end, reviewTopN)
		if err != nil {
			return err
		}

		report := export.NewReportBuilder().AddReviewPeriod(review)
		fmt.Print(report.String())
		return nil
	},
}

var truncateForce bool

var truncateCmd = &cobra.Command{
	Use:   "truncate",
	Short: "Delete all stored emails, attachments and run counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !truncateForce {
			fmt.Fprintln(os.Stderr, "Refusing to truncate without --force")
			os.Exit(1)
		}
		if err := store.New(db).Truncate(); err != nil {
			return err
		}
		fmt.Println("Archive truncated")
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "maximum results")
	searchCmd.Flags().BoolVar(&searchEmailsOnly, "emails-only", false, "only search emails")
	searchCmd.Flags().BoolVar(&searchAttachmentsOnly, "attachments-only", false, "only search attachments")
	searchCmd.Flags().StringVar(&searchFrom, "from", "", "filter emails from date (YYYY-MM-DD)")
	searchCmd.Flags().StringVar(&searchTo, "to", "", "filter emails until date (YYYY-MM-DD)")
	searchCmd.Flags().StringVar(&searchSender, "sender", "", "filter emails by sender name or address")
	timelineCmd.Flags().BoolVar(&timelineByMonth, "by-month", false, "bucket by year+month")
	contactsCmd.Flags().IntVar(&contactsLimit, "limit", 20, "maximum contacts")
	reviewCmd.Flags().StringVar(&reviewStart, "start", "", "period start (YYYY-MM-DD)")
	reviewCmd.Flags().StringVar(&reviewEnd, "end", "", "period end (YYYY-MM-DD)")
	reviewCmd.Flags().IntVar(&reviewTopN, "top", 5, "top contacts to include")
	_ = reviewCmd.MarkFlagRequired("start")
	_ = reviewCmd.MarkFlagRequired("end")
	truncateCmd.Flags().BoolVar(&truncateForce, "force", false, "confirm deletion")
}
