package cli

import (
	"os"

	"github.com/dandcg/emailarchive/internal/config"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	db  *gorm.DB
	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "emailarchive",
	Short: "Process an email archive into a searchable vector store",
	Long: `emailarchive ingests a mail corpus, classifies each message into a
processing tier, generates semantic embeddings for the substantive ones
and answers similarity-search, timeline and review queries over the
result.

Examples:
  emailarchive ingest ./mail        # ingest .eml files from a directory
  emailarchive backfill             # embed stored emails without vectors
  emailarchive search "tax return"  # semantic search over the archive
  emailarchive status               # archive population by tier
  emailarchive review --start 2024-01-01 --end 2024-12-31`,
}

// Execute runs the CLI with the provided database and config
func Execute(database *gorm.DB, conf *config.Config) {
	db = database
	cfg = conf

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(backfillCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(timelineCmd)
	rootCmd.AddCommand(contactsCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(truncateCmd)
}
