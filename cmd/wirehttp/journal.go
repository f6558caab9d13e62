package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wirehttp/internal/logging"
	"wirehttp/internal/storage"
)

var (
	journalLimit  int
	journalFormat string
	journalRecent bool
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Summarize the request journal",
	Long: `Summarize requests recorded by serve --journal, grouped by method,
target and status, busiest first.

Examples:
  wirehttp journal
  wirehttp journal --recent --limit 50
  wirehttp journal --format json`,
	RunE: runJournal,
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.Flags().IntVar(&journalLimit, "limit", 20, "Maximum rows to show (0 for all)")
	journalCmd.Flags().StringVar(&journalFormat, "format", "human", "Output format (human, json)")
	journalCmd.Flags().BoolVar(&journalRecent, "recent", false, "List individual requests, newest first")
}

func runJournal(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(journalFormat, FormatHuman, FormatJSON)
	if err != nil {
		return err
	}

	result, err := loadConfig()
	if err != nil {
		return err
	}
	path := resolvePath(result.Config.Journal.Path)
	if !fileExists(path) {
		return fmt.Errorf("no journal at %s (run serve --journal first)", path)
	}

	db, err := storage.Open(path, logging.NewDiscardLogger())
	if err != nil {
		return err
	}
	defer db.Close()

	resp, err := readJournal(db, journalLimit, journalRecent)
	if err != nil {
		return err
	}

	out, err := FormatResponse(resp, format)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func readJournal(db *storage.DB, limit int, recent bool) (*JournalResponse, error) {
	total, err := db.Count()
	if err != nil {
		return nil, err
	}
	resp := &JournalResponse{Path: db.Path(), Total: total}

	if recent {
		resp.Recent, err = db.Recent(limit)
	} else {
		resp.Summary, err = db.Summarize(limit)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}
