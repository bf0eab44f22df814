// ABOUTME: CLI commands for journal entries.
// ABOUTME: Provides list, read, search, write, delete and feed subcommands over the journal.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2389-research/jot/internal/journal"
	"github.com/2389-research/jot/internal/models"
	"github.com/2389-research/jot/internal/storage"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your entries",
	Long:  "List your journal entries, most recent date first.",
	RunE:  runList,
}

var readCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Read an entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runRead,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search your entries",
	Long:  "Search titles and content of your entries, ignoring case.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var writeCmd = &cobra.Command{
	Use:   "write [content...]",
	Short: "Write a new entry dated today",
	Long: `Write a new journal entry dated today.

Content comes from the arguments, or from stdin when there are none.`,
	RunE: runWrite,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Show recent public entries from everyone",
	RunE:  runFeed,
}

// Flags
var (
	listLimit   int
	searchLimit int
	feedLimit   int
	writeTitle  string
	writePublic bool
	deleteYes   bool
)

func init() {
	rootCmd.AddCommand(listCmd, readCmd, searchCmd, writeCmd, deleteCmd, feedCmd)

	listCmd.Flags().IntVar(&listLimit, "limit", 20, "Maximum number of entries to show")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "Maximum number of results")
	feedCmd.Flags().IntVar(&feedLimit, "limit", storage.DefaultPublicLimit, "Maximum number of entries to show")

	writeCmd.Flags().StringVarP(&writeTitle, "title", "t", "", "Optional title")
	writeCmd.Flags().BoolVarP(&writePublic, "public", "p", false, "Show the entry in the public feed")

	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Delete without asking for confirmation")
}

func runList(cmd *cobra.Command, args []string) error {
	if err := loadJournal(cmd.Context()); err != nil {
		return err
	}

	entries := globalJournal.Entries()
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No entries yet.")
		return nil
	}
	printEntryLines(cmd.OutOrStdout(), limit(entries, listLimit))
	return nil
}

func runRead(cmd *cobra.Command, args []string) error {
	if err := loadJournal(cmd.Context()); err != nil {
		return err
	}

	entry, ok := globalJournal.Entry(args[0])
	if !ok {
		return fmt.Errorf("entry %s not found", args[0])
	}
	printEntry(cmd.OutOrStdout(), entry)
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := loadJournal(cmd.Context()); err != nil {
		return err
	}

	results := globalJournal.Search(args[0])
	if len(results) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No matching entries found.")
		return nil
	}
	for _, e := range limit(results, searchLimit) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "--- %s [%s] %s\n  %s\n\n",
			e.Date, e.ID, e.TitleOr("(untitled)"), truncate(e.Content, 100))
	}
	return nil
}

func runWrite(cmd *cobra.Command, args []string) error {
	content := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read content from stdin: %w", err)
		}
		content = string(data)
	}

	if err := loadJournal(cmd.Context()); err != nil {
		return err
	}

	draft := &models.Draft{Title: writeTitle, Content: content, IsPublic: writePublic}
	created, err := globalJournal.Create(cmd.Context(), draft)
	if err != nil {
		return commandError(err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Entry written: %s (%s, %s)\n",
		created.ID, created.Date, visibility(created.IsPublic))
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	if err := loadJournal(cmd.Context()); err != nil {
		return err
	}

	confirm := journal.Answer(true)
	if !deleteYes {
		confirm = promptConfirmer(cmd.InOrStdin(), cmd.OutOrStdout())
	}

	deleted, err := globalJournal.Delete(cmd.Context(), args[0], confirm)
	if err != nil {
		return commandError(err)
	}
	if !deleted {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Nothing deleted.")
		return nil
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted entry %s\n", args[0])
	return nil
}

func runFeed(cmd *cobra.Command, args []string) error {
	entries, err := globalEntries.ListPublic(cmd.Context(), feedLimit)
	if err != nil {
		return fmt.Errorf("failed to read feed: %w", err)
	}
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No public entries yet.")
		return nil
	}
	for _, e := range entries {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s @%s %s\n  %s\n\n",
			e.Date, e.OwnerID, e.TitleOr("(untitled)"), truncate(e.Content, 100))
	}
	return nil
}

// loadJournal builds the mirror for the signed-in identity.
func loadJournal(ctx context.Context) error {
	if err := globalJournal.Load(ctx); err != nil {
		return commandError(err)
	}
	return nil
}

// commandError rewrites journal errors into messages a CLI user can act on.
func commandError(err error) error {
	switch {
	case journal.IsUnauthenticated(err):
		return fmt.Errorf("not signed in: run `jot login <identity>` first")
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("entry not found: %w", err)
	}
	return err
}

// promptConfirmer asks on out and reads a y/n answer from in.
func promptConfirmer(in io.Reader, out io.Writer) journal.Confirmer {
	return journal.ConfirmFunc(func(_ context.Context, message string) bool {
		_, _ = fmt.Fprintf(out, "%s [y/N] ", message)
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	})
}

func printEntryLines(w io.Writer, entries []models.JournalEntry) {
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s [%s] %s (%s)\n", e.Date, e.ID, e.TitleOr("(untitled)"), visibility(e.IsPublic))
	}
}

func printEntry(w io.Writer, e models.JournalEntry) {
	_, _ = fmt.Fprintf(w, "ID: %s\n", e.ID)
	_, _ = fmt.Fprintf(w, "Date: %s\n", e.Date)
	if e.HasTitle() {
		_, _ = fmt.Fprintf(w, "Title: %s\n", *e.Title)
	}
	_, _ = fmt.Fprintf(w, "Visibility: %s\n\n%s\n", visibility(e.IsPublic), e.Content)
}

func limit(entries []models.JournalEntry, n int) []models.JournalEntry {
	if n > 0 && len(entries) > n {
		return entries[:n]
	}
	return entries
}

func visibility(public bool) string {
	if public {
		return "public"
	}
	return "private"
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
