// ABOUTME: CLI commands for the signed-in identity.
// ABOUTME: Provides login, logout and whoami subcommands.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2389-research/jot/internal/journal"
)

var loginCmd = &cobra.Command{
	Use:   "login <identity>",
	Short: "Sign in as an identity",
	Long:  "Sign in so entries are written and listed under the given identity.",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in identity",
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	if err := globalSessions.Login(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to sign in: %w", err)
	}
	if err := globalJournal.Load(cmd.Context()); err != nil {
		return commandError(err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%d entries)\n", args[0], len(globalJournal.Entries()))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	if err := globalJournal.EndSession(cmd.Context()); err != nil {
		return fmt.Errorf("signed out locally, but: %w", err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	identity, err := globalJournal.Identity(cmd.Context())
	if journal.IsUnauthenticated(err) {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
		return nil
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), identity)
	return nil
}
