// ABOUTME: Cobra command for interactive remote API setup.
// ABOUTME: Launches a bubbletea TUI wizard to collect and validate API credentials.
package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/2389-research/jot/internal/config"
	"github.com/2389-research/jot/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Connect jot to a remote entry API",
	Long:  "Interactive wizard to configure and validate remote API credentials.",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	// Only file values are edited so env overrides are not written back.
	cfg, err := config.LoadFile()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	model := tui.NewSetupModel(cfg.Remote.APIURL, cfg.Remote.APIKey)

	p := tea.NewProgram(model)
	result, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	final := result.(tui.SetupModel)
	if !final.ShouldSave() {
		fmt.Println("Setup cancelled.")
		return nil
	}

	cfg.Remote.APIURL, cfg.Remote.APIKey = final.Result()
	if cfg.Backend == "" {
		cfg.Backend = config.BackendRemote
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	configPath, err := config.GetConfigPath()
	if err != nil {
		fmt.Println("Config saved successfully.")
	} else {
		fmt.Printf("Config saved to %s\n", configPath)
	}
	return nil
}
