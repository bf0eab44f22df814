// ABOUTME: Root Cobra command and lifecycle hooks for the jot CLI.
// ABOUTME: Loads config, builds the logger, opens the entry backend and wires the journal.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/2389-research/jot/internal/config"
	"github.com/2389-research/jot/internal/journal"
	"github.com/2389-research/jot/internal/logging"
	"github.com/2389-research/jot/internal/session"
	"github.com/2389-research/jot/internal/storage"
)

var globalConfig *config.Config
var globalLogger *slog.Logger
var globalLogCloser io.Closer
var globalEntries storage.EntryService
var globalSessions *session.FileProvider
var globalJournal *journal.Journal

var rootCmd = &cobra.Command{
	Use:   "jot",
	Short: "A small journal for your terminal",
	Long: `
     ██╗ ██████╗ ████████╗
     ██║██╔═══██╗╚══██╔══╝
     ██║██║   ██║   ██║
██   ██║██║   ██║   ██║
╚█████╔╝╚██████╔╝   ██║
 ╚════╝  ╚═════╝    ╚═╝

Write short dated entries, keep them private or share them
in the public feed. Entries live in a remote jot API, a local
SQLite database, or plain markdown files.

Run without a subcommand to open the interactive journal.`,
	SilenceUsage: true,
	RunE:         runUI,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "setup" {
			return nil
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		globalConfig = cfg

		logger, closer, err := newLogger(cfg, cmd)
		if err != nil {
			return err
		}
		globalLogger, globalLogCloser = logger, closer
		slog.SetDefault(logger)

		// serve opens its own backend.
		if cmd.Name() == "serve" {
			return nil
		}

		entries, err := openBackend(cfg, cfg.ResolvedBackend())
		if err != nil {
			return err
		}
		globalEntries = entries

		sessionPath, err := cfg.GetSessionPath()
		if err != nil {
			return fmt.Errorf("failed to resolve session path: %w", err)
		}
		globalSessions = session.NewFileProvider(sessionPath)

		policy, err := journal.ParseInsertPolicy(cfg.Journal.InsertPolicy)
		if err != nil {
			return err
		}
		globalJournal = journal.New(globalSessions, globalEntries,
			journal.WithLogger(logger),
			journal.WithInsertPolicy(policy))

		logger.Debug("jot ready", "backend", cfg.ResolvedBackend(), "session", sessionPath)
		return nil
	},
}

// execute runs the root command and releases the backend and log file
// afterwards. Cobra skips post-run hooks when a command fails, so the cleanup
// lives here.
func execute() error {
	defer closeGlobals()
	return rootCmd.Execute()
}

func closeGlobals() {
	if globalEntries != nil {
		if err := globalEntries.Close(); err != nil {
			slog.Warn("failed to close entry backend", "error", err)
		}
		globalEntries = nil
	}
	globalJournal = nil
	if globalLogCloser != nil {
		_ = globalLogCloser.Close()
		globalLogCloser = nil
	}
}

// newLogger builds the process logger. The interactive UI owns the terminal,
// so it logs to a file only.
func newLogger(cfg *config.Config, cmd *cobra.Command) (*slog.Logger, io.Closer, error) {
	logFile, err := cfg.GetLogFile()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve log file: %w", err)
	}

	var terminal io.Writer = os.Stderr
	if !cmd.HasParent() || cmd.Name() == "ui" {
		terminal = nil
		if logFile == "" {
			if logFile, err = config.DefaultLogFile(); err != nil {
				return nil, nil, fmt.Errorf("failed to resolve log file: %w", err)
			}
		}
	}

	logger, closer := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       logFile,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}, terminal)
	return logger, closer, nil
}

// openBackend opens the entry service named by backend.
func openBackend(cfg *config.Config, backend string) (storage.EntryService, error) {
	switch backend {
	case config.BackendRemote:
		if !cfg.HasRemote() {
			return nil, fmt.Errorf("remote backend needs remote.api_url and remote.api_key (run `jot setup`)")
		}
		return storage.NewRemoteClient(cfg.Remote.APIURL, cfg.Remote.APIKey), nil

	case config.BackendSQLite:
		path, err := cfg.GetSQLitePath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve sqlite path: %w", err)
		}
		store, err := storage.OpenSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open entry database: %w", err)
		}
		return store, nil

	case config.BackendMarkdown:
		root, err := cfg.GetMarkdownPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve markdown path: %w", err)
		}
		store, err := storage.NewMarkdownEntryService(root)
		if err != nil {
			return nil, fmt.Errorf("failed to open markdown entries: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown backend %q", backend)
}
