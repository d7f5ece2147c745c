package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/gennitdev/storykeep/internal/api"
	"github.com/gennitdev/storykeep/internal/cloudsync"
	"github.com/gennitdev/storykeep/internal/config"
	"github.com/gennitdev/storykeep/internal/store"
)

var (
	configPath string
	dbPath     string

	cfg    *config.Config
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "storykeep",
	Short: "Local-first manuscript workspace with encrypted cloud backup",
	Long: `storykeep manages books, chapters, summaries, reviews, and story
wikis in a local SQLite database. All writing works offline; an optional
encrypted backup can be pushed to and restored from cloud storage.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.DBPath = dbPath
		}

		var out io.Writer = os.Stderr
		if cfg.LogFile != "" {
			out = &lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    10, // MB
				MaxBackups: 3,
				MaxAge:     30, // days
			}
		}
		logger = log.New(out, "[storykeep] ", log.LstdFlags)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides config)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "content", Title: "Content commands:"},
		&cobra.Group{ID: "sync", Title: "Backup and sync commands:"},
	)
}

// openStore opens and initializes the local database for one command run.
func openStore(ctx context.Context) (*store.Store, error) {
	s := store.New(cfg.DBPath)
	if err := s.Init(ctx); err != nil {
		return nil, fmt.Errorf("initialize database at %s: %w", cfg.DBPath, err)
	}
	return s, nil
}

// newBackendClient wires the REST client for commands that need the
// hosted backend (AI summary and review generation). Requests go out
// unauthenticated when no token is configured.
func newBackendClient() (*api.Client, error) {
	if cfg.BackendBaseURL == "" {
		return nil, fmt.Errorf("no backend configured: set backend_base_url or STORYKEEP_BACKEND_BASE_URL")
	}
	return api.NewClient(cfg.BackendBaseURL, func() (string, bool) {
		return cfg.BackendToken, cfg.BackendToken != ""
	}), nil
}

// newSyncContext wires the cloud sync engine from config. Returns a
// context reporting HasCloudSync() == false when cloud storage is not
// configured.
func newSyncContext(s *store.Store) (*cloudsync.SyncContext, error) {
	if !cfg.Cloud.Configured() {
		return cloudsync.NewSyncContext(nil), nil
	}
	provider, err := cloudsync.NewMinioProvider(cloudsync.MinioConfig{
		Endpoint:  cfg.Cloud.Endpoint,
		AccessKey: cfg.Cloud.AccessKey,
		SecretKey: cfg.Cloud.SecretKey,
		Bucket:    cfg.Cloud.Bucket,
		UseSSL:    cfg.Cloud.UseSSL,
		User:      cfg.Cloud.User,
	})
	if err != nil {
		return nil, err
	}
	return cloudsync.NewSyncContext(cloudsync.New(s, provider, logger)), nil
}
