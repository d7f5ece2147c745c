package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gennitdev/storykeep/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and cloud sync status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		books, err := s.Books(ctx)
		if err != nil {
			return err
		}
		profiles, err := s.Profiles(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Database: %s\n", cfg.DBPath)
		fmt.Printf("Books: %d\n", len(books))
		fmt.Printf("Reviewer profiles: %d\n", len(profiles))

		sc, err := newSyncContext(s)
		if err != nil {
			return err
		}
		if sc.HasCloudSync() {
			fmt.Printf("Cloud sync: %s (%s)\n", ui.RenderPass("configured"), cfg.Cloud.Endpoint)
		} else {
			fmt.Printf("Cloud sync: %s\n", ui.RenderMuted("not configured"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
