package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gennitdev/storykeep/internal/ui"
)

var summaryCmd = &cobra.Command{
	Use:     "summary",
	GroupID: "content",
	Short:   "Manage chapter summaries",
}

var summaryShowCmd = &cobra.Command{
	Use:   "show <chapter-id>",
	Short: "Show a chapter's summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		sum, err := s.Summary(ctx, args[0])
		if err != nil {
			return err
		}
		if sum == nil {
			fmt.Println("No summary.")
			return nil
		}
		fmt.Println(sum.Summary)
		if sum.POV != "" {
			fmt.Printf("%s %s\n", ui.RenderMuted("POV:"), sum.POV)
		}
		if len(sum.Characters) > 0 {
			fmt.Printf("%s %s\n", ui.RenderMuted("Characters:"), strings.Join(sum.Characters, ", "))
		}
		for _, beat := range sum.Beats {
			fmt.Printf("  - %s\n", beat)
		}
		return nil
	},
}

var summaryGenerateCmd = &cobra.Command{
	Use:   "generate <chapter-id>",
	Short: "Generate a summary via the backend and store it locally",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := newBackendClient()
		if err != nil {
			return err
		}
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		sum, err := client.GenerateSummary(ctx, args[0])
		if err != nil {
			return fmt.Errorf("generate summary: %w", err)
		}
		sum.ChapterID = args[0]
		if err := s.SaveSummary(ctx, &sum); err != nil {
			return err
		}
		fmt.Printf("%s Saved summary for chapter %s\n", ui.RenderPass("✓"), args[0])
		fmt.Println(sum.Summary)
		return nil
	},
}

func init() {
	summaryCmd.AddCommand(summaryShowCmd)
	summaryCmd.AddCommand(summaryGenerateCmd)
	rootCmd.AddCommand(summaryCmd)
}
