package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gennitdev/storykeep/internal/api"
	"github.com/gennitdev/storykeep/internal/ui"
)

var reviewCmd = &cobra.Command{
	Use:     "review",
	GroupID: "content",
	Short:   "Manage chapter reviews",
}

var reviewListCmd = &cobra.Command{
	Use:   "list <chapter-id>",
	Short: "List a chapter's reviews, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		reviews, err := s.Reviews(ctx, args[0])
		if err != nil {
			return err
		}
		if len(reviews) == 0 {
			fmt.Println("No reviews.")
			return nil
		}
		for _, r := range reviews {
			who := r.ProfileName
			if who == "" {
				who = r.ToneKey
			}
			if who == "" {
				who = "reviewer"
			}
			fmt.Printf("%s  %s %s\n", r.ID, ui.RenderTitle(who),
				ui.RenderMuted(r.CreatedAt.Format("2006-01-02 15:04")))
			fmt.Println(r.ReviewText)
			fmt.Println()
		}
		return nil
	},
}

var (
	reviewTone    string
	reviewProfile int64
)

var reviewGenerateCmd = &cobra.Command{
	Use:   "generate <chapter-id>",
	Short: "Generate an AI review via the backend and store it locally",
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

		req := api.ReviewRequest{ChapterID: args[0], ToneKey: reviewTone}
		if reviewProfile != 0 {
			req.ProfileID = &reviewProfile
		}
		review, err := client.GenerateReview(ctx, req)
		if err != nil {
			return fmt.Errorf("generate review: %w", err)
		}
		if review.ID == "" {
			review.ID = uuid.NewString()
		}
		review.ChapterID = args[0]
		if err := s.SaveReview(ctx, &review); err != nil {
			return err
		}
		fmt.Printf("%s Saved review %s\n", ui.RenderPass("✓"), review.ID)
		fmt.Println(review.ReviewText)
		return nil
	},
}

var reviewDeleteCmd = &cobra.Command{
	Use:   "delete <review-id>",
	Short: "Delete one review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.DeleteReview(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("%s Deleted review %s\n", ui.RenderPass("✓"), args[0])
		return nil
	},
}

func init() {
	reviewGenerateCmd.Flags().StringVar(&reviewTone, "tone", "", "review tone key")
	reviewGenerateCmd.Flags().Int64Var(&reviewProfile, "profile", 0, "reviewer profile id")

	reviewCmd.AddCommand(reviewListCmd)
	reviewCmd.AddCommand(reviewGenerateCmd)
	reviewCmd.AddCommand(reviewDeleteCmd)
	rootCmd.AddCommand(reviewCmd)
}
