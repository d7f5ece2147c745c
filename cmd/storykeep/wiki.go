package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gennitdev/storykeep/internal/store"
	"github.com/gennitdev/storykeep/internal/ui"
)

var wikiCmd = &cobra.Command{
	Use:     "wiki",
	GroupID: "content",
	Short:   "Manage a book's story wiki",
}

var wikiListCmd = &cobra.Command{
	Use:   "list <book-id>",
	Short: "List a book's wiki pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		pages, err := s.WikiPages(ctx, args[0])
		if err != nil {
			return err
		}
		for _, p := range pages {
			marker := " "
			if p.IsMajor {
				marker = ui.RenderAccent("*")
			}
			fmt.Printf("%s %s  %s %s\n", marker, p.ID, p.PageName,
				ui.RenderMuted("("+p.PageType+")"))
		}
		return nil
	},
	Args: cobra.ExactArgs(1),
}

var wikiAddCmd = &cobra.Command{
	Use:   "add <book-id> <name>",
	Short: "Add a wiki page, reading its content from stdin",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read page content: %w", err)
		}

		now := time.Now().UTC()
		page := store.WikiPage{
			ID:        uuid.NewString(),
			BookID:    args[0],
			PageName:  args[1],
			PageType:  wikiPageType,
			Content:   string(content),
			IsMajor:   wikiMajor,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.SaveWikiPage(ctx, &page); err != nil {
			return err
		}
		fmt.Printf("%s Created wiki page %s\n", ui.RenderPass("✓"), page.ID)
		return nil
	},
}

var wikiShowCmd = &cobra.Command{
	Use:   "show <page-id>",
	Short: "Print a wiki page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		page, err := s.WikiPage(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", ui.RenderTitle(page.PageName), ui.RenderMuted("("+page.PageType+")"))
		if page.Summary != "" {
			fmt.Println(page.Summary)
		}
		fmt.Println()
		fmt.Println(page.Content)

		updates, err := s.WikiUpdates(ctx, page.ID)
		if err != nil {
			return err
		}
		if len(updates) > 0 {
			fmt.Println()
			fmt.Println(ui.RenderTitle("History"))
			for _, u := range updates {
				fmt.Printf("  %s  %s: %s\n",
					u.CreatedAt.Format(time.RFC3339), u.UpdateType, u.ChangeSummary)
			}
		}
		return nil
	},
}

var wikiDeleteCmd = &cobra.Command{
	Use:   "delete <page-id>",
	Short: "Delete a wiki page and its history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.DeleteWikiPage(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("%s Deleted wiki page %s\n", ui.RenderPass("✓"), args[0])
		return nil
	},
}

var (
	wikiPageType string
	wikiMajor    bool
)

func init() {
	wikiAddCmd.Flags().StringVar(&wikiPageType, "type", store.PageTypeOther,
		"page type: character, location, concept, or other")
	wikiAddCmd.Flags().BoolVar(&wikiMajor, "major", false, "mark as a major entity")
	wikiCmd.AddCommand(wikiListCmd)
	wikiCmd.AddCommand(wikiAddCmd)
	wikiCmd.AddCommand(wikiShowCmd)
	wikiCmd.AddCommand(wikiDeleteCmd)
	rootCmd.AddCommand(wikiCmd)
}
