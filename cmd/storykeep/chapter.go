package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gennitdev/storykeep/internal/store"
	"github.com/gennitdev/storykeep/internal/ui"
)

var chapterCmd = &cobra.Command{
	Use:     "chapter",
	GroupID: "content",
	Short:   "Manage chapters",
}

var chapterListCmd = &cobra.Command{
	Use:   "list <book-id>",
	Short: "List a book's chapters in reading order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		chapters, err := s.Chapters(ctx, args[0])
		if err != nil {
			return err
		}
		parts, err := s.Parts(ctx, args[0])
		if err != nil {
			return err
		}
		partTitles := make(map[string]string, len(parts))
		for _, p := range parts {
			partTitles[p.ID] = p.Name
		}

		currentPart := ""
		for _, ch := range chapters {
			label := ""
			if ch.PartID != nil {
				label = partTitles[*ch.PartID]
			}
			if label != currentPart {
				currentPart = label
				if label != "" {
					fmt.Println(ui.RenderTitle(label))
				} else {
					fmt.Println(ui.RenderTitle("(uncategorized)"))
				}
			}
			fmt.Printf("  %s  %s %s\n", ch.ID, ch.Title,
				ui.RenderMuted(fmt.Sprintf("(%d words)", ch.WordCount)))
		}
		return nil
	},
}

var chapterAddCmd = &cobra.Command{
	Use:   "add <book-id> <title>",
	Short: "Add a chapter, reading its text from stdin",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		text, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read chapter text: %w", err)
		}

		existing, err := s.Chapters(ctx, args[0])
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		ch := store.Chapter{
			ID:        uuid.NewString(),
			BookID:    args[0],
			Title:     args[1],
			Text:      string(text),
			Position:  len(existing),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.SaveChapter(ctx, &ch); err != nil {
			return err
		}
		fmt.Printf("%s Added chapter %s (%d words)\n",
			ui.RenderPass("✓"), ch.ID, store.WordCount(ch.Text))
		return nil
	},
}

var chapterShowCmd = &cobra.Command{
	Use:   "show <chapter-id>",
	Short: "Print a chapter's text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		ch, err := s.Chapter(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Println(ui.RenderTitle(ch.Title))
		fmt.Println()
		fmt.Println(ch.Text)
		return nil
	},
}

var chapterDeleteCmd = &cobra.Command{
	Use:   "delete <chapter-id>",
	Short: "Delete a chapter and its summary, reviews, and mentions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.DeleteChapter(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("%s Deleted chapter %s\n", ui.RenderPass("✓"), args[0])
		return nil
	},
}

var chapterReorderCmd = &cobra.Command{
	Use:   "reorder <book-id>",
	Short: "Apply a new chapter ordering, read as JSON from stdin",
	Long: `Reorder reads a JSON document from stdin:

  {
    "chapter_order": ["<chapter-id>", ...],
    "part_updates": {"<part-id>": ["<chapter-id>", ...], ...}
  }

chapter_order is the new book-wide order. part_updates assigns listed
chapters to parts; chapters in chapter_order missing from every part
list become uncategorized. The whole ordering applies atomically or not
at all.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		var req struct {
			ChapterOrder []string            `json:"chapter_order"`
			PartUpdates  map[string][]string `json:"part_updates"`
		}
		if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
			return fmt.Errorf("parse reorder request: %w", err)
		}

		if err := s.UpdateChapterOrders(ctx, args[0], req.ChapterOrder, req.PartUpdates); err != nil {
			return err
		}
		fmt.Printf("%s Reordered %d chapters\n", ui.RenderPass("✓"), len(req.ChapterOrder))
		return nil
	},
}

func init() {
	chapterCmd.AddCommand(chapterListCmd)
	chapterCmd.AddCommand(chapterAddCmd)
	chapterCmd.AddCommand(chapterShowCmd)
	chapterCmd.AddCommand(chapterDeleteCmd)
	chapterCmd.AddCommand(chapterReorderCmd)
	rootCmd.AddCommand(chapterCmd)
}
