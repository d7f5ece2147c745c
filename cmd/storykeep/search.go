package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gennitdev/storykeep/internal/ui"
)

var searchCmd = &cobra.Command{
	Use:     "search <book-id> <term>",
	GroupID: "content",
	Short:   "Search a book's chapters and wiki pages",
	Long: `Search is case-insensitive and matches chapter titles, chapter
text, wiki page names, summaries, and content.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		result, err := s.SearchBook(ctx, args[0], args[1])
		if err != nil {
			return err
		}

		if len(result.Chapters) == 0 && len(result.WikiPages) == 0 {
			fmt.Println("No matches.")
			return nil
		}
		if len(result.Chapters) > 0 {
			fmt.Println(ui.RenderTitle("Chapters"))
			for _, ch := range result.Chapters {
				fmt.Printf("  %s  %s\n", ch.ID, ch.Title)
			}
		}
		if len(result.WikiPages) > 0 {
			fmt.Println(ui.RenderTitle("Wiki pages"))
			for _, p := range result.WikiPages {
				fmt.Printf("  %s  %s %s\n", p.ID, p.PageName, ui.RenderMuted("("+p.PageType+")"))
			}
		}
		return nil
	},
}

var replaceCmd = &cobra.Command{
	Use:     "replace <chapter-id> <find> <replacement>",
	GroupID: "content",
	Short:   "Replace all occurrences of a term in one chapter",
	Long: `Replace performs a case-insensitive replacement of every occurrence
of the term in the chapter's text and updates the stored word count.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.ReplaceInChapter(ctx, args[0], args[1], args[2]); err != nil {
			return err
		}
		ch, err := s.Chapter(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s Updated %s (%d words)\n", ui.RenderPass("✓"), ch.Title, ch.WordCount)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(replaceCmd)
}
