package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gennitdev/storykeep/internal/store"
	"github.com/gennitdev/storykeep/internal/ui"
)

var bookCmd = &cobra.Command{
	Use:     "book",
	GroupID: "content",
	Short:   "Manage books",
}

var bookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all books",
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
		if len(books) == 0 {
			fmt.Println("No books yet. Create one with: storykeep book create <title>")
			return nil
		}
		for _, b := range books {
			chapters, err := s.Chapters(ctx, b.ID)
			if err != nil {
				return err
			}
			words := 0
			for _, ch := range chapters {
				words += ch.WordCount
			}
			fmt.Printf("%s  %s %s\n", b.ID,
				ui.RenderTitle(b.Title),
				ui.RenderMuted(fmt.Sprintf("(%d chapters, %d words)", len(chapters), words)))
		}
		return nil
	},
}

var bookCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a new book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		book := store.Book{
			ID:        uuid.NewString(),
			Title:     args[0],
			CreatedAt: time.Now().UTC(),
		}
		if err := s.SaveBook(ctx, &book); err != nil {
			return err
		}
		fmt.Printf("%s Created book %s\n", ui.RenderPass("✓"), book.ID)
		return nil
	},
}

var bookDeleteCmd = &cobra.Command{
	Use:   "delete <book-id>",
	Short: "Delete a book and everything in it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.DeleteBook(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("%s Deleted book %s\n", ui.RenderPass("✓"), args[0])
		return nil
	},
}

func init() {
	bookCmd.AddCommand(bookListCmd)
	bookCmd.AddCommand(bookCreateCmd)
	bookCmd.AddCommand(bookDeleteCmd)
	rootCmd.AddCommand(bookCmd)
}
