package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gennitdev/storykeep/internal/store"
	"github.com/gennitdev/storykeep/internal/ui"
)

var partCmd = &cobra.Command{
	Use:     "part",
	GroupID: "content",
	Short:   "Manage book parts (sections grouping chapters)",
}

var partListCmd = &cobra.Command{
	Use:   "list <book-id>",
	Short: "List a book's parts in order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		parts, err := s.Parts(ctx, args[0])
		if err != nil {
			return err
		}
		for _, p := range parts {
			fmt.Printf("%s  %d. %s\n", p.ID, p.Position+1, p.Name)
		}
		return nil
	},
}

var partCreateCmd = &cobra.Command{
	Use:   "create <book-id> <title>",
	Short: "Create a part at the next position",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		existing, err := s.Parts(ctx, args[0])
		if err != nil {
			return err
		}
		p := store.Part{
			ID:       uuid.NewString(),
			BookID:   args[0],
			Name:     args[1],
			Position: len(existing),
		}
		if err := s.CreatePart(ctx, &p); err != nil {
			return err
		}
		fmt.Printf("%s Created part %s\n", ui.RenderPass("✓"), p.ID)
		return nil
	},
}

var partDeleteCmd = &cobra.Command{
	Use:   "delete <part-id>",
	Short: "Delete a part; its chapters become uncategorized",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.DeletePart(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("%s Deleted part %s\n", ui.RenderPass("✓"), args[0])
		return nil
	},
}

func init() {
	partCmd.AddCommand(partListCmd)
	partCmd.AddCommand(partCreateCmd)
	partCmd.AddCommand(partDeleteCmd)
	rootCmd.AddCommand(partCmd)
}
