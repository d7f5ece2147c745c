package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/gennitdev/storykeep/internal/store"
	"github.com/gennitdev/storykeep/internal/ui"
)

var profileCmd = &cobra.Command{
	Use:     "profile",
	GroupID: "content",
	Short:   "Manage custom AI reviewer profiles",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reviewer profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		profiles, err := s.Profiles(ctx)
		if err != nil {
			return err
		}
		for _, p := range profiles {
			fmt.Printf("%d  %s", p.ID, ui.RenderTitle(p.Name))
			if p.Description != "" {
				fmt.Printf("  %s", ui.RenderMuted(p.Description))
			}
			fmt.Println()
		}
		return nil
	},
}

var profileCreateCmd = &cobra.Command{
	Use:   "create <name> [description]",
	Short: "Create a reviewer profile",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		now := time.Now().UTC()
		p := store.Profile{
			Name:      args[0],
			CreatedAt: now,
			UpdatedAt: now,
		}
		if len(args) > 1 {
			p.Description = args[1]
		}
		id, err := s.CreateProfile(ctx, &p)
		if err != nil {
			return err
		}
		fmt.Printf("%s Created profile %d\n", ui.RenderPass("✓"), id)
		return nil
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <profile-id>",
	Short: "Delete a profile and every review it produced",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid profile id %q", args[0])
		}
		if err := s.DeleteProfile(ctx, id); err != nil {
			return err
		}
		fmt.Printf("%s Deleted profile %d\n", ui.RenderPass("✓"), id)
		return nil
	},
}

func init() {
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileCreateCmd)
	profileCmd.AddCommand(profileDeleteCmd)
	rootCmd.AddCommand(profileCmd)
}
