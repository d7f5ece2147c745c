package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gennitdev/storykeep/internal/snapshot"
	"github.com/gennitdev/storykeep/internal/ui"
)

var exportCmd = &cobra.Command{
	Use:     "export <file>",
	GroupID: "sync",
	Short:   "Write a plaintext snapshot of the database to a file",
	Long: `Export writes the entire database as versioned JSON. The file is
not encrypted; use backup for cloud copies.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		data, err := snapshot.Export(ctx, s)
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[0], data, 0o600); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		fmt.Printf("%s Exported %d bytes to %s\n", ui.RenderPass("✓"), len(data), args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:     "import <file>",
	GroupID: "sync",
	Short:   "Replace the database with a snapshot file",
	Long: `Import replaces all local data with the snapshot's contents in one
transaction. Snapshots from older application versions are migrated
automatically; snapshots from newer versions are rejected unchanged.

With --legacy, the file is treated as an export from the old hosted
database rather than a versioned snapshot.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read snapshot: %w", err)
		}

		if importLegacy {
			err = snapshot.ImportLegacyExport(ctx, s, data)
		} else {
			err = snapshot.Import(ctx, s, data)
		}
		if err != nil {
			return err
		}
		fmt.Printf("%s Imported %s\n", ui.RenderPass("✓"), args[0])
		return nil
	},
}

var importLegacy bool

func init() {
	importCmd.Flags().BoolVar(&importLegacy, "legacy", false, "treat the file as a legacy hosted-database export")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
