package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gennitdev/storykeep/internal/cloudsync"
	"github.com/gennitdev/storykeep/internal/ui"
)

var backupCmd = &cobra.Command{
	Use:     "backup",
	GroupID: "sync",
	Short:   "Encrypt the local database and upload it to cloud storage",
	Long: `Export a full snapshot of the local database, encrypt it with a
password of your choosing, and upload it to the configured cloud bucket.

The password never leaves this machine. Losing it means losing the
backup: there is no recovery path.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		sc, err := newSyncContext(s)
		if err != nil {
			return err
		}
		if !sc.HasCloudSync() {
			return fmt.Errorf("cloud storage is not configured; set cloud.endpoint and cloud.bucket")
		}

		password, err := readPassword("Backup password: ")
		if err != nil {
			return err
		}
		confirm, err := readPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}

		if err := sc.Engine().Backup(ctx, password); err != nil {
			return err
		}
		fmt.Printf("%s Backup uploaded\n", ui.RenderPass("✓"))
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:     "restore",
	GroupID: "sync",
	Short:   "Download the cloud backup and replace the local database",
	Long: `Download the encrypted backup from cloud storage, decrypt it with
your backup password, and replace all local data with its contents.

Local data is only replaced after the backup decrypts and validates; a
wrong password leaves everything untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		sc, err := newSyncContext(s)
		if err != nil {
			return err
		}
		if !sc.HasCloudSync() {
			return fmt.Errorf("cloud storage is not configured; set cloud.endpoint and cloud.bucket")
		}

		password, err := readPassword("Backup password: ")
		if err != nil {
			return err
		}

		restored, err := sc.Engine().Restore(ctx, password)
		if errors.Is(err, cloudsync.ErrInvalidPasswordOrCorruptData) {
			return fmt.Errorf("wrong password or corrupt backup; local data unchanged")
		}
		if err != nil {
			return err
		}
		if !restored {
			fmt.Printf("%s No backup found\n", ui.RenderWarn("!"))
			return nil
		}
		fmt.Printf("%s Backup restored\n", ui.RenderPass("✓"))
		return nil
	},
}

func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		// Piped input, read a line without echo handling.
		var password string
		if _, err := fmt.Fscanln(os.Stdin, &password); err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return password, nil
	}
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

func init() {
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
}
