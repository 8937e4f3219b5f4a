// Command cardctl runs card tracker maintenance tasks from the shell:
// schema migration, spreadsheet import and export, and pruning cards
// created by a bad import.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/biomed/internal/core"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describeError(err))
		os.Exit(1)
	}
}

// describeError renders known failures as the operator message with its
// support code, keeping the technical cause on a second line.
func describeError(err error) string {
	if !core.IsUserFacing(err) {
		return err.Error()
	}
	ue := core.NewUserError(err)
	return fmt.Sprintf("%s (Code: %s). %s\n  cause: %v", ue.Error(), ue.User.Code, ue.User.Action, ue.Technical)
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "cardctl",
		Short:         "Maintenance commands for the biomedical equipment card tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnv(envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading configuration")

	root.AddCommand(
		newMigrateCmd(),
		newImportCmd(),
		newExportCmd(),
		newPruneCmd(),
	)
	return root
}
