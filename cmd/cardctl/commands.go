package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/biomed/internal/admin"
	"github.com/JonMunkholm/biomed/internal/bootstrap"
	"github.com/JonMunkholm/biomed/internal/config"
	"github.com/JonMunkholm/biomed/internal/core"
	"github.com/JonMunkholm/biomed/internal/database"
	"github.com/JonMunkholm/biomed/internal/logging"
)

// loadEnv applies the dotenv file when it exists.
func loadEnv(path string) error {
	if path != "" {
		if err := godotenv.Overload(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// openRuntime loads configuration and connects everything a command needs.
func openRuntime(ctx context.Context) (*bootstrap.Runtime, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	rt, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return rt, cfg, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

			pool, err := database.NewPool(cmd.Context(), cfg.Database.URL, nil)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := database.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema up to date.")
			return nil
		},
	}
}

func newImportCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "import <file.xlsx|file.csv>",
		Short: "Import cards from a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			rt, _, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := rt.Service.ImportSpreadsheet(cmd.Context(), filepath.Base(args[0]), f)
			if res != nil {
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					if encErr := enc.Encode(res.Report()); encErr != nil {
						return encErr
					}
				} else {
					printImportResult(cmd, res)
				}
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func printImportResult(cmd *cobra.Command, res *core.ImportResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Header found on row %d.\n", res.HeaderRow)
	fmt.Fprintf(out, "Created %d card(s), skipped %d duplicate(s), %d error(s) in %s.\n",
		res.CreatedCount(), res.SkippedCount(), len(res.Errors), res.Duration.Round(1e6))

	if len(res.Skipped) == 0 && len(res.Errors) == 0 {
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROW\tOUTCOME\tDETAIL")
	for _, s := range res.Skipped {
		fmt.Fprintf(tw, "%d\tskipped\t%s: %s\n", s.Row, s.Name, s.Reason)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(tw, "%d\terror\t%s\n", e.Row, e.Message)
	}
	tw.Flush()
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file.xlsx]",
		Short: "Export every card to an xlsx workbook",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := core.ExportFileName
			if len(args) == 1 {
				path = args[0]
			}

			rt, _, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			f, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := rt.Service.ExportWorkbook(cmd.Context(), f); err != nil {
				f.Close()
				os.Remove(path)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			slog.Info("export written", "path", path)
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s.\n", path)
			return nil
		},
	}
}

func newPruneCmd() *cobra.Command {
	var (
		last int
		yes  bool
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Permanently delete the most recently created cards",
		Long: "Permanently delete the N most recently created cards, with their documents,\n" +
			"schedule, interventions and history. Asks for confirmation unless --yes is given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, _, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			p := &admin.Pruner{Service: rt.Service, In: cmd.InOrStdin(), Out: cmd.OutOrStdout()}
			_, err = p.Prune(cmd.Context(), last, yes)
			return err
		},
	}
	cmd.Flags().IntVarP(&last, "last", "n", 0, "number of newest cards to delete (required)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	_ = cmd.MarkFlagRequired("last")
	return cmd
}
