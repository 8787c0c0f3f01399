package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pkordes/match-results/backend/migrations"
)

func newMigrateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply or inspect geocode cache migrations",
		Long:      `Runs the embedded SQL migrations against DATABASE_URL. Defaults to "up".`,
		Example:   "  matchctl migrate\n  matchctl migrate status\n  matchctl migrate down",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) == 1 {
				action = args[0]
			}

			dsn, err := databaseURL(v)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			db, err := openSQLDB(ctx, dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
			if err != nil {
				return fmt.Errorf("create migration provider: %w", err)
			}

			out := cmd.OutOrStdout()
			switch action {
			case "up":
				results, err := provider.Up(ctx)
				if err != nil {
					return fmt.Errorf("migrate up: %w", err)
				}
				if len(results) == 0 {
					fmt.Fprintln(out, "Already up to date.")
					return nil
				}
				for _, r := range results {
					fmt.Fprintf(out, "applied %s (%s)\n", r.Source.Path, r.Duration.Round(time.Millisecond))
				}
			case "down":
				r, err := provider.Down(ctx)
				if err != nil {
					return fmt.Errorf("migrate down: %w", err)
				}
				fmt.Fprintf(out, "rolled back %s\n", r.Source.Path)
			case "status":
				statuses, err := provider.Status(ctx)
				if err != nil {
					return fmt.Errorf("migrate status: %w", err)
				}
				return writeMigrationStatus(out, statuses)
			}
			return nil
		},
	}
	return cmd
}

func writeMigrationStatus(w io.Writer, statuses []*goose.MigrationStatus) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tFILE")
	for _, s := range statuses {
		applied := "-"
		if !s.AppliedAt.IsZero() {
			applied = s.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Source.Version, s.State, applied, s.Source.Path)
	}
	return tw.Flush()
}
