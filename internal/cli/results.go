package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pkordes/match-results/backend/internal/app"
	"github.com/pkordes/match-results/backend/internal/config"
	"github.com/pkordes/match-results/backend/internal/domain"
	"github.com/pkordes/match-results/backend/internal/geocode"
	"github.com/pkordes/match-results/backend/internal/repo"
)

func newResultsCmd(v *viper.Viper) *cobra.Command {
	var (
		userID  string
		output  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "results",
		Short: "Fetch, geocode and aggregate one user's matches",
		Long: `Runs the same pipeline the API server runs for a logged-in user and prints
the aggregated rows. Nothing is stored in any session.

Geocode answers are read from and written to the Postgres cache unless
--no-cache is given, in which case DATABASE_URL is not needed.`,
		Example: `  matchctl results --user 42
  matchctl results --user 42 --output json
  matchctl results --user 42 --no-cache --geocode-api-key $KEY`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return fmt.Errorf("--user is required")
			}
			if output != "text" && output != "json" {
				return fmt.Errorf("--output must be text or json, got %q", output)
			}

			lookup := v.GetString
			if noCache {
				// Satisfy the DATABASE_URL requirement; no pool is opened.
				lookup = func(key string) string {
					if key == "DATABASE_URL" {
						return "unused"
					}
					return v.GetString(key)
				}
			}
			cfg, err := config.LoadFrom(lookup)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)

			ctx := cmd.Context()
			var cache geocode.Cache
			if !noCache {
				pool, err := openPool(ctx, cfg.DatabaseURL)
				if err != nil {
					return err
				}
				defer pool.Close()
				cache = repo.NewGeocodeRepo(pool)
			}

			pipeline, err := app.NewPipeline(cfg, cache, logger)
			if err != nil {
				return err
			}
			rows, err := pipeline.Run(ctx, userID)
			if err != nil {
				return err
			}

			if output == "json" {
				return writeRowsJSON(cmd.OutOrStdout(), rows)
			}
			return writeRowsTable(cmd.OutOrStdout(), rows)
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id to fetch matches for (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "skip the Postgres geocode cache")
	cmd.Flags().String("match-service-url", "", "matching service base URL (env MATCH_SERVICE_URL)")
	cmd.Flags().String("geocode-url", "", "reverse geocoding endpoint (env GEOCODE_URL)")
	cmd.Flags().String("geocode-api-key", "", "geocoding API key (env GEOCODE_API_KEY)")
	cmd.Flags().String("timezone", "", "time zone for match dates (env TIMEZONE)")
	bindFlags(v, cmd.Flags().Lookup, map[string]string{
		"match_service_url": "match-service-url",
		"geocode_url":       "geocode-url",
		"geocode_api_key":   "geocode-api-key",
		"timezone":          "timezone",
	})

	return cmd
}

// writeRowsTable prints rows as an aligned table. Nil rows mean the user has
// no matches; an empty non-nil slice means none could be placed.
func writeRowsTable(w io.Writer, rows []domain.DisplayRow) error {
	if rows == nil {
		_, err := fmt.Fprintln(w, "No matches.")
		return err
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No match locations could be resolved.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LOCATION\tDATE\tTIME\tMATCHES")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Location, r.Date, r.Time, strconv.Itoa(r.NumberOfMatches))
	}
	return tw.Flush()
}

func writeRowsJSON(w io.Writer, rows []domain.DisplayRow) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// newLogger writes human-readable logs to w; stdout stays reserved for output.
func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
