package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pkordes/match-results/backend/internal/repo"
)

func newCacheCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Maintain the Postgres geocode cache",
	}
	cmd.AddCommand(newCachePruneCmd(v))
	return cmd
}

func newCachePruneCmd(v *viper.Viper) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete cached geocode answers older than a cutoff",
		Long: `Deletes geocode answers resolved before now minus --older-than.
Defaults to GEOCODE_CACHE_TTL, so only entries the server would already
ignore are removed.`,
		Example: "  matchctl cache prune\n  matchctl cache prune --older-than 168h",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("older-than") {
				if ttl := v.GetString("geocode_cache_ttl"); ttl != "" {
					d, err := time.ParseDuration(ttl)
					if err != nil {
						return fmt.Errorf("invalid GEOCODE_CACHE_TTL %q: %w", ttl, err)
					}
					olderThan = d
				}
			}
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be > 0")
			}

			dsn, err := databaseURL(v)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := openPool(ctx, dsn)
			if err != nil {
				return err
			}
			defer pool.Close()

			cutoff := time.Now().Add(-olderThan)
			n, err := repo.NewGeocodeRepo(pool).Prune(ctx, cutoff)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %s cached answers resolved before %s\n",
				humanize.Comma(n), humanize.Time(cutoff))
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "age above which cached answers are deleted")
	return cmd
}
