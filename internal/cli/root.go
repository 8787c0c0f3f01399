// Package cli implements matchctl, the operator command line for the match
// results service.
package cli

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCmd creates the root matchctl command.
//
// Every setting can come from a flag, from the environment variable the API
// server reads (DATABASE_URL, GEOCODE_API_KEY, ...) or from the config file,
// in that order of precedence.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:   "matchctl",
		Short: "Operate the match results service",
		Long: `matchctl runs the match results pipeline for a single user from the
terminal and manages the geocode cache database.

Settings are read from flags, environment variables and $HOME/.matchctl.yaml.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cfgFile)
		},
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: $HOME/.matchctl.yaml)")
	root.PersistentFlags().String("database-url", "", "Postgres connection string (env DATABASE_URL)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env LOG_LEVEL)")
	bindFlags(v, root.PersistentFlags().Lookup, map[string]string{
		"database_url": "database-url",
		"log_level":    "log-level",
	})

	root.AddCommand(
		newResultsCmd(v),
		newMigrateCmd(v),
		newCacheCmd(v),
	)

	return root
}

// initConfig points v at the config file and the environment. A missing
// default config file is not an error; a missing explicit one is.
func initConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".matchctl")
		v.SetConfigType("yaml")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return err
		}
	}
	return nil
}
