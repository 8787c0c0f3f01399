package cli

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bindFlags binds each viper key to the flag of the given name.
// Keys use the environment variable spelling in lower case so that
// AutomaticEnv resolves them to the same variables the API server reads.
func bindFlags(v *viper.Viper, lookup func(name string) *pflag.Flag, keys map[string]string) {
	for key, name := range keys {
		if f := lookup(name); f != nil {
			// BindPFlag only fails on a nil flag.
			_ = v.BindPFlag(key, f)
		}
	}
}
