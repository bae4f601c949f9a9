package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oakwood-commons/dvx/internal/config"
)

var configDefaults bool

// configCmd prints the merged configuration, or the embedded defaults with
// --defaults, as YAML. The output is a valid --config-file.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the dvx configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if configDefaults {
			_, err := cmd.OutOrStdout().Write(config.DefaultYAML())
			return err
		}
		cfg, err := config.Load(config.ResolvePath(configFile))
		if err != nil {
			return err
		}
		out, err := config.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() { //nolint:gochecknoinits
	configCmd.Flags().BoolVar(&configDefaults, "defaults", false, "print the built-in defaults instead of the merged configuration")
}
