package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MelomanCat/getaround-project/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "getaround",
	Short:         "Getaround rental pricing and check-in delay analysis",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "",
		"configuration file (yaml or json); defaults and GA_ environment variables apply when empty")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
