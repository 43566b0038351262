package main

import (
	"github.com/spf13/cobra"
)

var Version = "dev"

func newRootCmd() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "ieltspro",
		Short:         "IELTS Pro payment and certificate backend",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "optional YAML config file (environment variables take precedence)")

	rootCmd.AddCommand(serveCmd(&configFile))
	rootCmd.AddCommand(statusdCmd(&configFile))
	rootCmd.AddCommand(renderCmd())
	return rootCmd
}
