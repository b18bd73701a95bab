package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "foldpredict",
		Short:        "Protein structure prediction front end for the ESMFold API",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (defaults to $CONFIG_FILE)")

	cmd.AddCommand(serveCmd(&configPath))
	cmd.AddCommand(predictCmd(&configPath))
	cmd.AddCommand(historyCmd(&configPath))
	return cmd
}
