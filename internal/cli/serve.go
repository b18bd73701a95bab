package cli

import (
	"fmt"

	"github.com/amaumene/foldpredict/internal/app"
	"github.com/amaumene/foldpredict/internal/config"
	"github.com/spf13/cobra"
)

func serveCmd(configPath *string) *cobra.Command {
	var addr string

	c := &cobra.Command{
		Use:   "serve",
		Short: "Run the web service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if addr != "" {
				cfg.ServerAddr = addr
			}

			application, err := app.New(cfg)
			if err != nil {
				return err
			}
			return application.Run(cmd.Context())
		},
	}

	c.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (overrides SERVER_ADDR)")
	return c
}
