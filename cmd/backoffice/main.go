package main

import (
	"os"

	"github.com/spf13/cobra"

	config "github.com/davicafu/backoffice/internal/config"
	"github.com/davicafu/backoffice/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.LoadConfig()

	root := &cobra.Command{
		Use:           "backoffice",
		Short:         "Listados filtrados del back office y su API de recursos",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(cfg.LogLevel)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Logger().Sync()
		},
	}
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "nivel de log (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&cfg.APIBaseURL, "api", cfg.APIBaseURL, "URL base de la API de recursos")

	root.AddCommand(
		newServeCmd(cfg),
		newListCmd(cfg),
		newSeedCmd(cfg),
		newResourcesCmd(),
	)
	return root
}
