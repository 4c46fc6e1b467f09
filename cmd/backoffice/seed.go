package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	config "github.com/davicafu/backoffice/internal/config"
	"github.com/davicafu/backoffice/internal/listing/infra/outbound/resource"
	sharedDomain "github.com/davicafu/backoffice/internal/shared/domain"
	"github.com/davicafu/backoffice/pkg/logger"
)

func newSeedCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.json>",
		Short: "Carga registros por la API: {\"recurso\": [{...}, ...]}",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var batches map[string][]sharedDomain.Record
			if err := json.Unmarshal(data, &batches); err != nil {
				return fmt.Errorf("invalid seed file: %w", err)
			}

			log := logger.Logger()
			registry := sharedDomain.DefaultRegistry()
			client := resource.NewClient(resource.Config{
				BaseURL: cfg.APIBaseURL,
				Token:   cfg.APIToken,
				Timeout: cfg.HTTPTimeout,
			}, log)

			names := make([]string, 0, len(batches))
			for name := range batches {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				res, err := registry.Get(name)
				if err != nil {
					return err
				}
				for _, rec := range batches[name] {
					if _, err := client.Create(cmd.Context(), res.Path, rec); err != nil {
						return fmt.Errorf("seed %s: %w", name, err)
					}
				}
				log.Info("✅ Registros cargados", zap.String("resource", name), zap.Int("count", len(batches[name])))
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", name, len(batches[name]))
			}
			return nil
		},
	}
}
