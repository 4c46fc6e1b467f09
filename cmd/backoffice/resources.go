package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	sharedDomain "github.com/davicafu/backoffice/internal/shared/domain"
)

func newResourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "Lista los recursos con sus filtros y orden inicial",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := sharedDomain.DefaultRegistry()
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("Recurso", "Path", "Orden", "Offset", "Filtros")
			for _, name := range registry.Names() {
				res, _ := registry.Get(name)
				field, desc := registry.InitialSort(res)
				order := field
				if desc {
					order = "-" + field
				}
				fields := make([]string, 0, len(res.Fields))
				for _, f := range res.Fields {
					fields = append(fields, f.ID+":"+string(f.Type))
				}
				t.Row(name, res.Path, order, strconv.Itoa(res.Offset()), strings.Join(fields, ", "))
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return err
		},
	}
}
