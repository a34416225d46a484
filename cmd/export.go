package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var exportTables = []string{"normalized", "joined", "features", "stats"}

func newExportCmd(a *app) *cobra.Command {
	var (
		which  string
		pretty bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Escreve uma das tabelas do pipeline em JSON",
		Long: `Escreve em JSON, na saída padrão, a tabela normalizada (normalized), a
tabela cruzada com os estados (joined), as feições de referência com centroide
e geohash (features) ou as estatísticas do cruzamento (stats).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.loadDataset(cmd.Context())
			if err != nil {
				return err
			}

			var v any
			switch which {
			case "normalized":
				v = data.Diseases
			case "joined":
				v = data.Joined
			case "features":
				v = data.Features
			case "stats":
				v = data.Stats
			default:
				return fmt.Errorf("unknown table %q (want one of %v)", which, exportTables)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if pretty {
				enc.SetIndent("", "  ")
			}
			if err := enc.Encode(v); err != nil {
				return fmt.Errorf("failed to encode %s: %w", which, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&which, "table", "t", "joined", "Table to export: normalized, joined, features or stats")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the JSON output")
	return cmd
}
