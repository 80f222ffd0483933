package main

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/garyjia/travel-support/internal/forms"
)

type options struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "formsctl",
		Short:         "Travel support form tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "configs/config.yaml", "Config file (missing file means defaults and environment)")

	cmd.AddCommand(newFormsCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newExportCmd(opts))
	cmd.AddCommand(newEmployeesCmd(opts))
	return cmd
}

func catalogue() *forms.Catalogue {
	return forms.NewCatalogue(time.Now)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func configPathOrEmpty(path string) string {
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
