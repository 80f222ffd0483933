package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/garyjia/travel-support/internal/application/port"
	"github.com/garyjia/travel-support/internal/application/service"
	"github.com/garyjia/travel-support/internal/infrastructure/export"
	"github.com/garyjia/travel-support/pkg/utils"
)

func newExportCmd(opts *options) *cobra.Command {
	var (
		out     string
		formKey string
		since   string
		until   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export recorded requests to an xlsx workbook, one sheet per form",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := exportFilter(formKey, since, until)
			if err != nil {
				return err
			}

			st, err := openStore(opts.configPath)
			if err != nil {
				return err
			}
			defer st.Close()

			requests := service.NewRequestService(
				st.repos.Requests,
				st.repos.Requests,
				export.NewXLSXExporter(st.logger),
				catalogue(),
				utils.NewLoggerAdapter(st.logger),
			)

			data, err := requests.Export(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", fmt.Sprintf("requests-%s.xlsx", time.Now().UTC().Format("20060102")), "Output file")
	cmd.Flags().StringVar(&formKey, "form", "", "Only export this form")
	cmd.Flags().StringVar(&since, "since", "", "Created on or after (UTC, YYYY-MM-DD)")
	cmd.Flags().StringVar(&until, "until", "", "Created on or before (UTC, YYYY-MM-DD)")
	return cmd
}

func exportFilter(formKey, since, until string) (port.RequestFilter, error) {
	f := port.RequestFilter{FormKey: formKey}
	if formKey != "" {
		if _, err := catalogue().Get(formKey); err != nil {
			return f, err
		}
	}
	if since != "" {
		t, err := time.Parse("2006-01-02", since)
		if err != nil {
			return f, fmt.Errorf("invalid --since: %w", err)
		}
		f.Since = t
	}
	if until != "" {
		t, err := time.Parse("2006-01-02", until)
		if err != nil {
			return f, fmt.Errorf("invalid --until: %w", err)
		}
		f.Until = t.AddDate(0, 0, 1)
	}
	if !f.Since.IsZero() && !f.Until.IsZero() && !f.Since.Before(f.Until) {
		return f, fmt.Errorf("--since must not be after --until")
	}
	return f, nil
}
