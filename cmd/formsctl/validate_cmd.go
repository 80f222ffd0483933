package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/garyjia/travel-support/internal/domain/form"
)

var errInvalidValues = errors.New("values failed validation")

type validateOutput struct {
	Form   string           `json:"form"`
	Valid  bool             `json:"valid"`
	Record form.Record      `json:"record,omitempty"`
	Errors form.FieldErrors `json:"errors,omitempty"`
}

func newValidateCmd() *cobra.Command {
	var (
		formKey string
		file    string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a JSON object of field values against a form",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := catalogue().Get(formKey)
			if err != nil {
				return err
			}

			raw, err := readValues(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			out := validateOutput{Form: schema.Key}
			record, err := schema.Validate(raw)
			var fieldErrs form.FieldErrors
			switch {
			case errors.As(err, &fieldErrs):
				out.Errors = fieldErrs
			case err != nil:
				return err
			default:
				out.Valid = true
				out.Record = record
			}

			if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if !out.Valid {
				return errInvalidValues
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&formKey, "form", "", "Form key (required)")
	cmd.Flags().StringVar(&file, "file", "-", "JSON file with the values, - for stdin")
	_ = cmd.MarkFlagRequired("form")
	return cmd
}

func readValues(stdin io.Reader, file string) (map[string]any, error) {
	var r io.Reader = stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open values file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var values map[string]any
	if err := json.NewDecoder(r).Decode(&values); err != nil {
		return nil, fmt.Errorf("failed to decode values: %w", err)
	}
	return values, nil
}
