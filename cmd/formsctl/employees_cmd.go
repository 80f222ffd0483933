package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/garyjia/travel-support/internal/domain/entity"
	"github.com/garyjia/travel-support/pkg/utils"
)

func newEmployeesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "employees",
		Short: "Manage the local employee directory",
	}

	var file string
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Upsert employees from a JSON array into the SQLite directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			employees, err := readEmployees(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			st, err := openStore(opts.configPath)
			if err != nil {
				return err
			}
			defer st.Close()

			// all rows or none
			err = st.db.TransactionMgr.WithTransaction(cmd.Context(), func(ctx context.Context) error {
				for _, emp := range employees {
					if err := st.repos.Employees.Upsert(ctx, emp); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d employees\n", len(employees))
			return nil
		},
	}
	importCmd.Flags().StringVar(&file, "file", "-", "JSON file, - for stdin")
	cmd.AddCommand(importCmd)

	return cmd
}

// readEmployees decodes and checks the import file. Every row is checked before
// anything is written.
func readEmployees(stdin io.Reader, file string) ([]*entity.Employee, error) {
	var r io.Reader = stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open employees file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var employees []*entity.Employee
	if err := json.NewDecoder(r).Decode(&employees); err != nil {
		return nil, fmt.Errorf("failed to decode employees: %w", err)
	}

	seen := make(map[string]bool, len(employees))
	for i, emp := range employees {
		emp.ID = strings.TrimSpace(emp.ID)
		emp.WorkEmail = strings.ToLower(strings.TrimSpace(emp.WorkEmail))
		if emp.ID == "" {
			return nil, fmt.Errorf("row %d: id is required", i+1)
		}
		if seen[strings.ToUpper(emp.ID)] {
			return nil, fmt.Errorf("row %d: duplicate id %s", i+1, emp.ID)
		}
		seen[strings.ToUpper(emp.ID)] = true
		if err := utils.ValidateEmail(emp.WorkEmail); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return employees, nil
}
