package main

import (
	"github.com/spf13/cobra"

	"github.com/garyjia/travel-support/internal/domain/form"
)

type formListing struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	Fields           int      `json:"fields"`
	AllowAttachments bool     `json:"allow_attachments"`
	Lookups          []string `json:"lookups,omitempty"`
}

func newFormsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forms",
		Short: "Inspect the form catalogue",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the registered forms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schemas := catalogue().List()
			out := make([]formListing, 0, len(schemas))
			for _, s := range schemas {
				out = append(out, listing(s))
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "schema <form-key>",
		Short: "Print the field rules of a form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := catalogue().Get(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), schemaDump(s))
		},
	})

	return cmd
}

func listing(s *form.Schema) formListing {
	l := formListing{
		Key:              s.Key,
		Title:            s.Title,
		Fields:           len(s.Rules()),
		AllowAttachments: s.AllowAttachments,
	}
	for _, t := range s.LookupTargets() {
		l.Lookups = append(l.Lookups, t.Name)
	}
	return l
}

type fieldDump struct {
	Name       string           `json:"name"`
	Type       form.FieldType   `json:"type"`
	Required   bool             `json:"required,omitempty"`
	OneOf      []string         `json:"one_of,omitempty"`
	NotOneOf   []string         `json:"not_one_of,omitempty"`
	Refinement *form.Refinement `json:"refinement,omitempty"`
}

type schemaListing struct {
	Key     string      `json:"key"`
	Title   string      `json:"title"`
	Receipt string      `json:"receipt_field,omitempty"`
	Fields  []fieldDump `json:"fields"`
}

func schemaDump(s *form.Schema) schemaListing {
	out := schemaListing{Key: s.Key, Title: s.Title, Receipt: s.ReceiptField}
	for _, r := range s.Rules() {
		out.Fields = append(out.Fields, fieldDump{
			Name:       r.Name,
			Type:       r.Type,
			Required:   r.Required,
			OneOf:      r.Constraint.OneOf,
			NotOneOf:   r.Constraint.NotOneOf,
			Refinement: r.Refinement,
		})
	}
	return out
}
