package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formkit/pkg/model"
)

func newFieldCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "field",
		Short: "Change the enabled and required flags of a field",
	}
	patches := []struct {
		use   string
		short string
		patch func(id int) model.FieldPatch
	}{
		{"enable", "Enable a field", func(id int) model.FieldPatch {
			return model.FieldPatch{FieldID: id, IsEnabled: model.BoolPtr(true)}
		}},
		{"disable", "Disable a field", func(id int) model.FieldPatch {
			return model.FieldPatch{FieldID: id, IsEnabled: model.BoolPtr(false)}
		}},
		{"require", "Mark a field as required", func(id int) model.FieldPatch {
			return model.FieldPatch{FieldID: id, IsRequired: model.BoolPtr(true)}
		}},
		{"optional", "Mark a field as optional", func(id int) model.FieldPatch {
			return model.FieldPatch{FieldID: id, IsRequired: model.BoolPtr(false)}
		}},
	}
	for _, p := range patches {
		p := p
		cmd.AddCommand(&cobra.Command{
			Use:   p.use + " <formType> <fieldID>",
			Short: p.short,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := strconv.Atoi(args[1])
				if err != nil || id <= 0 {
					return fmt.Errorf("invalid field id %q", args[1])
				}
				ctx := cmd.Context()
				if _, err := a.kit.Forms.LoadFields(ctx, args[0], false); err != nil {
					return err
				}
				if err := a.kit.Forms.UpdateField(ctx, args[0], id, p.patch(id)); err != nil {
					return err
				}
				return a.printFields(cmd, args[0])
			},
		})
	}
	return cmd
}

func newOrderCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "order <formType>",
		Short: "Reorder fields from a YAML or JSON list of field_id/sort_order pairs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orders, err := readOrders(file, a.in)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if _, err := a.kit.Forms.LoadFields(ctx, args[0], false); err != nil {
				return err
			}
			if err := a.kit.Forms.UpdateFieldOrder(ctx, args[0], orders); err != nil {
				return err
			}
			return a.printFields(cmd, args[0])
		},
	}
	cmd.Flags().StringVar(&file, "file", "-", "order file (- for stdin)")
	return cmd
}

func newResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <formType>",
		Short: "Restore the default configuration of a form type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := a.kit.Forms.LoadFields(ctx, args[0], false); err != nil {
				return err
			}
			cfg, err := a.kit.Forms.ResetToDefaults(ctx, args[0])
			if err != nil {
				return err
			}
			return a.emit(cfg, func(w io.Writer) error {
				return fieldTable(w, cfg.Fields)
			})
		},
	}
}

func (a *app) printFields(cmd *cobra.Command, formType string) error {
	fields := a.kit.Forms.Fields(cmd.Context(), formType)
	return a.emit(model.FormConfiguration{FormType: formType, Fields: fields}, func(w io.Writer) error {
		return fieldTable(w, fields)
	})
}

// readOrders accepts YAML, which also covers JSON input.
func readOrders(path string, in io.Reader) ([]model.FieldOrder, error) {
	var (
		raw []byte
		err error
	)
	if path == "" || path == "-" {
		raw, err = io.ReadAll(in)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read order file: %w", err)
	}
	var orders []model.FieldOrder
	if err := yaml.Unmarshal(raw, &orders); err != nil {
		return nil, fmt.Errorf("parse order file: %w", err)
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("order file %q has no entries", path)
	}
	return orders, nil
}
