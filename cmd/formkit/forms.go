package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formkit/pkg/fieldtypes"
	"github.com/goliatone/go-formkit/pkg/formconfig"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/schema"
	"github.com/goliatone/go-formkit/pkg/summary"
	"github.com/goliatone/go-formkit/pkg/validation"
)

func newTypesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the form types of the entity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			types, err := a.kit.Forms.LoadFormTypes(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(types, func(w io.Writer) error {
				rows := make([][]string, 0, len(types))
				for _, t := range types {
					rows = append(rows, []string{t.Name, t.DisplayName, yesNo(t.IsActive)})
				}
				return table(w, []string{"NAME", "DISPLAY NAME", "ACTIVE"}, rows)
			})
		},
	}
}

func newFieldsCmd(a *app) *cobra.Command {
	var (
		enabledOnly bool
		reload      bool
		byCategory  bool
	)
	cmd := &cobra.Command{
		Use:   "fields <formType>",
		Short: "List the field descriptors of a form type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.kit.Forms.LoadFields(cmd.Context(), args[0], reload)
			if err != nil {
				return err
			}
			fields := cfg.Fields
			if enabledOnly {
				fields = formconfig.Enabled(fields)
			}
			if byCategory {
				groups := formconfig.ByCategory(fields)
				return a.emit(groups, func(w io.Writer) error {
					for _, group := range groups {
						fmt.Fprintf(w, "[%s]\n", group.Name)
						if err := fieldTable(w, group.Fields); err != nil {
							return err
						}
						fmt.Fprintln(w)
					}
					return nil
				})
			}
			return a.emit(fields, func(w io.Writer) error { return fieldTable(w, fields) })
		},
	}
	cmd.Flags().BoolVar(&enabledOnly, "enabled", false, "only enabled fields")
	cmd.Flags().BoolVar(&reload, "reload", false, "bypass the configuration cache")
	cmd.Flags().BoolVar(&byCategory, "by-category", false, "group fields by category")
	return cmd
}

func fieldTable(w io.Writer, fields []model.FieldDescriptor) error {
	rows := make([][]string, 0, len(fields))
	for _, f := range fields {
		rows = append(rows, []string{
			strconv.Itoa(f.ID),
			f.Name,
			f.Label(),
			string(f.FieldType),
			yesNo(f.IsEnabled),
			yesNo(f.IsRequired),
			yesNo(f.IsCore),
			strconv.Itoa(f.SortOrder),
		})
	}
	return table(w, []string{"ID", "NAME", "LABEL", "TYPE", "ENABLED", "REQUIRED", "CORE", "ORDER"}, rows)
}

func newPropsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "props <formType>",
		Short: "Print the input props derived from each enabled field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.kit.Forms.LoadFields(cmd.Context(), args[0], false)
			if err != nil {
				return err
			}
			fields := formconfig.Enabled(cfg.Fields)
			props := make([]map[string]any, 0, len(fields))
			for _, f := range fields {
				props = append(props, fieldtypes.BuildFieldProps(f))
			}
			return a.emit(props, func(w io.Writer) error {
				rows := make([][]string, 0, len(props))
				for i, p := range props {
					rows = append(rows, []string{
						fmt.Sprint(p["name"]),
						fmt.Sprint(p["type"]),
						fields[i].Label(),
						fmt.Sprint(p["required"]),
					})
				}
				return table(w, []string{"NAME", "TYPE", "LABEL", "REQUIRED"}, rows)
			})
		},
	}
}

func newSchemaCmd(a *app) *cobra.Command {
	var version string
	cmd := &cobra.Command{
		Use:   "schema <formType>...",
		Short: "Export form types as an OpenAPI 3 document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgs := make([]model.FormConfiguration, 0, len(args))
			for _, formType := range args {
				cfg, err := a.kit.Forms.LoadFields(cmd.Context(), formType, false)
				if err != nil {
					return err
				}
				cfgs = append(cfgs, cfg)
			}
			doc, err := schema.Document(cmd.Context(), "formkit "+strings.Join(args, ", "), version, cfgs...)
			if err != nil {
				return err
			}
			if a.format == "text" {
				a.format = "json"
			}
			return a.emit(doc, nil)
		},
	}
	cmd.Flags().StringVar(&version, "version", "1.0.0", "document info.version")
	return cmd
}

func newSummaryCmd(a *app) *cobra.Command {
	var (
		dataPath    string
		templateDir string
		template    string
	)
	cmd := &cobra.Command{
		Use:   "summary <formType>",
		Short: "Render a summary of a form type, optionally filled with a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := a.kit.Forms.LoadFields(ctx, args[0], false)
			if err != nil {
				return err
			}
			title := cfg.FormType
			if meta, err := a.kit.Forms.LoadMetadata(ctx, cfg.FormType); err == nil && meta.DisplayName != "" {
				title = meta.DisplayName
			}

			var (
				record model.Record
				errs   validation.FieldErrors
			)
			if dataPath != "" {
				a.entity(ctx)
				input, err := readRecord(dataPath, a.in)
				if err != nil {
					return err
				}
				if record, errs, err = a.kit.Validate(ctx, cfg.FormType, input); err != nil {
					return err
				}
			}

			s := summary.Build(title, cfg, record, errs)
			switch a.format {
			case "yaml":
				return summary.WriteYAML(a.out, s)
			case "json":
				return a.emit(s, nil)
			}
			r, err := summary.New(summary.WithBaseDir(templateDir))
			if err != nil {
				return err
			}
			return r.Render(a.out, template, s)
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "record file (JSON or YAML, - for stdin)")
	cmd.Flags().StringVar(&templateDir, "templates", "", "directory with template overrides")
	cmd.Flags().StringVar(&template, "template", summary.DefaultTemplate, "template name")
	return cmd
}
