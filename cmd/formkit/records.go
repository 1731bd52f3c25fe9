package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formkit/pkg/formconfig"
	"github.com/goliatone/go-formkit/pkg/formstate"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/prompt"
	"github.com/goliatone/go-formkit/pkg/validation"
)

// errInvalidRecord makes validate exit non-zero after printing the errors.
var errInvalidRecord = errors.New("record is not valid")

type validationReport struct {
	Valid  bool                   `json:"valid"`
	Errors validation.FieldErrors `json:"errors"`
	Data   model.Record           `json:"data"`
}

func newValidateCmd(a *app) *cobra.Command {
	var dataPath string
	cmd := &cobra.Command{
		Use:   "validate <formType>",
		Short: "Validate a record file against a form type",
		Long: `Validate a JSON or YAML record against the enabled fields of a form type.

Field rules run first; when they pass the record is checked against the
OpenAPI schema of the form. The command exits non-zero when the record is
not valid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			input, err := readRecord(dataPath, a.in)
			if err != nil {
				return err
			}
			a.entity(ctx)
			data, errs, err := a.kit.Validate(ctx, args[0], input)
			if err != nil {
				return err
			}
			report := validationReport{Valid: len(errs) == 0, Errors: errs, Data: data}
			if err := a.emit(report, func(w io.Writer) error {
				if report.Valid {
					_, err := fmt.Fprintln(w, "record is valid")
					return err
				}
				for _, name := range errs.Fields() {
					fmt.Fprintf(w, "%s: %s\n", name, strings.Join(errs[name], "; "))
				}
				return nil
			}); err != nil {
				return err
			}
			if !report.Valid {
				return errInvalidRecord
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "-", "record file (JSON or YAML, - for stdin)")
	return cmd
}

func newFillCmd(a *app) *cobra.Command {
	var (
		resource string
		recordID string
		submit   bool
	)
	cmd := &cobra.Command{
		Use:   "fill <formType>",
		Short: "Fill a record interactively and optionally submit it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := a.kit.Forms.LoadFields(ctx, args[0], false)
			if err != nil {
				return err
			}
			if resource == "" {
				resource = cfg.FormType + "s"
			}
			ctrl, err := a.kit.Controller(resource, cfg)
			if err != nil {
				return err
			}

			ent := a.entity(ctx)
			a.kit.Locations.LoadCountries(ctx)
			enabled := formconfig.Enabled(cfg.Fields)
			ctrl.Initialize(nil, enabled, ent)

			filler := prompt.New(
				prompt.WithDriver(prompt.NewSurveyDriver(a.errOut)),
				prompt.WithLocations(a.kit.Locations),
				prompt.WithEntity(ent),
			)
			record, err := filler.Fill(ctx, ctrl, enabled)
			if err != nil {
				return err
			}

			if submit {
				saved, err := ctrl.Submit(ctx, formstate.SubmitRequest{
					Edit:     recordID != "",
					RecordID: recordID,
					Validate: func() bool { return ctrl.ValidateForm(enabled) },
				})
				if err != nil {
					return err
				}
				if saved == nil {
					errs := ctrl.Errors()
					for _, name := range errs.Fields() {
						fmt.Fprintf(a.errOut, "%s: %s\n", name, strings.Join(errs[name], "; "))
					}
					return errInvalidRecord
				}
				record = saved
			}
			return a.emit(record, func(w io.Writer) error {
				for _, name := range record.Keys() {
					fmt.Fprintf(w, "%s: %s\n", name, record[name].Text())
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&resource, "resource", "", "record resource (default: <formType>s)")
	cmd.Flags().StringVar(&recordID, "id", "", "update this record instead of creating one")
	cmd.Flags().BoolVar(&submit, "submit", false, "submit the record after filling")
	return cmd
}
