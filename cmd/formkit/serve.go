package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formkit/components/optionsearch"
	"github.com/goliatone/go-formkit/pkg/server"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		listen string
		lists  []string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local form gateway",
		Long: `Serve form configuration, props, validation, schema and option lookups
over HTTP. Prometheus metrics are exposed at /metrics.

Static option lists are read from files with one "value|label" per line:

  formkit serve --options blood_types=blood_types.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			addr := a.cfg.Listen
			if strings.TrimSpace(listen) != "" {
				addr = listen
			}

			opts := []server.Option{
				server.WithLocations(a.kit.Client.Locations()),
				server.WithEntity(a.entity(ctx)),
				server.WithLogger(a.logger),
				server.WithMetrics(a.metrics),
				server.WithMetricsHandler(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})),
			}
			for _, spec := range lists {
				opt, err := optionList(spec)
				if err != nil {
					return err
				}
				opts = append(opts, opt)
			}

			srv := server.New(a.kit.Forms, opts...)
			a.logger.Info().Str("addr", addr).Msg("gateway listening")
			return srv.Run(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides FORMKIT_LISTEN)")
	cmd.Flags().StringArrayVar(&lists, "options", nil, "static option list as name=file (repeatable)")
	return cmd
}

func optionList(spec string) (server.Option, error) {
	name, path, ok := strings.Cut(spec, "=")
	if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("invalid --options %q, want name=file", spec)
	}
	f, err := os.Open(strings.TrimSpace(path))
	if err != nil {
		return nil, fmt.Errorf("open option list: %w", err)
	}
	defer f.Close()
	items, err := optionsearch.LoadOptions(f)
	if err != nil {
		return nil, fmt.Errorf("read option list %s: %w", path, err)
	}
	return server.WithOptionList(name, items), nil
}
