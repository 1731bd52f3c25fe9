package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	formkit "github.com/goliatone/go-formkit"
	"github.com/goliatone/go-formkit/internal/config"
	"github.com/goliatone/go-formkit/internal/logging"
	"github.com/goliatone/go-formkit/pkg/cache"
	"github.com/goliatone/go-formkit/pkg/entity"
	"github.com/goliatone/go-formkit/pkg/metrics"
	"github.com/goliatone/go-formkit/pkg/model"
)

// app is the state shared by sub-commands once the root pre-run resolved
// configuration.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configPath string
	envFile    string
	apiURL     string
	token      string
	logLevel   string
	format     string

	cfg      *config.Config
	logger   zerolog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Collectors
	kit      *formkit.Kit
	redis    *redis.Client
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "formkit",
		Short: "Dynamic form configuration and validation for healthcare scheduling",
		Long: `formkit talks to the form configuration, location and entity services.

It lists form types and fields, toggles and reorders fields, validates and
fills records interactively, exports OpenAPI schemas and summaries, and serves
a local gateway.

Configuration comes from FORMKIT_* environment variables, an optional .env
file and an optional YAML file passed with --config.

Examples:
  formkit types
  formkit fields patient --enabled
  formkit validate patient --data patient.yaml
  formkit field disable patient 12
  formkit serve`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { a.close() },
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML config file")
	flags.StringVar(&a.envFile, "env-file", "", "env file (default: .env)")
	flags.StringVar(&a.apiURL, "api-url", "", "API base URL (overrides FORMKIT_API_URL)")
	flags.StringVar(&a.token, "token", "", "bearer token (overrides FORMKIT_TOKEN)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (overrides FORMKIT_LOG_LEVEL)")
	flags.StringVarP(&a.format, "output", "o", "text", "output format: text, json or yaml")

	root.AddCommand(
		newTypesCmd(a),
		newFieldsCmd(a),
		newPropsCmd(a),
		newValidateCmd(a),
		newFillCmd(a),
		newSchemaCmd(a),
		newSummaryCmd(a),
		newFieldCmd(a),
		newOrderCmd(a),
		newResetCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var envFiles []string
	if strings.TrimSpace(a.envFile) != "" {
		envFiles = append(envFiles, a.envFile)
	}
	cfg, err := config.Load(a.configPath, envFiles...)
	if err != nil {
		return err
	}
	if a.apiURL != "" {
		cfg.APIURL = strings.TrimRight(strings.TrimSpace(a.apiURL), "/")
	}
	if a.token != "" {
		cfg.Token = a.token
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	switch a.format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q", a.format)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, a.errOut)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.registry = prometheus.NewRegistry()
	a.metrics = metrics.New(a.registry)

	configCache, err := a.configCache(cmd.Context())
	if err != nil {
		return err
	}

	kit, err := formkit.New(cfg.APIURL,
		formkit.WithToken(cfg.Token),
		formkit.WithTimeout(cfg.Timeout),
		formkit.WithLogger(logger),
		formkit.WithMetrics(a.metrics),
		formkit.WithConfigCache(configCache),
		formkit.WithDebounce(cfg.Debounce),
	)
	if err != nil {
		return err
	}
	a.kit = kit
	return nil
}

func (a *app) configCache(ctx context.Context) (cache.Cache[model.FormConfiguration], error) {
	if a.cfg.CacheBackend != config.CacheRedis {
		return cache.NewMemory[model.FormConfiguration](cache.WithTTL(a.cfg.CacheTTL)), nil
	}
	a.redis = redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddr})
	if err := a.redis.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis %s: %w", a.cfg.RedisAddr, err)
	}
	store, err := cache.NewRedis[model.FormConfiguration](a.redis,
		cache.WithPrefix("formkit:forms"),
		cache.WithExpiration(a.cfg.CacheTTL),
	)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// entity fetches the configured healthcare entity. Without an entity id it
// returns nil, which every consumer treats as "no defaults".
func (a *app) entity(ctx context.Context) *entity.Context {
	if a.cfg.EntityID <= 0 {
		return nil
	}
	ent, err := a.kit.Entities.Ensure(ctx, a.cfg.EntityID, 0)
	if err != nil {
		a.logger.Warn().Err(err).Int("entity_id", a.cfg.EntityID).Msg("continuing without entity defaults")
		return nil
	}
	return ent
}

func (a *app) close() {
	if a.kit != nil {
		a.kit.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
