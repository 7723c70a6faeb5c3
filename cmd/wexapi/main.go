package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wexample/go-api/internal/config"
	"github.com/wexample/go-api/pkg/client"
	"github.com/wexample/go-api/pkg/client/rediscache"
	"github.com/wexample/go-api/pkg/entity"
	"github.com/wexample/go-api/pkg/repository"
)

// version is overridden via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries the state shared by every subcommand of one invocation.
type app struct {
	cfgFile  string
	format   string
	entities []string

	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:   "wexapi",
		Short: "Browse entities exposed by a JSON API",
		Long: `wexapi lists and shows entities served by a JSON API that follows the
<entity>/list and <entity>/show/<id> conventions.

Entities are registered by name from the "entities" config key, the
--entity flag, or the command arguments.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ./wexapi.yaml or ~/.wexapi/wexapi.yaml)")
	pf.String("base-url", "", "API base URL (env WEXAPI_BASE_URL)")
	pf.String("api-key", "", "API key sent as a Bearer token (env WEXAPI_API_KEY)")
	pf.Duration("timeout", 0, "request timeout (default 10s)")
	pf.Bool("debug", false, "enable debug logging")
	pf.StringVar(&a.format, "format", "text", "output format: text, json or yaml")
	pf.StringSliceVar(&a.entities, "entity", nil, "additional entity names to register")

	root.AddCommand(a.listCmd(), a.showCmd(), a.entitiesCmd(), versionCmd())
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	switch a.format {
	case formatText, formatJSON, formatYAML:
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", a.format)
	}

	cfg, err := config.Load(a.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg

	if cfg.Debug {
		a.logger, err = zap.NewDevelopment()
	} else {
		a.logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if cfg.File != "" {
		a.logger.Debug("config loaded", zap.String("file", cfg.File))
	}
	return nil
}

// descriptors registers a Record type for every configured entity plus extra,
// once per canonical name.
func (a *app) descriptors(extra ...string) []repository.Descriptor {
	seen := make(map[string]bool)
	var out []repository.Descriptor
	for _, name := range append(append(append([]string{}, a.cfg.Entities...), a.entities...), extra...) {
		canonical := entity.CanonicalName(name)
		if canonical == "" || seen[canonical] {
			continue
		}
		seen[canonical] = true
		out = append(out, repository.Descriptor{Type: entity.RecordType(canonical)})
	}
	return out
}

// entitiesClient builds the API client, wiring the Redis cache when configured.
func (a *app) entitiesClient(ctx context.Context, extra ...string) (*client.EntitiesClient, error) {
	if a.cfg.BaseURL == "" {
		return nil, errors.New("base URL is required (set --base-url, WEXAPI_BASE_URL or base_url)")
	}

	opts := a.cfg.ClientOptions(a.logger)
	if a.cfg.RedisURL != "" && a.cfg.CacheTTL > 0 {
		cache, err := rediscache.Dial(ctx, a.cfg.RedisURL, a.cfg.CacheTTL, rediscache.WithLogger(a.logger))
		if err != nil {
			return nil, err
		}
		opts = append(opts, client.WithCache(cache))
	}

	return client.NewEntitiesClient(a.cfg.BaseURL, a.descriptors(extra...), opts...)
}
