package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/wgfold/wgfold/internal/config"
	"github.com/wgfold/wgfold/internal/lock"
	"github.com/wgfold/wgfold/internal/log"
	"github.com/wgfold/wgfold/internal/metrics"
	"github.com/wgfold/wgfold/internal/service"
	"github.com/wgfold/wgfold/internal/state"
	"github.com/wgfold/wgfold/internal/wgtool"
)

// AppContext carries global flags and the objects built from them.
type AppContext struct {
	ConfigPath string
	Verbose    bool
	JSON       bool
	Version    string

	Config  *config.Config
	Metrics *metrics.Metrics
	Manager *service.Manager
}

// loadAndValidateConfigOrFail loads configuration from file and validates it.
func loadAndValidateConfigOrFail(configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// load loads the config, applies logging settings and builds the manager.
func (c *AppContext) load() error {
	cfg, err := loadAndValidateConfigOrFail(c.ConfigPath)
	if err != nil {
		return err
	}
	c.Config = cfg

	if err := log.SetLevel(cfg.Logging.Level); err != nil {
		return err
	}
	if c.Verbose {
		log.SetVerbose(true)
	}

	c.Metrics = metrics.New()
	c.Manager = service.New(service.Options{
		WireGuard: cfg.WireGuard,
		Locks:     lock.NewManager(),
		Tool:      wgtool.NewExec(cfg.WireGuard.ToolPaths, cfg.CommandTimeout(), c.Metrics),
		Prober:    state.NetlinkProber{},
		Metrics:   c.Metrics,
	})
	return nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printWarnings(w io.Writer, warnings []string) {
	for _, line := range warnings {
		fmt.Fprintf(w, "warning: %s\n", line)
	}
}
