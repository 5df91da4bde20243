package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/wgfold/wgfold/internal/log"
)

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:      "[::]:5000",
			ReadTimeoutSec:  15,
			WriteTimeoutSec: 60,
		},
		CORS: CORSConfig{
			Enabled:      true,
			Origins:      []string{"*"},
			Methods:      []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders: []string{"Content-Type", "Authorization"},
			MaxAge:       3600,
		},
		WireGuard: WireGuardConfig{
			BaseDir:           "/etc/wireguard",
			ApplyFallback:     "systemd",
			ServiceUnit:       "wg-quick@{{interface}}",
			DefaultAddress:    "10.0.0.1/24",
			DefaultListenPort: 51820,
			ToolPaths:         []string{"/usr/bin", "/usr/sbin", "/bin", "/sbin"},
			CommandTimeoutSec: 30,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the configuration at path on top of the defaults. A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	configFile := filepath.Clean(path)
	if !filepath.IsAbs(configFile) {
		abs, err := filepath.Abs(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path: %v", err)
		}
		configFile = abs
	}

	cfg := Default()
	cfg.path = configFile

	content, err := os.ReadFile(configFile)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warnf("Configuration file %s not found, using defaults", configFile)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	dec := toml.NewDecoder(bytes.NewReader(content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var derr *toml.DecodeError
		if stderrors.As(err, &derr) {
			log.Errorf("%s", derr.String())
			row, col := derr.Position()
			return nil, fmt.Errorf("failed to parse config file at line %d, column %d: %v", row, col, derr)
		}
		var serr *toml.StrictMissingError
		if stderrors.As(err, &serr) {
			return nil, fmt.Errorf("unknown keys in config file:\n%s", serr.String())
		}
		return nil, fmt.Errorf("failed to parse config file: %v", err)
	}

	log.Debugf("Configuration file path: %s", configFile)
	return cfg, nil
}

// Path is the absolute path the configuration was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Serialize renders the configuration as TOML.
func (c *Config) Serialize() (*bytes.Buffer, error) {
	buf := bytes.Buffer{}
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	return &buf, nil
}

// CommandTimeout is WireGuard.CommandTimeoutSec as a duration.
func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.WireGuard.CommandTimeoutSec) * time.Second
}

// Validate checks every section and returns all problems as
// ValidationErrors.
func (c *Config) Validate() error {
	var errs ValidationErrors
	errs = append(errs, ValidateStruct(c.Server, "server")...)
	errs = append(errs, ValidateStruct(c.Access, "access")...)
	errs = append(errs, ValidateStruct(c.CORS, "cors")...)
	errs = append(errs, ValidateStruct(c.WireGuard, "wireguard")...)
	errs = append(errs, ValidateStruct(c.Logging, "logging")...)

	if c.Server.WriteTimeoutSec > 0 && c.WireGuard.CommandTimeoutSec >= c.Server.WriteTimeoutSec {
		errs = append(errs, ValidationError{
			FieldPath: "wireguard.command_timeout_sec",
			Message:   fmt.Sprintf("must be lower than server.write_timeout_sec (%d)", c.Server.WriteTimeoutSec),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
