package reconcile

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"

	"github.com/valyala/fasttemplate"

	"github.com/wgfold/wgfold/internal/errors"
	"github.com/wgfold/wgfold/internal/lock"
	"github.com/wgfold/wgfold/internal/log"
	"github.com/wgfold/wgfold/internal/wgconf"
	"github.com/wgfold/wgfold/internal/wgtool"
)

// Apply methods and fallbacks.
const (
	MethodSyncConf = "syncconf"
	MethodSystemd  = "systemd"
	MethodWgQuick  = "wg-quick"
)

// DefaultServiceUnit is the systemd unit template used by the systemd
// fallback.
const DefaultServiceUnit = "wg-quick@{{interface}}"

// liveKeys are the [Interface] keys wg syncconf accepts. Address, DNS and
// the hooks are wg-quick extensions it rejects.
var liveKeys = []string{wgconf.KeyPrivateKey, wgconf.KeyListenPort, wgconf.KeyFwMark}

// ApplyOptions configures how a missing interface is brought up.
type ApplyOptions struct {
	// Fallback is MethodSystemd or MethodWgQuick. Empty means MethodSystemd.
	Fallback string
	// ServiceUnit is a template with an {{interface}} placeholder.
	ServiceUnit string
	// TempDir holds the stripped config while wg reads it. Empty means
	// os.TempDir().
	TempDir string
}

// ApplyResult reports how the config reached the running interface.
type ApplyResult struct {
	Interface string   `json:"interface"`
	Method    string   `json:"method"`
	Warnings  []string `json:"warnings,omitempty"`
}

// Apply pushes the canonical config of iface to the running interface
// with wg syncconf. When the interface does not exist it is brought up
// through the configured fallback instead.
func Apply(ctx context.Context, locks *lock.Manager, layout Layout, tool wgtool.Tool, iface string, opts ApplyOptions) (*ApplyResult, error) {
	var res *ApplyResult
	err := locks.Shared(layout.Canonical(iface), func() error {
		var err error
		res, err = applyLocked(ctx, layout, tool, iface, opts)
		return err
	})
	return res, err
}

func applyLocked(ctx context.Context, layout Layout, tool wgtool.Tool, iface string, opts ApplyOptions) (*ApplyResult, error) {
	canonical := layout.Canonical(iface)
	cfg, err := wgconf.Load(canonical)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NotFoundf("config file %s not found, run sync first", canonical)
		}
		return nil, errors.NewInternalError("failed to read canonical config", err)
	}

	tmp, err := os.CreateTemp(opts.TempDir, "wgfold-"+iface+"-*.conf")
	if err != nil {
		return nil, errors.NewInternalError("failed to create temp config", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(wgconf.SecretMode); err != nil {
		tmp.Close()
		return nil, errors.NewInternalError("failed to restrict temp config", err)
	}
	if _, err := tmp.Write(wgconf.Marshal(liveConfig(cfg), "")); err != nil {
		tmp.Close()
		return nil, errors.NewInternalError("failed to write temp config", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, errors.NewInternalError("failed to write temp config", err)
	}

	warnings, err := tool.SyncConf(ctx, iface, tmpName)
	if err == nil {
		log.Infof("[apply] Applied %s with wg syncconf", iface)
		return &ApplyResult{Interface: iface, Method: MethodSyncConf, Warnings: warnings}, nil
	}
	if errors.CodeOf(err) != errors.ErrCodeNotFound {
		return nil, err
	}

	log.Infof("[apply] Interface %s is not running, bringing it up via %s", iface, fallbackOf(opts))
	switch fallbackOf(opts) {
	case MethodWgQuick:
		warnings, err = tool.QuickUp(ctx, canonical)
		if err != nil {
			return nil, err
		}
		return &ApplyResult{Interface: iface, Method: MethodWgQuick, Warnings: warnings}, nil
	default:
		warnings, err = tool.RestartService(ctx, ServiceUnit(opts.ServiceUnit, iface))
		if err != nil {
			return nil, err
		}
		return &ApplyResult{Interface: iface, Method: MethodSystemd, Warnings: warnings}, nil
	}
}

func fallbackOf(opts ApplyOptions) string {
	if opts.Fallback == MethodWgQuick {
		return MethodWgQuick
	}
	return MethodSystemd
}

// ServiceUnit renders the systemd unit name of iface from tmpl.
func ServiceUnit(tmpl, iface string) string {
	if tmpl == "" {
		tmpl = DefaultServiceUnit
	}
	return fasttemplate.ExecuteString(tmpl, "{{", "}}", map[string]interface{}{
		"interface": iface,
	})
}

// liveConfig keeps the interface keys wg syncconf understands and every
// peer with its non-empty fields.
func liveConfig(cfg *wgconf.Config) *wgconf.Config {
	out := &wgconf.Config{}
	for _, key := range liveKeys {
		if v := cfg.Interface.Get(key); v != "" {
			out.Interface.Set(key, v)
		}
	}
	for _, p := range cfg.Peers {
		var fields wgconf.Section
		for _, f := range p.Fields {
			if f.Value != "" {
				fields = append(fields, f)
			}
		}
		out.Peers = append(out.Peers, wgconf.Peer{Fields: fields})
	}
	return out
}
