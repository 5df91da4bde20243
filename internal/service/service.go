package service

import (
	"context"
	"time"

	"github.com/wgfold/wgfold/internal/config"
	"github.com/wgfold/wgfold/internal/errors"
	"github.com/wgfold/wgfold/internal/lock"
	"github.com/wgfold/wgfold/internal/metrics"
	"github.com/wgfold/wgfold/internal/reconcile"
	"github.com/wgfold/wgfold/internal/state"
	"github.com/wgfold/wgfold/internal/wgtool"
)

// Options are the dependencies of a Manager.
type Options struct {
	WireGuard config.WireGuardConfig
	Locks     *lock.Manager
	Tool      wgtool.Tool
	// Prober may be nil; state queries then rely on wg show alone.
	Prober  state.LinkProber
	Metrics *metrics.Metrics
}

// Manager runs interface, peer and reconciliation operations.
type Manager struct {
	cfg     config.WireGuardConfig
	layout  reconcile.Layout
	locks   *lock.Manager
	tool    wgtool.Tool
	prober  state.LinkProber
	metrics *metrics.Metrics
}

// New creates a Manager. A nil lock manager gets a private one.
func New(opts Options) *Manager {
	locks := opts.Locks
	if locks == nil {
		locks = lock.NewManager()
	}
	return &Manager{
		cfg:     opts.WireGuard,
		layout:  reconcile.Layout{Base: opts.WireGuard.BaseDir},
		locks:   locks,
		tool:    opts.Tool,
		prober:  opts.Prober,
		metrics: opts.Metrics,
	}
}

// Layout exposes the on-disk layout.
func (m *Manager) Layout() reconcile.Layout {
	return m.layout
}

func checkInterfaceName(name string) error {
	if !config.ValidInterfaceName(name) {
		return errors.Validationf("invalid interface name %q", name)
	}
	return nil
}

func validateRequest(req interface{}) error {
	if verrs := config.ValidateStruct(req, ""); len(verrs) > 0 {
		return errors.New(errors.ErrCodeValidation, verrs.Summary())
	}
	return nil
}

func (m *Manager) applyOptions() reconcile.ApplyOptions {
	return reconcile.ApplyOptions{
		Fallback:    m.cfg.ApplyFallback,
		ServiceUnit: m.cfg.ServiceUnit,
	}
}

// Sync regenerates the canonical file of iface from its folder.
func (m *Manager) Sync(iface string) (*reconcile.SyncResult, error) {
	if err := checkInterfaceName(iface); err != nil {
		return nil, err
	}
	started := time.Now()
	res, err := reconcile.Sync(m.locks, m.layout, iface)
	m.metrics.ObserveOperation(iface, "sync", started, err)
	if err == nil {
		m.metrics.SetPeers(iface, res.Peers)
	}
	return res, err
}

// Reset rebuilds the folder of iface from its canonical file.
func (m *Manager) Reset(iface string) (*reconcile.ResetResult, error) {
	if err := checkInterfaceName(iface); err != nil {
		return nil, err
	}
	started := time.Now()
	res, err := reconcile.Reset(m.locks, m.layout, iface)
	m.metrics.ObserveOperation(iface, "reset", started, err)
	return res, err
}

// Diff compares the canonical file of iface with its folder.
func (m *Manager) Diff(iface string) (*reconcile.DiffResult, error) {
	if err := checkInterfaceName(iface); err != nil {
		return nil, err
	}
	started := time.Now()
	res, err := reconcile.Diff(m.locks, m.layout, iface)
	m.metrics.ObserveOperation(iface, "diff", started, err)
	return res, err
}

// Apply pushes the canonical file of iface to the running interface.
func (m *Manager) Apply(ctx context.Context, iface string) (*reconcile.ApplyResult, error) {
	if err := checkInterfaceName(iface); err != nil {
		return nil, err
	}
	started := time.Now()
	res, err := reconcile.Apply(ctx, m.locks, m.layout, m.tool, iface, m.applyOptions())
	m.metrics.ObserveOperation(iface, "apply", started, err)
	return res, err
}

// State reports the live state of iface.
func (m *Manager) State(ctx context.Context, iface string) (*state.QueryResult, error) {
	if err := checkInterfaceName(iface); err != nil {
		return nil, err
	}
	return state.Query(ctx, m.tool, m.prober, iface)
}

// StateDiff compares the canonical file of iface with its live state.
func (m *Manager) StateDiff(ctx context.Context, iface string) (*state.DiffResult, error) {
	if err := checkInterfaceName(iface); err != nil {
		return nil, err
	}
	started := time.Now()
	var res *state.DiffResult
	err := m.locks.Shared(m.layout.Canonical(iface), func() error {
		var err error
		res, err = state.Diff(ctx, m.tool, m.prober, iface, m.layout.Canonical(iface))
		return err
	})
	m.metrics.ObserveOperation(iface, "state_diff", started, err)
	return res, err
}

// resync regenerates the canonical file while the caller holds the
// interface lock and converts a failure into a sync_error message.
func (m *Manager) resync(iface string) string {
	started := time.Now()
	res, err := reconcile.SyncLocked(m.layout, iface)
	m.metrics.ObserveOperation(iface, "sync", started, err)
	if err != nil {
		return errors.Message(err)
	}
	m.metrics.SetPeers(iface, res.Peers)
	return ""
}
