package reconcile

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/wgfold/wgfold/internal/errors"
	"github.com/wgfold/wgfold/internal/identity"
	"github.com/wgfold/wgfold/internal/lock"
	"github.com/wgfold/wgfold/internal/log"
	"github.com/wgfold/wgfold/internal/wgconf"
)

// SyncResult describes a written canonical file.
type SyncResult struct {
	Interface string `json:"interface"`
	Path      string `json:"path"`
	Peers     int    `json:"peers"`
}

// ResetPeer is one peer fragment written by Reset.
type ResetPeer struct {
	Name      string          `json:"name"`
	PublicKey string          `json:"public_key"`
	Source    identity.Source `json:"source"`
}

// ResetResult lists the fragments written by Reset in canonical order.
type ResetResult struct {
	Interface string      `json:"interface"`
	Peers     []ResetPeer `json:"peers"`
}

// Sync assembles the canonical file of iface from its folder.
func Sync(locks *lock.Manager, layout Layout, iface string) (*SyncResult, error) {
	var res *SyncResult
	err := locks.Exclusive(layout.Canonical(iface), func() error {
		var err error
		res, err = SyncLocked(layout, iface)
		return err
	})
	return res, err
}

// SyncLocked is Sync for callers already holding the interface lock.
func SyncLocked(layout Layout, iface string) (*SyncResult, error) {
	folder, err := ReadFolder(layout, iface)
	if err != nil {
		return nil, err
	}

	cfg := &wgconf.Config{Interface: folder.Interface}
	for _, p := range folder.Peers {
		p.Name = ""
		cfg.Peers = append(cfg.Peers, p)
	}

	path := layout.Canonical(iface)
	if err := wgconf.Write(path, cfg, ""); err != nil {
		return nil, errors.NewInternalError("failed to write canonical config", err)
	}
	log.Infof("[sync] Wrote %s with %d peer(s)", path, len(cfg.Peers))

	return &SyncResult{Interface: iface, Path: path, Peers: len(cfg.Peers)}, nil
}

// Reset rebuilds the folder of iface from its canonical file.
func Reset(locks *lock.Manager, layout Layout, iface string) (*ResetResult, error) {
	var res *ResetResult
	err := locks.Exclusive(layout.Canonical(iface), func() error {
		var err error
		res, err = ResetLocked(layout, iface)
		return err
	})
	return res, err
}

// ResetLocked is Reset for callers already holding the interface lock.
func ResetLocked(layout Layout, iface string) (*ResetResult, error) {
	canonical := layout.Canonical(iface)
	cfg, err := wgconf.Load(canonical)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NotFoundf("config file %s not found", canonical)
		}
		return nil, errors.NewInternalError("failed to read canonical config", err)
	}

	// The index must be built before the folder is removed.
	idx, err := indexFolder(layout, iface)
	if err != nil {
		return nil, err
	}

	folder := layout.Folder(iface)
	if err := os.RemoveAll(folder); err != nil {
		return nil, errors.NewInternalError("failed to remove "+folder, err)
	}
	if err := os.MkdirAll(folder, wgconf.DirMode); err != nil {
		return nil, errors.NewInternalError("failed to create "+folder, err)
	}

	if err := wgconf.Write(layout.Fragment(iface), &wgconf.Config{Interface: cfg.Interface}, ""); err != nil {
		return nil, errors.NewInternalError("failed to write interface fragment", err)
	}

	res := &ResetResult{Interface: iface, Peers: []ResetPeer{}}
	taken := map[string]bool{iface: true}

	for i, p := range cfg.Peers {
		position := i + 1
		name, source := idx.Resolve(p.Name, p.PublicKey(), p.AllowedIPs(), position)
		if !identity.ValidName(name) {
			log.Warnf("[reset] Peer name %q is not usable as a file name, using generated name", name)
			name, source = identity.GeneratedName(position), identity.SourceGenerated
		}
		name = uniqueName(name, taken)
		taken[name] = true

		fragment := &wgconf.Config{Peers: []wgconf.Peer{{Fields: p.Fields}}}
		if err := wgconf.Write(layout.PeerFile(iface, name), fragment, name); err != nil {
			return nil, errors.NewInternalError("failed to write peer fragment "+name, err)
		}
		res.Peers = append(res.Peers, ResetPeer{Name: name, PublicKey: p.PublicKey(), Source: source})
	}

	log.Infof("[reset] Rebuilt %s with %d peer(s)", folder, len(res.Peers))
	return res, nil
}

// uniqueName appends -2, -3, ... until name is not taken.
func uniqueName(name string, taken map[string]bool) string {
	if !taken[name] {
		return name
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", name, n)
		if !taken[candidate] {
			return candidate
		}
	}
}
