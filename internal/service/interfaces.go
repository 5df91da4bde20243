package service

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/wgfold/wgfold/internal/errors"
	"github.com/wgfold/wgfold/internal/log"
	"github.com/wgfold/wgfold/internal/reconcile"
	"github.com/wgfold/wgfold/internal/wgconf"
)

// ListInterfaces returns every interface folder below the base directory.
// Folders without a readable interface fragment are skipped.
func (m *Manager) ListInterfaces() ([]InterfaceInfo, error) {
	names, err := m.layout.Interfaces()
	if err != nil {
		return nil, errors.NewInternalError("failed to list interfaces", err)
	}

	out := make([]InterfaceInfo, 0, len(names))
	for _, name := range names {
		if checkInterfaceName(name) != nil {
			continue
		}
		var info *InterfaceInfo
		err := m.locks.Shared(m.layout.Canonical(name), func() error {
			var err error
			info, err = m.describe(name)
			return err
		})
		if err != nil {
			log.Debugf("Skipping %s: %v", name, err)
			continue
		}
		out = append(out, *info)
	}
	return out, nil
}

// GetInterface describes iface including its public key.
func (m *Manager) GetInterface(ctx context.Context, iface string) (*InterfaceInfo, error) {
	if err := checkInterfaceName(iface); err != nil {
		return nil, err
	}

	var info *InterfaceInfo
	err := m.locks.Shared(m.layout.Canonical(iface), func() error {
		var err error
		info, err = m.describe(iface)
		return err
	})
	if err != nil {
		return nil, err
	}

	if info.PublicKey, err = m.publicKeyOf(ctx, iface); err != nil {
		return nil, err
	}
	return info, nil
}

// describe reads the folder of iface; callers hold the interface lock.
func (m *Manager) describe(iface string) (*InterfaceInfo, error) {
	folder, err := reconcile.ReadFolder(m.layout, iface)
	if err != nil {
		return nil, err
	}
	_, statErr := os.Stat(m.layout.Canonical(iface))

	return &InterfaceInfo{
		Name:       iface,
		Address:    folder.Interface.Get(wgconf.KeyAddress),
		ListenPort: folder.Interface.Get(wgconf.KeyListenPort),
		DNS:        folder.Interface.Get(wgconf.KeyDNS),
		PostUp:     folder.Interface.Get(wgconf.KeyPostUp),
		PostDown:   folder.Interface.Get(wgconf.KeyPostDown),
		Peers:      len(folder.Peers),
		Synced:     statErr == nil,
	}, nil
}

func (m *Manager) publicKeyOf(ctx context.Context, iface string) (string, error) {
	frag, err := wgconf.Load(m.layout.Fragment(iface))
	if err != nil {
		return "", errors.NewInternalError("failed to read interface fragment", err)
	}
	private := frag.Interface.Get(wgconf.KeyPrivateKey)
	if private == "" {
		return "", nil
	}
	return m.tool.PublicKey(ctx, private)
}

// CreateInterface generates a key pair, writes the interface fragment and
// performs the initial sync.
func (m *Manager) CreateInterface(ctx context.Context, req CreateInterfaceRequest) (*InterfaceResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	address := req.Address
	if address == "" {
		address = m.cfg.DefaultAddress
	}
	port := req.ListenPort
	if port == 0 {
		port = m.cfg.DefaultListenPort
	}
	postUp, postDown := m.cfg.PostUp, m.cfg.PostDown
	if req.PostUp != nil {
		postUp = *req.PostUp
	}
	if req.PostDown != nil {
		postDown = *req.PostDown
	}

	var res *InterfaceResult
	err := m.locks.Exclusive(m.layout.ManagerKey(), func() error {
		if _, err := os.Stat(m.layout.Folder(req.Name)); err == nil {
			return errors.Conflictf("interface %s already exists", req.Name)
		}
		if _, err := os.Stat(m.layout.Canonical(req.Name)); err == nil {
			return errors.Conflictf("config file %s already exists, use reset to import it", m.layout.Canonical(req.Name))
		}

		keys, err := m.tool.GenerateKeyPair(ctx)
		if err != nil {
			return err
		}

		cfg := &wgconf.Config{}
		cfg.Interface.Set(wgconf.KeyPrivateKey, keys.PrivateKey)
		cfg.Interface.Set(wgconf.KeyAddress, address)
		cfg.Interface.Set(wgconf.KeyListenPort, strconv.Itoa(port))
		cfg.Interface.Set(wgconf.KeyDNS, req.DNS)
		cfg.Interface.Set(wgconf.KeyPostUp, renderHook(postUp, req.Name, address, port))
		cfg.Interface.Set(wgconf.KeyPostDown, renderHook(postDown, req.Name, address, port))

		return m.locks.Exclusive(m.layout.Canonical(req.Name), func() error {
			if err := wgconf.Write(m.layout.Fragment(req.Name), cfg, ""); err != nil {
				return errors.NewInternalError("failed to write interface fragment", err)
			}
			log.Infof("Created interface %s (%s, port %d)", req.Name, address, port)

			syncErr := m.resync(req.Name)
			info, err := m.describe(req.Name)
			if err != nil {
				return err
			}
			info.PublicKey = keys.PublicKey
			res = &InterfaceResult{InterfaceInfo: *info, SyncError: syncErr}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// UpdateInterface changes interface settings and re-syncs.
func (m *Manager) UpdateInterface(ctx context.Context, iface string, req UpdateInterfaceRequest) (*InterfaceResult, error) {
	if err := checkInterfaceName(iface); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if _, err := os.Stat(m.layout.Fragment(iface)); err != nil {
		return nil, errors.NotFoundf("interface %s not found", iface)
	}

	var res *InterfaceResult
	err := m.locks.Exclusive(m.layout.Canonical(iface), func() error {
		frag, err := wgconf.Load(m.layout.Fragment(iface))
		if err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				return errors.NotFoundf("interface %s not found", iface)
			}
			return errors.NewInternalError("failed to read interface fragment", err)
		}

		if req.Address != nil {
			frag.Interface.Set(wgconf.KeyAddress, *req.Address)
		}
		if req.ListenPort != nil {
			frag.Interface.Set(wgconf.KeyListenPort, strconv.Itoa(*req.ListenPort))
		}
		if req.DNS != nil {
			frag.Interface.Set(wgconf.KeyDNS, *req.DNS)
		}
		port, _ := strconv.Atoi(frag.Interface.Get(wgconf.KeyListenPort))
		address := frag.Interface.Get(wgconf.KeyAddress)
		if req.PostUp != nil {
			frag.Interface.Set(wgconf.KeyPostUp, renderHook(*req.PostUp, iface, address, port))
		}
		if req.PostDown != nil {
			frag.Interface.Set(wgconf.KeyPostDown, renderHook(*req.PostDown, iface, address, port))
		}

		name := ""
		if len(frag.Peers) == 1 {
			name = frag.Peers[0].Name
		}
		if err := wgconf.Write(m.layout.Fragment(iface), frag, name); err != nil {
			return errors.NewInternalError("failed to write interface fragment", err)
		}
		log.Infof("Updated interface %s", iface)

		syncErr := m.resync(iface)
		info, err := m.describe(iface)
		if err != nil {
			return err
		}
		res = &InterfaceResult{InterfaceInfo: *info, SyncError: syncErr}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// DeleteInterface removes the folder of iface. With purge the canonical
// file is removed too; otherwise it stays so the running interface keeps
// its config and a later reset can restore the folder.
func (m *Manager) DeleteInterface(iface string, purge bool) (*DeleteResult, error) {
	if err := checkInterfaceName(iface); err != nil {
		return nil, err
	}
	if _, err := os.Stat(m.layout.Folder(iface)); err != nil {
		return nil, errors.NotFoundf("interface %s not found", iface)
	}

	err := m.locks.Exclusive(m.layout.ManagerKey(), func() error {
		return m.locks.Exclusive(m.layout.Canonical(iface), func() error {
			if _, err := os.Stat(m.layout.Folder(iface)); err != nil {
				return errors.NotFoundf("interface %s not found", iface)
			}
			if err := os.RemoveAll(m.layout.Folder(iface)); err != nil {
				return errors.NewInternalError("failed to remove interface folder", err)
			}
			if purge {
				if err := os.Remove(m.layout.Canonical(iface)); err != nil && !os.IsNotExist(err) {
					return errors.NewInternalError("failed to remove canonical config", err)
				}
			}
			log.Infof("Deleted interface %s (purge=%v)", iface, purge)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &DeleteResult{Name: iface, Purged: purge}, nil
}
