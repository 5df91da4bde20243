package service

import (
	"context"
	"os"
	"strconv"

	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"

	"github.com/wgfold/wgfold/internal/alloc"
	"github.com/wgfold/wgfold/internal/config"
	"github.com/wgfold/wgfold/internal/errors"
	"github.com/wgfold/wgfold/internal/log"
	"github.com/wgfold/wgfold/internal/reconcile"
	"github.com/wgfold/wgfold/internal/wgconf"
)

func peerInfo(p wgconf.Peer) PeerInfo {
	return PeerInfo{
		Name:                p.Name,
		PublicKey:           p.PublicKey(),
		AllowedIPs:          p.AllowedIPs(),
		Endpoint:            p.Fields.Get(wgconf.KeyEndpoint),
		PersistentKeepalive: p.Fields.Get(wgconf.KeyPersistentKeepalive),
		HasPresharedKey:     p.Fields.Get(wgconf.KeyPresharedKey) != "",
	}
}

func findPeer(peers []wgconf.Peer, name string) (wgconf.Peer, bool) {
	for _, p := range peers {
		if p.Name == name {
			return p, true
		}
	}
	return wgconf.Peer{}, false
}

func checkPresharedKey(value string) error {
	if value == "" || value == PresharedKeyGenerate {
		return nil
	}
	if _, err := wgtypes.ParseKey(value); err != nil {
		return errors.NewValidationError("invalid preshared key", err)
	}
	return nil
}

func (m *Manager) requireInterface(iface string) error {
	if err := checkInterfaceName(iface); err != nil {
		return err
	}
	if _, err := os.Stat(m.layout.Fragment(iface)); err != nil {
		return errors.NotFoundf("interface %s not found", iface)
	}
	return nil
}

// ListPeers returns the peers of iface in fragment name order.
func (m *Manager) ListPeers(iface string) ([]PeerInfo, error) {
	if err := m.requireInterface(iface); err != nil {
		return nil, err
	}
	var out []PeerInfo
	err := m.locks.Shared(m.layout.Canonical(iface), func() error {
		folder, err := reconcile.ReadFolder(m.layout, iface)
		if err != nil {
			return err
		}
		out = make([]PeerInfo, 0, len(folder.Peers))
		for _, p := range folder.Peers {
			out = append(out, peerInfo(p))
		}
		return nil
	})
	return out, err
}

// GetPeer returns one peer of iface.
func (m *Manager) GetPeer(iface, name string) (*PeerInfo, error) {
	if err := m.requireInterface(iface); err != nil {
		return nil, err
	}
	var info *PeerInfo
	err := m.locks.Shared(m.layout.Canonical(iface), func() error {
		folder, err := reconcile.ReadFolder(m.layout, iface)
		if err != nil {
			return err
		}
		p, ok := findPeer(folder.Peers, name)
		if !ok {
			return errors.NotFoundf("peer %s not found on %s", name, iface)
		}
		pi := peerInfo(p)
		info = &pi
		return nil
	})
	return info, err
}

// AddPeer writes a new peer fragment and re-syncs. Keys are generated
// before the lock is taken; the address is allocated under it.
func (m *Manager) AddPeer(ctx context.Context, iface string, req CreatePeerRequest) (*PeerResult, error) {
	if err := m.requireInterface(iface); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := checkPresharedKey(req.PresharedKey); err != nil {
		return nil, err
	}

	res := &PeerResult{}
	publicKey := req.PublicKey
	if publicKey == "" {
		keys, err := m.tool.GenerateKeyPair(ctx)
		if err != nil {
			return nil, err
		}
		publicKey = keys.PublicKey
		res.PrivateKey = keys.PrivateKey
	}
	psk := req.PresharedKey
	if psk == PresharedKeyGenerate {
		var err error
		if psk, err = m.tool.GeneratePresharedKey(ctx); err != nil {
			return nil, err
		}
	}
	res.PresharedKey = psk

	err := m.locks.Exclusive(m.layout.Canonical(iface), func() error {
		folder, err := reconcile.ReadFolder(m.layout, iface)
		if err != nil {
			return err
		}
		if _, err := os.Stat(m.layout.PeerFile(iface, req.Name)); err == nil {
			return errors.Conflictf("peer %s already exists on %s", req.Name, iface)
		}

		existing := make([]string, 0, len(folder.Peers))
		for _, p := range folder.Peers {
			if p.PublicKey() == publicKey {
				return errors.Conflictf("public key already used by peer %s", p.Name)
			}
			existing = append(existing, p.AllowedIPs())
		}

		allocation, err := alloc.Resolve(folder.Interface.Get(wgconf.KeyAddress), req.AllowedIPs, existing)
		if err != nil {
			return err
		}
		if allocation.Auto() {
			res.Allocation = &allocation
		}

		peer := wgconf.Peer{Name: req.Name}
		peer.Fields.Set(wgconf.KeyPublicKey, publicKey)
		peer.Fields.Set(wgconf.KeyAllowedIPs, allocation.AllowedIPs)
		peer.Fields.Set(wgconf.KeyEndpoint, req.Endpoint)
		if req.PersistentKeepalive > 0 {
			peer.Fields.Set(wgconf.KeyPersistentKeepalive, strconv.Itoa(req.PersistentKeepalive))
		}
		peer.Fields.Set(wgconf.KeyPresharedKey, psk)

		if err := wgconf.Write(m.layout.PeerFile(iface, req.Name), &wgconf.Config{Peers: []wgconf.Peer{peer}}, req.Name); err != nil {
			return errors.NewInternalError("failed to write peer fragment", err)
		}
		log.Infof("Added peer %s to %s with %s", req.Name, iface, allocation.AllowedIPs)

		res.PeerInfo = peerInfo(peer)
		res.SyncError = m.resync(iface)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// UpdatePeer changes a peer fragment, renaming it if asked, and re-syncs.
func (m *Manager) UpdatePeer(ctx context.Context, iface, name string, req UpdatePeerRequest) (*PeerResult, error) {
	if err := m.requireInterface(iface); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.PresharedKey != nil {
		if err := checkPresharedKey(*req.PresharedKey); err != nil {
			return nil, err
		}
	}
	if req.Endpoint != nil && *req.Endpoint != "" && !config.ValidEndpoint(*req.Endpoint) {
		return nil, errors.Validationf("invalid endpoint %q", *req.Endpoint)
	}

	res := &PeerResult{}
	var psk string
	if req.PresharedKey != nil {
		psk = *req.PresharedKey
		if psk == PresharedKeyGenerate {
			var err error
			if psk, err = m.tool.GeneratePresharedKey(ctx); err != nil {
				return nil, err
			}
		}
		res.PresharedKey = psk
	}

	err := m.locks.Exclusive(m.layout.Canonical(iface), func() error {
		folder, err := reconcile.ReadFolder(m.layout, iface)
		if err != nil {
			return err
		}
		peer, ok := findPeer(folder.Files(), name)
		if !ok {
			return errors.NotFoundf("peer %s not found on %s", name, iface)
		}

		newName := name
		if req.Name != nil && *req.Name != name {
			newName = *req.Name
			if _, err := os.Stat(m.layout.PeerFile(iface, newName)); err == nil {
				return errors.Conflictf("peer %s already exists on %s", newName, iface)
			}
		}

		var others []string
		for _, p := range folder.Peers {
			if p.Name == name {
				continue
			}
			if req.PublicKey != nil && p.PublicKey() == *req.PublicKey {
				return errors.Conflictf("public key already used by peer %s", p.Name)
			}
			others = append(others, p.AllowedIPs())
		}

		if req.PublicKey != nil {
			peer.Fields.Set(wgconf.KeyPublicKey, *req.PublicKey)
		}
		if req.AllowedIPs != nil {
			allocation, err := alloc.Resolve(folder.Interface.Get(wgconf.KeyAddress), *req.AllowedIPs, others)
			if err != nil {
				return err
			}
			if allocation.Auto() {
				res.Allocation = &allocation
			}
			peer.Fields.Set(wgconf.KeyAllowedIPs, allocation.AllowedIPs)
		}
		if req.Endpoint != nil {
			peer.Fields.Set(wgconf.KeyEndpoint, *req.Endpoint)
		}
		if req.PersistentKeepalive != nil {
			if *req.PersistentKeepalive == 0 {
				peer.Fields.Delete(wgconf.KeyPersistentKeepalive)
			} else {
				peer.Fields.Set(wgconf.KeyPersistentKeepalive, strconv.Itoa(*req.PersistentKeepalive))
			}
		}
		if req.PresharedKey != nil {
			peer.Fields.Set(wgconf.KeyPresharedKey, psk)
		}
		peer.Name = newName

		if err := wgconf.Write(m.layout.PeerFile(iface, newName), &wgconf.Config{Peers: []wgconf.Peer{peer}}, newName); err != nil {
			return errors.NewInternalError("failed to write peer fragment", err)
		}
		if newName != name {
			if err := os.Remove(m.layout.PeerFile(iface, name)); err != nil {
				return errors.NewInternalError("failed to remove old peer fragment", err)
			}
			log.Infof("Renamed peer %s to %s on %s", name, newName, iface)
		} else {
			log.Infof("Updated peer %s on %s", name, iface)
		}

		res.PeerInfo = peerInfo(peer)
		res.SyncError = m.resync(iface)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// DeletePeer removes a peer fragment and re-syncs. The returned string is
// the sync error, if any.
func (m *Manager) DeletePeer(iface, name string) (string, error) {
	if err := m.requireInterface(iface); err != nil {
		return "", err
	}

	var syncErr string
	err := m.locks.Exclusive(m.layout.Canonical(iface), func() error {
		folder, err := reconcile.ReadFolder(m.layout, iface)
		if err != nil {
			return err
		}
		if _, ok := findPeer(folder.Files(), name); !ok {
			return errors.NotFoundf("peer %s not found on %s", name, iface)
		}
		if err := os.Remove(m.layout.PeerFile(iface, name)); err != nil {
			return errors.NewInternalError("failed to remove peer fragment", err)
		}
		log.Infof("Deleted peer %s from %s", name, iface)
		syncErr = m.resync(iface)
		return nil
	})
	return syncErr, err
}
