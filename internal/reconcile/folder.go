package reconcile

import (
	stderrors "errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/wgfold/wgfold/internal/errors"
	"github.com/wgfold/wgfold/internal/identity"
	"github.com/wgfold/wgfold/internal/wgconf"
)

// Folder is the folder form of one interface as read from disk.
type Folder struct {
	Interface wgconf.Section
	// Peers starts with the peers written inside the interface fragment
	// itself (Name is their comment annotation, possibly empty), followed
	// by the peer fragments in file name order (Name is the file stem).
	Peers []wgconf.Peer
	// Embedded is the number of leading Peers taken from the interface
	// fragment. They have no file of their own.
	Embedded int
}

// Files returns the peers backed by their own fragment file.
func (f *Folder) Files() []wgconf.Peer {
	return f.Peers[f.Embedded:]
}

// ReadFolder loads the interface fragment and every peer fragment of
// iface. It fails with NotFound when the interface fragment is missing.
func ReadFolder(layout Layout, iface string) (*Folder, error) {
	base, err := wgconf.Load(layout.Fragment(iface))
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NotFoundf("interface %s not found", iface)
		}
		return nil, errors.NewInternalError("failed to read interface fragment", err)
	}

	peers, err := readPeers(layout, iface)
	if err != nil {
		return nil, err
	}
	folder := &Folder{Interface: base.Interface, Embedded: len(base.Peers)}
	folder.Peers = append(folder.Peers, base.Peers...)
	folder.Peers = append(folder.Peers, peers...)
	return folder, nil
}

func readPeers(layout Layout, iface string) ([]wgconf.Peer, error) {
	files, err := layout.peerFiles(iface)
	if err != nil {
		return nil, errors.NewInternalError("failed to list "+layout.Folder(iface), err)
	}

	var peers []wgconf.Peer
	for _, file := range files {
		cfg, err := wgconf.Load(filepath.Join(layout.Folder(iface), file))
		if err != nil {
			return nil, errors.NewInternalError("failed to read peer fragment "+file, err)
		}
		stem := strings.TrimSuffix(file, confExt)
		for _, p := range cfg.Peers {
			p.Name = stem
			peers = append(peers, p)
		}
	}
	return peers, nil
}

// indexFolder builds the correlation index from the current peer
// fragments of iface and the annotated peers inside its interface
// fragment. A missing folder yields an empty index.
func indexFolder(layout Layout, iface string) (*identity.Index, error) {
	idx := identity.NewIndex()
	peers, err := readPeers(layout, iface)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return idx, nil
		}
		return nil, err
	}
	for _, p := range peers {
		idx.Add(p.Name, p.PublicKey(), p.AllowedIPs())
	}

	base, err := wgconf.Load(layout.Fragment(iface))
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return idx, nil
		}
		return nil, errors.NewInternalError("failed to read interface fragment", err)
	}
	for _, p := range base.Peers {
		if p.Name != "" {
			idx.Add(p.Name, p.PublicKey(), p.AllowedIPs())
		}
	}
	return idx, nil
}
