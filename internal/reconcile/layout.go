package reconcile

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const confExt = ".conf"

// Layout maps interface and peer names to paths below Base.
type Layout struct {
	Base string
}

// Canonical is the flat file consumed by wg and wg-quick.
func (l Layout) Canonical(iface string) string {
	return filepath.Join(l.Base, iface+confExt)
}

// Folder is the directory holding the fragments of iface.
func (l Layout) Folder(iface string) string {
	return filepath.Join(l.Base, iface)
}

// Fragment is the interface fragment inside the folder.
func (l Layout) Fragment(iface string) string {
	return filepath.Join(l.Folder(iface), iface+confExt)
}

// PeerFile is the fragment of one peer.
func (l Layout) PeerFile(iface, peer string) string {
	return filepath.Join(l.Folder(iface), peer+confExt)
}

// ManagerKey is the lock key serializing interface creation and deletion.
func (l Layout) ManagerKey() string {
	return filepath.Join(l.Base, ".interfaces")
}

// Interfaces lists the interface folders below Base, sorted. Dot-entries
// and plain files are skipped. A missing Base yields an empty list.
func (l Layout) Interfaces() ([]string, error) {
	entries, err := os.ReadDir(l.Base)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	names := []string{}
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// peerFiles lists the peer fragments of iface sorted by file name. The
// interface fragment, dot-files (temp files) and non-.conf files are
// skipped.
func (l Layout) peerFiles(iface string) ([]string, error) {
	entries, err := os.ReadDir(l.Folder(iface))
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, confExt) || name == iface+confExt {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)
	return files, nil
}
