package reconcile

import (
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"sort"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/wgfold/wgfold/internal/errors"
	"github.com/wgfold/wgfold/internal/identity"
	"github.com/wgfold/wgfold/internal/lock"
	"github.com/wgfold/wgfold/internal/wgconf"
)

// PeerView is the comparable projection of a peer. It never carries key
// material other than the public key.
type PeerView struct {
	Name                string `json:"name"`
	PublicKey           string `json:"public_key"`
	AllowedIPs          string `json:"allowed_ips"`
	Endpoint            string `json:"endpoint"`
	PersistentKeepalive string `json:"persistent_keepalive"`
}

// PeerList wraps the peers of one side of a diff.
type PeerList struct {
	Peers []PeerView `json:"peers"`
}

// DiffResult compares the canonical file (current) with the folder.
type DiffResult struct {
	Interface     string   `json:"interface"`
	CurrentConfig PeerList `json:"current_config"`
	FolderConfig  PeerList `json:"folder_config"`
	// InSync is true when both sides hold the same peers, ignoring order
	// and names.
	InSync bool `json:"in_sync"`
	// Diff is a unified diff of both sides rendered as JSON, for display.
	Diff string `json:"diff"`
}

// Diff compares the canonical file of iface with its folder. It never
// writes.
func Diff(locks *lock.Manager, layout Layout, iface string) (*DiffResult, error) {
	var res *DiffResult
	err := locks.Shared(layout.Canonical(iface), func() error {
		var err error
		res, err = diffLocked(layout, iface)
		return err
	})
	return res, err
}

func diffLocked(layout Layout, iface string) (*DiffResult, error) {
	folder, err := ReadFolder(layout, iface)
	if err != nil {
		return nil, err
	}

	current, err := wgconf.Load(layout.Canonical(iface))
	if err != nil {
		if !stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewInternalError("failed to read canonical config", err)
		}
		current = &wgconf.Config{}
	}

	res := &DiffResult{
		Interface:     iface,
		FolderConfig:  PeerList{Peers: make([]PeerView, 0, len(folder.Peers))},
		CurrentConfig: PeerList{Peers: make([]PeerView, 0, len(current.Peers))},
	}
	for _, p := range folder.Peers {
		res.FolderConfig.Peers = append(res.FolderConfig.Peers, viewOf(p.Name, p))
	}
	for i, p := range current.Peers {
		res.CurrentConfig.Peers = append(res.CurrentConfig.Peers, viewOf(borrowName(folder.Peers, p, i+1), p))
	}

	res.InSync = samePeers(res.CurrentConfig.Peers, res.FolderConfig.Peers)
	res.Diff, err = renderDiff(res.CurrentConfig, res.FolderConfig)
	if err != nil {
		return nil, errors.NewInternalError("failed to render diff", err)
	}
	return res, nil
}

func viewOf(name string, p wgconf.Peer) PeerView {
	return PeerView{
		Name:                name,
		PublicKey:           p.PublicKey(),
		AllowedIPs:          p.AllowedIPs(),
		Endpoint:            p.Fields.Get(wgconf.KeyEndpoint),
		PersistentKeepalive: p.Fields.Get(wgconf.KeyPersistentKeepalive),
	}
}

// borrowName names a canonical peer after its folder counterpart: by its
// own annotation, then PublicKey, then the generated name for its
// position, then normalized AllowedIPs.
func borrowName(folder []wgconf.Peer, p wgconf.Peer, position int) string {
	if p.Name != "" {
		return p.Name
	}
	if key := p.PublicKey(); key != "" {
		for _, f := range folder {
			if f.PublicKey() == key {
				return f.Name
			}
		}
	}
	generated := identity.GeneratedName(position)
	for _, f := range folder {
		if f.Name == generated {
			return f.Name
		}
	}
	if ips := identity.NormalizeAllowedIPs(p.AllowedIPs()); ips != "" {
		for _, f := range folder {
			if identity.NormalizeAllowedIPs(f.AllowedIPs()) == ips {
				return f.Name
			}
		}
	}
	return generated
}

func samePeers(a, b []PeerView) bool {
	if len(a) != len(b) {
		return false
	}
	key := func(v PeerView) string {
		return v.PublicKey + "\x00" + identity.NormalizeAllowedIPs(v.AllowedIPs) + "\x00" + v.Endpoint + "\x00" + v.PersistentKeepalive
	}
	ka := make([]string, len(a))
	kb := make([]string, len(b))
	for i := range a {
		ka[i] = key(a[i])
		kb[i] = key(b[i])
	}
	sort.Strings(ka)
	sort.Strings(kb)
	for i := range ka {
		if ka[i] != kb[i] {
			return false
		}
	}
	return true
}

func renderDiff(current, folder PeerList) (string, error) {
	a, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return "", err
	}
	b, err := json.MarshalIndent(folder, "", "  ")
	if err != nil {
		return "", err
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a) + "\n"),
		B:        difflib.SplitLines(string(b) + "\n"),
		FromFile: "current.conf",
		ToFile:   "folder",
		Context:  3,
	})
}
