package state

import (
	"sort"
	"strings"

	"github.com/wgfold/wgfold/internal/identity"
	"github.com/wgfold/wgfold/internal/wgconf"
)

// View is the projection of a config or a live interface onto the fields
// both sides can express, so they can be compared directly.
type View struct {
	Interface ViewInterface `json:"interface"`
	Peers     []ViewPeer    `json:"peers"`
}

// ViewInterface holds the comparable interface fields.
type ViewInterface struct {
	Address    string `json:"address"`
	ListenPort string `json:"listen_port"`
	PublicKey  string `json:"public_key"`
}

// ViewPeer holds the comparable peer fields.
type ViewPeer struct {
	PublicKey           string `json:"public_key"`
	AllowedIPs          string `json:"allowed_ips"`
	Endpoint            string `json:"endpoint"`
	PersistentKeepalive string `json:"persistent_keepalive"`
}

// FromConfig projects a canonical config. publicKey is the interface public
// key derived from its PrivateKey by the caller.
func FromConfig(cfg *wgconf.Config, publicKey string) View {
	v := View{
		Interface: ViewInterface{
			Address:    identity.NormalizeAllowedIPs(cfg.Interface.Get(wgconf.KeyAddress)),
			ListenPort: cfg.Interface.Get(wgconf.KeyListenPort),
			PublicKey:  publicKey,
		},
		Peers: make([]ViewPeer, 0, len(cfg.Peers)),
	}
	for _, p := range cfg.Peers {
		v.Peers = append(v.Peers, ViewPeer{
			PublicKey:           p.PublicKey(),
			AllowedIPs:          identity.NormalizeAllowedIPs(p.AllowedIPs()),
			Endpoint:            p.Fields.Get(wgconf.KeyEndpoint),
			PersistentKeepalive: keepalive(p.Fields.Get(wgconf.KeyPersistentKeepalive)),
		})
	}
	sortPeers(v.Peers)
	return v
}

// FromRuntime projects parsed `wg show` output. addresses are the prefixes
// assigned to the link.
func FromRuntime(rt *Runtime, addresses []string) View {
	v := View{
		Interface: ViewInterface{
			Address:    identity.NormalizeAllowedIPs(strings.Join(addresses, ",")),
			ListenPort: rt.ListenPort,
			PublicKey:  rt.PublicKey,
		},
		Peers: make([]ViewPeer, 0, len(rt.Peers)),
	}
	for _, p := range rt.Peers {
		v.Peers = append(v.Peers, ViewPeer{
			PublicKey:           p.PublicKey,
			AllowedIPs:          identity.NormalizeAllowedIPs(p.AllowedIPs),
			Endpoint:            p.Endpoint,
			PersistentKeepalive: keepalive(p.PersistentKeepalive),
		})
	}
	sortPeers(v.Peers)
	return v
}

func keepalive(v string) string {
	v = strings.TrimSpace(v)
	if v == "0" || v == "off" {
		return ""
	}
	return v
}

func sortPeers(peers []ViewPeer) {
	sort.SliceStable(peers, func(i, j int) bool {
		return peers[i].PublicKey < peers[j].PublicKey
	})
}
