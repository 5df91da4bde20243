// Package state reports the live WireGuard state of an interface and
// compares it against the canonical config.
//
// Runtime data always comes from `wg show`; link presence, the up flag
// and assigned addresses come from the kernel via netlink, since `wg show`
// does not print them.
package state

import (
	"context"
	stderrors "errors"
	"io/fs"

	"github.com/google/go-cmp/cmp"

	"github.com/wgfold/wgfold/internal/errors"
	"github.com/wgfold/wgfold/internal/log"
	"github.com/wgfold/wgfold/internal/wgconf"
	"github.com/wgfold/wgfold/internal/wgtool"
)

// Status is the coarse state of an interface.
type Status string

const (
	StatusNotFound Status = "not_found"
	StatusInactive Status = "inactive"
	StatusActive   Status = "active"
)

// QueryResult is the answer to Query.
type QueryResult struct {
	Interface string   `json:"interface"`
	Status    Status   `json:"status"`
	State     *Runtime `json:"state,omitempty"`
	Link      *Link    `json:"link,omitempty"`
}

// DiffResult compares the canonical config to the live interface. Config,
// State and Diff are only set for active interfaces.
type DiffResult struct {
	Interface string `json:"interface"`
	Status    Status `json:"status"`
	Config    *View  `json:"config,omitempty"`
	State     *View  `json:"state,omitempty"`
	Equal     bool   `json:"equal"`
	Diff      string `json:"diff,omitempty"`
}

// Query reports the live state of iface. A missing link, a link that is
// down, or wg reporting the device as missing are statuses, not errors;
// other failures are returned. prober may be nil, in which case only
// `wg show` is consulted.
func Query(ctx context.Context, tool wgtool.Tool, prober LinkProber, iface string) (*QueryResult, error) {
	res := &QueryResult{Interface: iface}

	if prober != nil {
		link, found, err := prober.Probe(iface)
		if err != nil {
			log.Warnf("[state] Failed to probe link %s: %v", iface, err)
		}
		if !found && err == nil {
			res.Status = StatusNotFound
			return res, nil
		}
		if found {
			res.Link = &link
			if !link.Up {
				res.Status = StatusInactive
				return res, nil
			}
		}
	}

	out, err := tool.Show(ctx, iface)
	if err != nil {
		if errors.CodeOf(err) == errors.ErrCodeNotFound {
			res.Status = StatusNotFound
			return res, nil
		}
		return nil, err
	}

	res.Status = StatusActive
	res.State = parseShow(out, now())
	if res.State.Interface == "" {
		res.State.Interface = iface
	}
	return res, nil
}

// Diff compares the canonical config at canonicalPath with the live state
// of iface. A missing canonical file compares as an empty config.
func Diff(ctx context.Context, tool wgtool.Tool, prober LinkProber, iface, canonicalPath string) (*DiffResult, error) {
	q, err := Query(ctx, tool, prober, iface)
	if err != nil {
		return nil, err
	}
	res := &DiffResult{Interface: iface, Status: q.Status}
	if q.Status != StatusActive {
		return res, nil
	}

	cfg, err := wgconf.Load(canonicalPath)
	if err != nil {
		if !stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewInternalError("failed to read "+canonicalPath, err)
		}
		cfg = &wgconf.Config{}
	}

	var publicKey string
	if pk := cfg.Interface.Get(wgconf.KeyPrivateKey); pk != "" {
		if publicKey, err = tool.PublicKey(ctx, pk); err != nil {
			return nil, err
		}
	}

	var addresses []string
	if q.Link != nil {
		addresses = q.Link.Addresses
	}

	configView := FromConfig(cfg, publicKey)
	stateView := FromRuntime(q.State, addresses)
	res.Config = &configView
	res.State = &stateView
	res.Diff = cmp.Diff(configView, stateView)
	res.Equal = res.Diff == ""
	return res, nil
}
