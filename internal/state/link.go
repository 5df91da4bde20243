package state

import (
	stderrors "errors"
	"net"

	"github.com/vishvananda/netlink"
)

// Link is what the prober reports about a network interface.
type Link struct {
	Name      string   `json:"name"`
	Up        bool     `json:"up"`
	Addresses []string `json:"addresses"`
}

// LinkProber looks up network links. Probe returns found=false without an
// error when the link does not exist.
type LinkProber interface {
	Probe(name string) (link Link, found bool, err error)
}

// NetlinkProber implements LinkProber over rtnetlink.
type NetlinkProber struct{}

// Probe implements LinkProber.
func (NetlinkProber) Probe(name string) (Link, bool, error) {
	l, err := netlink.LinkByName(name)
	if err != nil {
		var notFound netlink.LinkNotFoundError
		if stderrors.As(err, &notFound) {
			return Link{}, false, nil
		}
		return Link{}, false, err
	}

	attrs := l.Attrs()
	link := Link{
		Name: attrs.Name,
		Up:   attrs.Flags&net.FlagUp != 0,
	}

	addrs, err := netlink.AddrList(l, netlink.FAMILY_ALL)
	if err != nil {
		return link, true, err
	}
	for _, a := range addrs {
		if a.IPNet != nil {
			link.Addresses = append(link.Addresses, a.IPNet.String())
		}
	}
	return link, true, nil
}
