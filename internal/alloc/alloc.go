// Package alloc picks AllowedIPs for new peers.
//
// A request either names a subnet to allocate from (nothing, a partial
// dotted form such as "10.50.10", a "x.y.z.0" form, or a CIDR inside the
// interface network) or gives a literal AllowedIPs value that is only
// validated.
package alloc

import (
	"net/netip"
	"regexp"
	"strings"

	"github.com/wgfold/wgfold/internal/errors"
)

var (
	partialOctets = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){0,2}$`)
	zeroHostOctet = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.0$`)
)

// Result describes how AllowedIPs were chosen.
type Result struct {
	AllowedIPs string `json:"allowed_ips"`
	// Subnet is the subnet an address was allocated from; empty for literals.
	Subnet string `json:"subnet,omitempty"`
}

// Auto reports whether the value was allocated rather than taken literally.
func (r Result) Auto() bool {
	return r.Subnet != ""
}

// Resolve computes the AllowedIPs for a new peer on an interface whose
// Address is interfaceAddress. existing holds the AllowedIPs values of the
// peers already configured.
func Resolve(interfaceAddress, expression string, existing []string) (Result, error) {
	iface, err := netip.ParsePrefix(strings.TrimSpace(interfaceAddress))
	if err != nil {
		return Result{}, errors.NewValidationError("invalid interface address "+interfaceAddress, err)
	}
	network := iface.Masked()

	target, auto, err := targetSubnet(network, strings.TrimSpace(expression))
	if err != nil {
		return Result{}, err
	}
	if !auto {
		value, err := literal(network, expression)
		if err != nil {
			return Result{}, err
		}
		return Result{AllowedIPs: value}, nil
	}

	if !contains(network, target) {
		return Result{}, errors.Validationf("subnet %s is not within interface network %s", target, network)
	}

	used := usedAddresses(iface.Addr(), existing)
	addr, ok := firstFree(target, used)
	if !ok {
		return Result{}, errors.Validationf("no available IPs in subnet %s", target)
	}
	return Result{
		AllowedIPs: netip.PrefixFrom(addr, addr.BitLen()).String(),
		Subnet:     target.String(),
	}, nil
}

// targetSubnet decides whether expression asks for allocation and, if so,
// from which subnet.
func targetSubnet(network netip.Prefix, expression string) (netip.Prefix, bool, error) {
	if expression == "" {
		return network, true, nil
	}

	if partialOctets.MatchString(expression) {
		octets := strings.Split(expression, ".")
		bits := 8 * len(octets)
		for len(octets) < 4 {
			octets = append(octets, "0")
		}
		p, err := parseSubnet(strings.Join(octets, "."), bits)
		if err != nil {
			return netip.Prefix{}, false, errors.NewValidationError("invalid subnet expression "+expression, err)
		}
		return p, true, nil
	}

	if zeroHostOctet.MatchString(expression) {
		p, err := parseSubnet(expression, 24)
		if err != nil {
			return netip.Prefix{}, false, errors.NewValidationError("invalid subnet expression "+expression, err)
		}
		return p, true, nil
	}

	if !strings.Contains(expression, ",") {
		if p, err := netip.ParsePrefix(expression); err == nil && p.Bits() < p.Addr().BitLen() && contains(network, p.Masked()) {
			return p.Masked(), true, nil
		}
	}

	return netip.Prefix{}, false, nil
}

func parseSubnet(addr string, bits int) (netip.Prefix, error) {
	a, err := netip.ParseAddr(addr)
	if err != nil {
		return netip.Prefix{}, err
	}
	return a.Prefix(bits)
}

func contains(outer, inner netip.Prefix) bool {
	return inner.Addr().BitLen() == outer.Addr().BitLen() &&
		inner.Bits() >= outer.Bits() &&
		outer.Contains(inner.Addr())
}

// literal validates a non-allocating AllowedIPs value.
func literal(network netip.Prefix, expression string) (string, error) {
	entries, err := ParseList(expression)
	if err != nil {
		return "", err
	}
	for _, p := range entries {
		if p.Overlaps(network) {
			return JoinList(expression), nil
		}
	}
	return "", errors.Validationf("allowed IPs %s do not overlap interface network %s", strings.TrimSpace(expression), network)
}

// ParseList parses a comma-separated list of addresses or prefixes. Bare
// addresses become single-host prefixes.
func ParseList(csv string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, entry := range strings.Split(csv, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		p, err := parseEntry(entry)
		if err != nil {
			return nil, errors.NewValidationError("invalid allowed IP "+entry, err)
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, errors.Validationf("allowed IPs must not be empty")
	}
	return out, nil
}

// JoinList trims entries of a comma-separated list, drops empties and
// re-joins them with ",".
func JoinList(csv string) string {
	var entries []string
	for _, entry := range strings.Split(csv, ",") {
		if entry = strings.TrimSpace(entry); entry != "" {
			entries = append(entries, entry)
		}
	}
	return strings.Join(entries, ",")
}

func parseEntry(entry string) (netip.Prefix, error) {
	if strings.Contains(entry, "/") {
		return netip.ParsePrefix(entry)
	}
	addr, err := netip.ParseAddr(entry)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

func usedAddresses(self netip.Addr, existing []string) map[netip.Addr]struct{} {
	used := map[netip.Addr]struct{}{self: {}}
	for _, value := range existing {
		for _, entry := range strings.Split(value, ",") {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			if p, err := parseEntry(entry); err == nil {
				used[p.Addr()] = struct{}{}
			}
		}
	}
	return used
}

// firstFree scans the host addresses of subnet in ascending order. For
// IPv4 subnets wider than /31 the network and broadcast addresses are not
// hosts; for IPv6 subnets wider than /127 the subnet-router anycast
// address is skipped.
func firstFree(subnet netip.Prefix, used map[netip.Addr]struct{}) (netip.Addr, bool) {
	first := subnet.Addr()
	last := lastAddr(subnet)
	width := first.BitLen()

	if subnet.Bits() < width-1 {
		first = first.Next()
		if first.Is4() {
			last = last.Prev()
		}
	}

	for a := first; a.IsValid() && subnet.Contains(a); a = a.Next() {
		if _, taken := used[a]; !taken {
			return a, true
		}
		if a == last {
			break
		}
	}
	return netip.Addr{}, false
}

func lastAddr(p netip.Prefix) netip.Addr {
	b := p.Addr().AsSlice()
	hostBits := len(b)*8 - p.Bits()
	for i := len(b) - 1; i >= 0 && hostBits > 0; i-- {
		if hostBits >= 8 {
			b[i] = 0xff
			hostBits -= 8
		} else {
			b[i] |= byte(1<<hostBits) - 1
			hostBits = 0
		}
	}
	a, _ := netip.AddrFromSlice(b)
	return a
}
