// Package identity re-associates peers with their logical names across the
// folder and canonical representations.
//
// The canonical file carries no reliable name metadata, so names are
// recovered by priority: an explicit name annotation on the record, then
// an exact PublicKey match, then an exact match of the normalized
// AllowedIPs, and finally a generated "peer{N}" name.
package identity

import (
	"net/netip"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Source tells which rule produced a resolved name.
type Source string

const (
	SourceAnnotation Source = "annotation"
	SourcePublicKey  Source = "public_key"
	SourceAllowedIPs Source = "allowed_ips"
	SourceGenerated  Source = "generated"
)

// NormalizeAllowedIPs canonicalizes a comma-separated AllowedIPs value so
// two values can be compared as strings. Bare addresses get /32 or /128,
// entries are sorted and joined with ",". NormalizeAllowedIPs is
// idempotent.
func NormalizeAllowedIPs(csv string) string {
	parts := strings.Split(csv, ",")
	entries := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		entries = append(entries, normalizeEntry(p))
	}
	sort.Strings(entries)
	return strings.Join(entries, ",")
}

func normalizeEntry(entry string) string {
	if !strings.Contains(entry, "/") {
		if addr, err := netip.ParseAddr(entry); err == nil {
			return netip.PrefixFrom(addr, addr.BitLen()).String()
		}
		if strings.Contains(entry, ":") {
			return entry + "/128"
		}
		return entry + "/32"
	}
	if prefix, err := netip.ParsePrefix(entry); err == nil {
		return prefix.String()
	}
	return entry
}

// GeneratedName is the fallback name for the peer at 1-based position.
func GeneratedName(position int) string {
	return "peer" + strconv.Itoa(position)
}

// Index maps identifying attributes of known peers to their names.
type Index struct {
	byKey map[string]string
	byIPs map[string]string
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		byKey: make(map[string]string),
		byIPs: make(map[string]string),
	}
}

// Add records name under publicKey and the normalized allowedIPs. Empty
// attributes are skipped; the first name recorded for an attribute wins.
func (idx *Index) Add(name, publicKey, allowedIPs string) {
	if publicKey != "" {
		if _, ok := idx.byKey[publicKey]; !ok {
			idx.byKey[publicKey] = name
		}
	}
	if norm := NormalizeAllowedIPs(allowedIPs); norm != "" {
		if _, ok := idx.byIPs[norm]; !ok {
			idx.byIPs[norm] = name
		}
	}
}

// Len returns the number of distinct public keys indexed.
func (idx *Index) Len() int {
	return len(idx.byKey)
}

// ByPublicKey looks up a name by exact public key.
func (idx *Index) ByPublicKey(publicKey string) (string, bool) {
	if publicKey == "" {
		return "", false
	}
	name, ok := idx.byKey[publicKey]
	return name, ok
}

// ByAllowedIPs looks up a name by normalized AllowedIPs.
func (idx *Index) ByAllowedIPs(allowedIPs string) (string, bool) {
	norm := NormalizeAllowedIPs(allowedIPs)
	if norm == "" {
		return "", false
	}
	name, ok := idx.byIPs[norm]
	return name, ok
}

// Resolve names the peer found at 1-based position. annotation is the name
// carried by the record itself, if any.
func (idx *Index) Resolve(annotation, publicKey, allowedIPs string, position int) (string, Source) {
	if annotation != "" {
		return annotation, SourceAnnotation
	}
	if idx != nil {
		if name, ok := idx.ByPublicKey(publicKey); ok {
			return name, SourcePublicKey
		}
		if name, ok := idx.ByAllowedIPs(allowedIPs); ok {
			return name, SourceAllowedIPs
		}
	}
	return GeneratedName(position), SourceGenerated
}

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]{0,63}$`)

// ValidName reports whether name can be used as a peer name, which is
// also its fragment file stem.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}
