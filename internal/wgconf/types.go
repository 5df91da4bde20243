package wgconf

// Recognized [Interface] keys.
const (
	KeyPrivateKey = "PrivateKey"
	KeyAddress    = "Address"
	KeyListenPort = "ListenPort"
	KeyPostUp     = "PostUp"
	KeyPostDown   = "PostDown"
	KeyDNS        = "DNS"
	KeyFwMark     = "FwMark"
)

// Recognized [Peer] keys.
const (
	KeyPublicKey           = "PublicKey"
	KeyAllowedIPs          = "AllowedIPs"
	KeyEndpoint            = "Endpoint"
	KeyPersistentKeepalive = "PersistentKeepalive"
	KeyPresharedKey        = "PresharedKey"
)

// Field is a single key = value line.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Section is an ordered set of fields. Keys are case-sensitive and unique;
// Set on an existing key keeps its position.
type Section []Field

// Get returns the value for key, or "" if absent.
func (s Section) Get(key string) string {
	for _, f := range s {
		if f.Key == key {
			return f.Value
		}
	}
	return ""
}

// Has reports whether key is present, even with an empty value.
func (s Section) Has(key string) bool {
	for _, f := range s {
		if f.Key == key {
			return true
		}
	}
	return false
}

// Set replaces the value of key or appends it.
func (s *Section) Set(key, value string) {
	for i := range *s {
		if (*s)[i].Key == key {
			(*s)[i].Value = value
			return
		}
	}
	*s = append(*s, Field{Key: key, Value: value})
}

// Delete removes key if present.
func (s *Section) Delete(key string) {
	out := (*s)[:0]
	for _, f := range *s {
		if f.Key != key {
			out = append(out, f)
		}
	}
	*s = out
}

// Empty reports whether the section holds no non-empty values.
func (s Section) Empty() bool {
	for _, f := range s {
		if f.Value != "" {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (s Section) Clone() Section {
	if s == nil {
		return nil
	}
	out := make(Section, len(s))
	copy(out, s)
	return out
}

// Map returns the section as a map, for JSON views.
func (s Section) Map() map[string]string {
	m := make(map[string]string, len(s))
	for _, f := range s {
		m[f.Key] = f.Value
	}
	return m
}

// Peer is one [Peer] block. Name is the display name taken from a comment
// directly above the header; it is metadata, not WireGuard data.
type Peer struct {
	Name   string
	Fields Section
}

// PublicKey is a shorthand for Fields.Get(KeyPublicKey).
func (p Peer) PublicKey() string {
	return p.Fields.Get(KeyPublicKey)
}

// AllowedIPs is a shorthand for Fields.Get(KeyAllowedIPs).
func (p Peer) AllowedIPs() string {
	return p.Fields.Get(KeyAllowedIPs)
}

// Config is a parsed config file: an interface section and zero or more peers.
type Config struct {
	Interface Section
	Peers     []Peer
}

// HasPrivateKey reports whether the interface or any peer carries a PrivateKey.
func (c *Config) HasPrivateKey() bool {
	if c.Interface.Get(KeyPrivateKey) != "" {
		return true
	}
	for _, p := range c.Peers {
		if p.Fields.Get(KeyPrivateKey) != "" {
			return true
		}
	}
	return false
}
