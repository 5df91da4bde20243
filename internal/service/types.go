package service

import "github.com/wgfold/wgfold/internal/alloc"

// InterfaceInfo describes an interface as stored in its folder.
type InterfaceInfo struct {
	Name       string `json:"name"`
	PublicKey  string `json:"public_key,omitempty"`
	Address    string `json:"address"`
	ListenPort string `json:"listen_port"`
	DNS        string `json:"dns,omitempty"`
	PostUp     string `json:"post_up,omitempty"`
	PostDown   string `json:"post_down,omitempty"`
	Peers      int    `json:"peers"`
	// Synced is true when the canonical file exists.
	Synced bool `json:"synced"`
}

// CreateInterfaceRequest creates an interface. Empty fields take the
// configured defaults; nil hooks take the configured hook templates.
type CreateInterfaceRequest struct {
	Name       string  `json:"name" validate:"required,wg_ifname"`
	Address    string  `json:"address" validate:"omitempty,cidr_iface"`
	ListenPort int     `json:"listen_port" validate:"omitempty,min=1,max=65535"`
	DNS        string  `json:"dns" validate:"omitempty,dns_list"`
	PostUp     *string `json:"post_up"`
	PostDown   *string `json:"post_down"`
}

// UpdateInterfaceRequest changes the non-nil fields. An empty string clears
// DNS or a hook.
type UpdateInterfaceRequest struct {
	Address    *string `json:"address" validate:"omitempty,cidr_iface"`
	ListenPort *int    `json:"listen_port" validate:"omitempty,min=1,max=65535"`
	DNS        *string `json:"dns" validate:"omitempty,dns_list"`
	PostUp     *string `json:"post_up"`
	PostDown   *string `json:"post_down"`
}

// InterfaceResult is returned by interface mutations.
type InterfaceResult struct {
	InterfaceInfo
	// SyncError is set when the mutation was stored but the canonical file
	// could not be regenerated.
	SyncError string `json:"sync_error,omitempty"`
}

// DeleteResult is returned by DeleteInterface.
type DeleteResult struct {
	Name   string `json:"name"`
	Purged bool   `json:"purged"`
}

// PeerInfo describes a peer fragment. Preshared keys are never returned
// after creation.
type PeerInfo struct {
	Name                string `json:"name"`
	PublicKey           string `json:"public_key"`
	AllowedIPs          string `json:"allowed_ips"`
	Endpoint            string `json:"endpoint,omitempty"`
	PersistentKeepalive string `json:"persistent_keepalive,omitempty"`
	HasPresharedKey     bool   `json:"has_preshared_key"`
}

// PresharedKeyGenerate asks for a fresh preshared key.
const PresharedKeyGenerate = "generate"

// CreatePeerRequest adds a peer. Without PublicKey a key pair is generated
// and the private key returned once. AllowedIPs is an allocation
// expression: empty, a partial subnet such as "10.50.10", a CIDR inside the
// interface network, or a literal AllowedIPs value.
type CreatePeerRequest struct {
	Name                string `json:"name" validate:"required,wg_peername"`
	PublicKey           string `json:"public_key" validate:"omitempty,wg_key"`
	AllowedIPs          string `json:"allowed_ips"`
	Endpoint            string `json:"endpoint" validate:"omitempty,wg_endpoint"`
	PersistentKeepalive int    `json:"persistent_keepalive" validate:"omitempty,min=1,max=65535"`
	// PresharedKey is a key, "generate", or empty for none.
	PresharedKey string `json:"preshared_key"`
}

// UpdatePeerRequest changes the non-nil fields. Name renames the fragment.
// An empty Endpoint or PresharedKey clears it; a zero keepalive disables it.
type UpdatePeerRequest struct {
	Name                *string `json:"name" validate:"omitempty,wg_peername"`
	PublicKey           *string `json:"public_key" validate:"omitempty,wg_key"`
	AllowedIPs          *string `json:"allowed_ips"`
	Endpoint            *string `json:"endpoint"`
	PersistentKeepalive *int    `json:"persistent_keepalive" validate:"omitempty,min=0,max=65535"`
	PresharedKey        *string `json:"preshared_key"`
}

// PeerResult is returned by peer mutations.
type PeerResult struct {
	PeerInfo
	// PrivateKey is only set when the key pair was generated.
	PrivateKey string `json:"private_key,omitempty"`
	// PresharedKey is only set when it was generated or supplied.
	PresharedKey string `json:"preshared_key,omitempty"`
	// Allocation is set when AllowedIPs was resolved by the allocator.
	Allocation *alloc.Result `json:"allocation,omitempty"`
	SyncError  string        `json:"sync_error,omitempty"`
}
