package config

// DefaultPath is used when no --config flag is given.
const DefaultPath = "/etc/wireguard/wgfold.toml"

type Config struct {
	Server    ServerConfig    `toml:"server" json:"server"`
	Access    AccessConfig    `toml:"access" json:"access"`
	CORS      CORSConfig      `toml:"cors" json:"cors"`
	WireGuard WireGuardConfig `toml:"wireguard" json:"wireguard"`
	Logging   LoggingConfig   `toml:"logging" json:"logging"`

	path string
}

type ServerConfig struct {
	// ListenAddr is the HTTP listen address (default: [::]:5000).
	ListenAddr string `toml:"listen_addr" json:"listen_addr" validate:"required,listen_addr"`
	// ReadTimeoutSec bounds reading a request (default: 15).
	ReadTimeoutSec int `toml:"read_timeout_sec" json:"read_timeout_sec" validate:"gte=1"`
	// WriteTimeoutSec bounds writing a response (default: 60). It must
	// exceed the command timeout so slow applies still get an answer.
	WriteTimeoutSec int `toml:"write_timeout_sec" json:"write_timeout_sec" validate:"gte=1"`
}

type AccessConfig struct {
	// AllowedIPs lists client addresses or networks allowed to use the API.
	// Empty allows everyone.
	AllowedIPs []string `toml:"allowed_ips" json:"allowed_ips" validate:"dive,ip_or_cidr"`
	// TrustedProxies lists reverse proxies. When set, requests must come
	// from one of them and the client is taken from X-Forwarded-For.
	TrustedProxies []string `toml:"trusted_proxies" json:"trusted_proxies" validate:"dive,ip_or_cidr"`
}

type CORSConfig struct {
	Enabled          bool     `toml:"enabled" json:"enabled"`
	Origins          []string `toml:"origins" json:"origins"`
	Methods          []string `toml:"methods" json:"methods"`
	AllowHeaders     []string `toml:"allow_headers" json:"allow_headers"`
	ExposeHeaders    []string `toml:"expose_headers" json:"expose_headers"`
	AllowCredentials bool     `toml:"allow_credentials" json:"allow_credentials"`
	// MaxAge is the preflight cache lifetime in seconds (default: 3600).
	MaxAge int `toml:"max_age" json:"max_age" validate:"gte=0"`
}

type WireGuardConfig struct {
	// BaseDir holds the canonical files and interface folders (default: /etc/wireguard).
	BaseDir string `toml:"base_dir" json:"base_dir" validate:"required"`
	// ApplyFallback brings up an interface that is not running (default: systemd).
	ApplyFallback string `toml:"apply_fallback" json:"apply_fallback" validate:"oneof=systemd wg-quick"`
	// ServiceUnit is the systemd unit template (default: wg-quick@{{interface}}).
	ServiceUnit string `toml:"service_unit" json:"service_unit" validate:"required"`
	// DefaultAddress is used for new interfaces without an address (default: 10.0.0.1/24).
	DefaultAddress string `toml:"default_address" json:"default_address" validate:"required,cidr_iface"`
	// DefaultListenPort is used for new interfaces without a port (default: 51820).
	DefaultListenPort int `toml:"default_listen_port" json:"default_listen_port" validate:"min=1,max=65535"`
	// PostUp and PostDown are hook templates written into new interfaces.
	// Placeholders: {{interface}}, {{address}}, {{subnet}}, {{listen_port}}.
	PostUp   string `toml:"post_up" json:"post_up"`
	PostDown string `toml:"post_down" json:"post_down"`
	// ToolPaths are searched for wg, wg-quick and systemctl before $PATH.
	ToolPaths []string `toml:"tool_paths" json:"tool_paths"`
	// CommandTimeoutSec bounds every external command (default: 30).
	CommandTimeoutSec int `toml:"command_timeout_sec" json:"command_timeout_sec" validate:"min=1"`
}

type LoggingConfig struct {
	// Level is one of debug, info, warn, error (default: info).
	Level string `toml:"level" json:"level" validate:"oneof=debug info warn error"`
}
