// Package config handles the wgfold configuration file and input validation.
//
// The configuration is a TOML file, /etc/wireguard/wgfold.toml by default.
// A missing file is not an error: every setting has a default, and a
// warning is logged. Keys present in the file override the defaults; unknown
// keys are rejected so typos surface early.
//
// # Configuration Structure
//
//   - [server]     listen address and HTTP timeouts
//   - [access]     allowed client IPs and trusted reverse proxies
//   - [cors]       CORS policy for browser clients
//   - [wireguard]  base directory, apply fallback, defaults for new interfaces
//   - [logging]    log level
//
// # Validation
//
// Validate reports every problem at once as ValidationErrors. The same
// validator, with its WireGuard-specific tags (wg_ifname, wg_peername,
// wg_key, wg_endpoint, cidr_iface, dns_list, ip_or_cidr), is used by the
// service layer for API and CLI input through ValidateStruct.
//
// # Example Usage
//
//	cfg, err := config.Load("/etc/wireguard/wgfold.toml")
//	if err != nil {
//	    log.Fatalf("%v", err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatalf("%v", err)
//	}
package config
