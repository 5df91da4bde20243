package config

import (
	stderrors "errors"
	"fmt"
	"net"
	"net/netip"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/miekg/dns"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"

	"github.com/wgfold/wgfold/internal/identity"
)

var ifnameRegexp = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// MaxInterfaceNameLen is the kernel limit (IFNAMSIZ - 1).
const MaxInterfaceNameLen = 15

// getValidationMessage returns a human-readable message for a validation error
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "field is required"
	case "min":
		return fmt.Sprintf("must be >= %s", e.Param())
	case "max":
		return fmt.Sprintf("must be <= %s", e.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "listen_addr":
		return "must be in format 'host:port' with a valid port"
	case "ip_or_cidr":
		return "must be an IP address or a CIDR network"
	case "wg_ifname":
		return fmt.Sprintf("must start with a letter, contain only [a-zA-Z0-9_-] and be at most %d characters", MaxInterfaceNameLen)
	case "wg_peername":
		return "must start with a letter or digit and contain only [a-zA-Z0-9_.-] (max 64 characters)"
	case "wg_key":
		return "must be a base64-encoded 32-byte WireGuard key"
	case "wg_endpoint":
		return "must be 'host:port' with an IP address or domain name and a port in 1-65535"
	case "cidr_iface":
		return "must be a comma-separated list of addresses with prefix length, e.g. 10.0.0.1/24"
	case "dns_list":
		return "must be a comma-separated list of IP addresses or search domains"
	default:
		return fmt.Sprintf("validation failed: %s", e.Tag())
	}
}

// ValidationError represents a single validation error with context
type ValidationError struct {
	FieldPath string // Dot-notation field path (e.g., "wireguard.base_dir", "allowed_ips")
	Message   string // Human-readable error message
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("validation failed with %d error(s):\n", len(ve)))
	for i, err := range ve {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.FieldPath, err.Message))
	}
	return sb.String()
}

// Summary joins the errors on one line, for API messages.
func (ve ValidationErrors) Summary() string {
	parts := make([]string, len(ve))
	for i, err := range ve {
		parts[i] = err.FieldPath + ": " + err.Message
	}
	return strings.Join(parts, "; ")
}

var validate *validator.Validate

func init() {
	validate = validator.New()

	custom := map[string]validator.Func{
		"listen_addr": validateListenAddr,
		"ip_or_cidr":  validateIPOrCIDR,
		"wg_ifname":   validateInterfaceName,
		"wg_peername": validatePeerName,
		"wg_key":      validateKey,
		"wg_endpoint": validateEndpointTag,
		"cidr_iface":  validateInterfaceAddress,
		"dns_list":    validateDNSList,
	}
	for tag, fn := range custom {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}

	// Field names come from the "toml" tag, or "json" for request types.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"toml", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
}

// ValidateStruct validates v and prefixes every field path with prefix.
func ValidateStruct(v interface{}, prefix string) ValidationErrors {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	return convertValidatorErrors(err, prefix)
}

// convertValidatorErrors converts go-playground/validator errors to our ValidationError format
func convertValidatorErrors(err error, fieldPrefix string) ValidationErrors {
	var validationErrors ValidationErrors

	var validatorErrs validator.ValidationErrors
	if !stderrors.As(err, &validatorErrs) {
		return ValidationErrors{{FieldPath: fieldPrefix, Message: err.Error()}}
	}
	for _, e := range validatorErrs {
		// Namespace is "Struct.field.sub"; drop the struct name.
		fieldPath := e.Namespace()
		if _, rest, ok := strings.Cut(fieldPath, "."); ok {
			fieldPath = rest
		}
		if fieldPrefix != "" {
			fieldPath = fieldPrefix + "." + fieldPath
		}
		validationErrors = append(validationErrors, ValidationError{
			FieldPath: fieldPath,
			Message:   getValidationMessage(e),
		})
	}
	return validationErrors
}

func validateListenAddr(fl validator.FieldLevel) bool {
	host, port, err := net.SplitHostPort(fl.Field().String())
	if err != nil || !IsValidPort(port) {
		return false
	}
	if host == "" {
		return true
	}
	if _, err := netip.ParseAddr(host); err == nil {
		return true
	}
	return isHostname(host)
}

func validateIPOrCIDR(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if _, err := netip.ParseAddr(value); err == nil {
		return true
	}
	_, err := netip.ParsePrefix(value)
	return err == nil
}

func validateInterfaceName(fl validator.FieldLevel) bool {
	return ValidInterfaceName(fl.Field().String())
}

func validatePeerName(fl validator.FieldLevel) bool {
	return identity.ValidName(fl.Field().String())
}

func validateKey(fl validator.FieldLevel) bool {
	_, err := wgtypes.ParseKey(fl.Field().String())
	return err == nil
}

func validateEndpointTag(fl validator.FieldLevel) bool {
	return ValidEndpoint(fl.Field().String())
}

func validateInterfaceAddress(fl validator.FieldLevel) bool {
	return ValidInterfaceAddress(fl.Field().String())
}

// validateDNSList accepts an empty value, which clears the setting.
func validateDNSList(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			return false
		}
		if _, err := netip.ParseAddr(entry); err == nil {
			continue
		}
		if !isHostname(entry) {
			return false
		}
	}
	return true
}

// ValidInterfaceName reports whether name is usable as a WireGuard link
// name and a file stem.
func ValidInterfaceName(name string) bool {
	return len(name) <= MaxInterfaceNameLen && ifnameRegexp.MatchString(name)
}

// ValidEndpoint reports whether value is host:port with an IP or domain
// host. IPv6 hosts must be bracketed.
func ValidEndpoint(value string) bool {
	host, port, err := net.SplitHostPort(value)
	if err != nil || host == "" || !IsValidPort(port) {
		return false
	}
	if _, err := netip.ParseAddr(host); err == nil {
		return true
	}
	return isHostname(host)
}

// ValidInterfaceAddress reports whether value is a comma-separated list of
// addresses with prefix length.
func ValidInterfaceAddress(value string) bool {
	entries := strings.Split(value, ",")
	for _, entry := range entries {
		if _, err := netip.ParsePrefix(strings.TrimSpace(entry)); err != nil {
			return false
		}
	}
	return len(entries) > 0
}

// IsValidPort reports whether port is a decimal in 1-65535.
func IsValidPort(port string) bool {
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}

var labelRegexp = regexp.MustCompile(`^[a-zA-Z0-9_]([a-zA-Z0-9_-]*[a-zA-Z0-9_])?$`)

// isHostname accepts domain names but not bare numbers, which would be
// mistyped addresses.
func isHostname(host string) bool {
	if _, ok := dns.IsDomainName(host); !ok {
		return false
	}
	for _, label := range strings.Split(strings.TrimSuffix(host, "."), ".") {
		if !labelRegexp.MatchString(label) {
			return false
		}
	}
	if _, err := strconv.Atoi(strings.ReplaceAll(host, ".", "")); err == nil {
		return false
	}
	return true
}
