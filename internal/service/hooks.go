package service

import (
	"io"
	"net/netip"
	"strconv"
	"strings"

	"github.com/valyala/fasttemplate"
)

// renderHook fills the placeholders of a PostUp/PostDown template.
// {{subnet}} is the network of the first interface address. Unknown
// placeholders are left as written.
func renderHook(tmpl, iface, address string, listenPort int) string {
	if tmpl == "" {
		return ""
	}
	first, _, _ := strings.Cut(address, ",")
	subnet := strings.TrimSpace(first)
	if p, err := netip.ParsePrefix(subnet); err == nil {
		subnet = p.Masked().String()
	}
	values := map[string]string{
		"interface":   iface,
		"address":     address,
		"subnet":      subnet,
		"listen_port": strconv.Itoa(listenPort),
	}
	return fasttemplate.ExecuteFuncString(tmpl, "{{", "}}", func(w io.Writer, tag string) (int, error) {
		if v, ok := values[tag]; ok {
			return w.Write([]byte(v))
		}
		return w.Write([]byte("{{" + tag + "}}"))
	})
}
