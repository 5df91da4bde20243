package state

import (
	"bufio"
	"math"
	"strconv"
	"strings"
	"time"
)

// Runtime is the parsed output of `wg show {iface}`.
type Runtime struct {
	Interface  string            `json:"interface"`
	PublicKey  string            `json:"public_key,omitempty"`
	ListenPort string            `json:"listening_port,omitempty"`
	FwMark     string            `json:"fwmark,omitempty"`
	Peers      []RuntimePeer     `json:"peers"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// RuntimePeer is one peer block of `wg show`.
type RuntimePeer struct {
	PublicKey           string            `json:"public_key"`
	Endpoint            string            `json:"endpoint,omitempty"`
	AllowedIPs          string            `json:"allowed_ips,omitempty"`
	LatestHandshake     int64             `json:"latest_handshake"`
	TransferRx          int64             `json:"transfer_rx"`
	TransferTx          int64             `json:"transfer_tx"`
	PersistentKeepalive string            `json:"persistent_keepalive,omitempty"`
	PresharedKey        string            `json:"preshared_key,omitempty"`
	Extra               map[string]string `json:"extra,omitempty"`
}

// now is replaced in tests.
var now = time.Now

// ParseShow parses the human-readable output of `wg show`.
func ParseShow(text string) *Runtime {
	return parseShow(text, now())
}

func parseShow(text string, now time.Time) *Runtime {
	rt := &Runtime{Peers: []RuntimePeer{}}
	var peer *RuntimePeer

	flush := func() {
		if peer != nil {
			rt.Peers = append(rt.Peers, *peer)
			peer = nil
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "interface":
			flush()
			rt.Interface = value
			continue
		case "peer":
			flush()
			peer = &RuntimePeer{PublicKey: value}
			continue
		}

		if peer == nil {
			switch key {
			case "public key":
				rt.PublicKey = value
			case "listening port":
				rt.ListenPort = value
			case "fwmark":
				rt.FwMark = value
			case "private key":
				// always "(hidden)" in wg show output
			default:
				if rt.Extra == nil {
					rt.Extra = make(map[string]string)
				}
				rt.Extra[key] = value
			}
			continue
		}

		switch key {
		case "endpoint":
			peer.Endpoint = value
		case "allowed ips":
			if value != "(none)" {
				peer.AllowedIPs = value
			}
		case "latest handshake":
			peer.LatestHandshake = parseHandshake(value, now)
		case "transfer":
			peer.TransferRx, peer.TransferTx = parseTransfer(value)
		case "persistent keepalive":
			peer.PersistentKeepalive = parseKeepalive(value)
		case "preshared key":
			peer.PresharedKey = value
		default:
			if peer.Extra == nil {
				peer.Extra = make(map[string]string)
			}
			peer.Extra[key] = value
		}
	}
	flush()

	return rt
}

var unitScale = map[string]float64{
	"B":   1,
	"KiB": 1 << 10,
	"MiB": 1 << 20,
	"GiB": 1 << 30,
	"TiB": 1 << 40,
	"KB":  1e3,
	"MB":  1e6,
	"GB":  1e9,
	"TB":  1e12,
}

// parseTransfer reads "<n> <unit> received, <n> <unit> sent".
func parseTransfer(value string) (rx, tx int64) {
	received, sent, ok := strings.Cut(value, ",")
	if !ok {
		return 0, 0
	}
	return parseAmount(strings.TrimSuffix(strings.TrimSpace(received), " received")),
		parseAmount(strings.TrimSuffix(strings.TrimSpace(sent), " sent"))
}

func parseAmount(s string) int64 {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0
	}
	n, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}
	scale, ok := unitScale[fields[1]]
	if !ok {
		return 0
	}
	return int64(math.Round(n * scale))
}

var durationUnits = map[string]time.Duration{
	"second":  time.Second,
	"seconds": time.Second,
	"minute":  time.Minute,
	"minutes": time.Minute,
	"hour":    time.Hour,
	"hours":   time.Hour,
	"day":     24 * time.Hour,
	"days":    24 * time.Hour,
	"year":    365 * 24 * time.Hour,
	"years":   365 * 24 * time.Hour,
}

// parseHandshake returns epoch seconds. wg prints either a raw epoch
// (wg show dump style) or a relative "1 minute, 5 seconds ago"; anything
// else yields 0.
func parseHandshake(value string, now time.Time) int64 {
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}
	if value == "Now" {
		return now.Unix()
	}
	rest, ok := strings.CutSuffix(value, " ago")
	if !ok {
		return 0
	}
	var total time.Duration
	for _, part := range strings.Split(rest, ",") {
		fields := strings.Fields(part)
		if len(fields) != 2 {
			return 0
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			return 0
		}
		unit, ok := durationUnits[fields[1]]
		if !ok {
			return 0
		}
		total += time.Duration(n) * unit
	}
	return now.Add(-total).Unix()
}

// parseKeepalive turns "every 25 seconds" into "25" and "off" into "".
func parseKeepalive(value string) string {
	if value == "off" {
		return ""
	}
	fields := strings.Fields(value)
	if len(fields) == 3 && fields[0] == "every" {
		return fields[1]
	}
	return value
}
