package wgconf

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wgfold/wgfold/internal/log"
)

const (
	headerInterface = "[Interface]"
	headerPeer      = "[Peer]"

	// DirMode is used for every directory created next to config files.
	DirMode os.FileMode = 0750
	// SecretMode is applied to files carrying a PrivateKey.
	SecretMode os.FileMode = 0600
	// PublicMode is applied to all other config files.
	PublicMode os.FileMode = 0640
)

// Load reads and parses the config at path. A missing file yields an error
// matching fs.ErrNotExist.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Parse reads WireGuard INI-style text.
//
// A comment directly above [Peer], with no blank line in between, becomes
// the peer's Name. Every other comment is discarded.
func Parse(r io.Reader) (*Config, error) {
	cfg := &Config{}

	var (
		section string
		current *Peer
		pending string
	)

	flush := func() {
		if current != nil {
			cfg.Peers = append(cfg.Peers, *current)
			current = nil
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			pending = ""
		case strings.HasPrefix(line, "#"):
			pending = strings.TrimSpace(strings.TrimPrefix(line, "#"))
		case line == headerInterface:
			section = headerInterface
			pending = ""
		case line == headerPeer:
			flush()
			current = &Peer{Name: pending}
			section = headerPeer
			pending = ""
		default:
			pending = ""
			key, value, ok := strings.Cut(line, "=")
			if !ok {
				continue
			}
			key = strings.TrimSpace(key)
			value = strings.TrimSpace(value)
			switch section {
			case headerInterface:
				cfg.Interface.Set(key, value)
			case headerPeer:
				current.Fields.Set(key, value)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return cfg, nil
}

// Marshal renders cfg. When peerName is set and cfg holds exactly one peer,
// the name is written as a comment directly above [Peer] so Parse can
// recover it.
func Marshal(cfg *Config, peerName string) []byte {
	var buf bytes.Buffer

	if !cfg.Interface.Empty() {
		buf.WriteString(headerInterface + "\n")
		writeFields(&buf, cfg.Interface)
	}

	for i, peer := range cfg.Peers {
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		if peerName != "" && i == 0 && len(cfg.Peers) == 1 {
			buf.WriteString("# " + peerName + "\n")
		}
		buf.WriteString(headerPeer + "\n")
		writeFields(&buf, peer.Fields)
	}

	return buf.Bytes()
}

func writeFields(buf *bytes.Buffer, s Section) {
	for _, f := range s {
		if f.Value == "" {
			continue
		}
		fmt.Fprintf(buf, "%s = %s\n", f.Key, f.Value)
	}
}

// Write renders cfg to path through a temp file and rename, creating the
// parent directory if needed. The final mode is 0600 when a PrivateKey is
// present and 0640 otherwise; a failed chmod is only logged.
func Write(path string, cfg *Config, peerName string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirMode); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(Marshal(cfg, peerName)); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}

	mode := PublicMode
	if cfg.HasPrivateKey() {
		mode = SecretMode
	}
	if err := os.Chmod(path, mode); err != nil {
		log.Warnf("Could not set permissions on %s: %v", path, err)
	}

	return nil
}
