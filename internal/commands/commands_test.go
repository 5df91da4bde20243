package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wgfold/wgfold/internal/log"
)

func init() {
	log.DisableLogs()
}

const testFragment = `[Interface]
PrivateKey = yAnz5TF+lXXJte14tji3zlMNq+hd2rYUIgJBgB3fBmk=
Address = 10.0.0.1/24
ListenPort = 51820
`

const testPeer = `# alice
[Peer]
PublicKey = xTIBA5rboUvnH4htodjb6e697QjLERt1NAB4mZqp8Dg=
AllowedIPs = 10.0.0.2/32
`

// setup writes a config pointing at a temp base directory holding one
// interface folder with one peer.
func setup(t *testing.T) (configPath, base string) {
	t.Helper()
	dir := t.TempDir()
	base = filepath.Join(dir, "wireguard")
	folder := filepath.Join(base, "wg0")
	if err := os.MkdirAll(folder, 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(folder, "wg0.conf"), []byte(testFragment), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(folder, "alice.conf"), []byte(testPeer), 0640); err != nil {
		t.Fatal(err)
	}

	configPath = filepath.Join(dir, "wgfold.toml")
	content := "[wireguard]\nbase_dir = \"" + base + "\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return configPath, base
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSyncAndDiffCommands(t *testing.T) {
	configPath, base := setup(t)

	out, err := run(t, "--config", configPath, "sync", "wg0")
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if !strings.Contains(out, "with 1 peer(s)") {
		t.Errorf("Unexpected sync output: %q", out)
	}
	if _, err := os.Stat(filepath.Join(base, "wg0.conf")); err != nil {
		t.Errorf("Expected canonical file: %v", err)
	}

	out, err = run(t, "--config", configPath, "--json", "diff", "wg0")
	if err != nil {
		t.Fatalf("diff failed: %v", err)
	}
	var diff struct {
		InSync bool `json:"in_sync"`
	}
	if err := json.Unmarshal([]byte(out), &diff); err != nil {
		t.Fatalf("Invalid JSON output %q: %v", out, err)
	}
	if !diff.InSync {
		t.Errorf("Expected in_sync after sync, got %q", out)
	}
	if strings.Contains(out, "yAnz5TF") {
		t.Error("Diff output must not contain private keys")
	}
}

func TestListCommands(t *testing.T) {
	configPath, _ := setup(t)

	out, err := run(t, "--config", configPath, "interfaces")
	if err != nil {
		t.Fatalf("interfaces failed: %v", err)
	}
	if !strings.Contains(out, "wg0") || !strings.Contains(out, "10.0.0.1/24") {
		t.Errorf("Unexpected interfaces output: %q", out)
	}

	out, err = run(t, "--config", configPath, "peers", "wg0")
	if err != nil {
		t.Fatalf("peers failed: %v", err)
	}
	if !strings.Contains(out, "alice") || !strings.Contains(out, "10.0.0.2/32") {
		t.Errorf("Unexpected peers output: %q", out)
	}
}

func TestCommandErrors(t *testing.T) {
	configPath, _ := setup(t)

	if _, err := run(t, "--config", configPath, "sync", "wg9"); err == nil {
		t.Error("Expected error for missing interface")
	}
	if _, err := run(t, "--config", configPath, "sync"); err == nil {
		t.Error("Expected error for missing argument")
	}

	bad := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(bad, []byte("[wireguard]\napply_fallback = \"ifup\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "--config", bad, "interfaces"); err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("Expected validation error, got %v", err)
	}
}
