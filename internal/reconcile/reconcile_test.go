package reconcile

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/wgfold/wgfold/internal/errors"
	"github.com/wgfold/wgfold/internal/identity"
	"github.com/wgfold/wgfold/internal/lock"
	"github.com/wgfold/wgfold/internal/mocks"
	"github.com/wgfold/wgfold/internal/wgconf"
)

const ifaceFragment = `[Interface]
PrivateKey = SERVERPRIVATE=
Address = 10.0.0.1/24
ListenPort = 51820
PostUp = iptables -A FORWARD -i wg0 -j ACCEPT
`

func newLayout(t *testing.T) Layout {
	t.Helper()
	return Layout{Base: t.TempDir()}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0640); err != nil {
		t.Fatal(err)
	}
}

func peerFragment(name, key, ips string) string {
	s := ""
	if name != "" {
		s = "# " + name + "\n"
	}
	return s + "[Peer]\nPublicKey = " + key + "\nAllowedIPs = " + ips + "\n"
}

func seedFolder(t *testing.T, layout Layout, peers map[string][2]string) {
	t.Helper()
	writeFile(t, layout.Fragment("wg0"), ifaceFragment)
	for name, p := range peers {
		writeFile(t, layout.PeerFile("wg0", name), peerFragment(name, p[0], p[1]))
	}
}

func TestSync_AssemblesSortedFragments(t *testing.T) {
	layout := newLayout(t)
	seedFolder(t, layout, map[string][2]string{
		"zed":   {"ZED=", "10.0.0.9/32"},
		"alice": {"ALICE=", "10.0.0.5/32"},
		"bob":   {"BOB=", "10.0.0.6/32"},
	})
	// Not a fragment.
	writeFile(t, filepath.Join(layout.Folder("wg0"), "notes.txt"), "hello")

	res, err := Sync(lock.NewManager(), layout, "wg0")
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if res.Path != layout.Canonical("wg0") || res.Peers != 3 {
		t.Errorf("Unexpected result: %+v", res)
	}

	cfg, err := wgconf.Load(res.Path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	var keys []string
	for _, p := range cfg.Peers {
		keys = append(keys, p.PublicKey())
		if p.Name != "" {
			t.Errorf("Canonical peer carries name %q", p.Name)
		}
	}
	if got := strings.Join(keys, ","); got != "ALICE=,BOB=,ZED=" {
		t.Errorf("Peer order = %s", got)
	}
	if cfg.Interface.Get(wgconf.KeyPostUp) == "" {
		t.Error("Interface section was not carried over")
	}

	info, err := os.Stat(res.Path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != wgconf.SecretMode {
		t.Errorf("Mode = %o, want %o", info.Mode().Perm(), wgconf.SecretMode)
	}
}

func TestSync_MissingInterface(t *testing.T) {
	_, err := Sync(lock.NewManager(), newLayout(t), "wg0")
	if errors.CodeOf(err) != errors.ErrCodeNotFound {
		t.Errorf("Sync() error = %v, want NOT_FOUND", err)
	}
}

func TestSync_KeepsPeersInInterfaceFragment(t *testing.T) {
	layout := newLayout(t)
	locks := lock.NewManager()
	writeFile(t, layout.Fragment("wg0"), ifaceFragment+"\n[Peer]\nPublicKey = EMBEDDED=\nAllowedIPs = 10.0.0.2/32\n")
	writeFile(t, layout.PeerFile("wg0", "alice"), peerFragment("alice", "ALICE=", "10.0.0.5/32"))

	folder, err := ReadFolder(layout, "wg0")
	if err != nil {
		t.Fatalf("ReadFolder() error = %v", err)
	}
	if folder.Embedded != 1 || len(folder.Peers) != 2 || len(folder.Files()) != 1 {
		t.Fatalf("Unexpected folder: %+v", folder)
	}

	res, err := Sync(locks, layout, "wg0")
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if res.Peers != 2 {
		t.Errorf("Peers = %d, want 2", res.Peers)
	}
	cfg, err := wgconf.Load(res.Path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Peers) != 2 || cfg.Peers[0].PublicKey() != "EMBEDDED=" || cfg.Peers[1].PublicKey() != "ALICE=" {
		t.Fatalf("Unexpected canonical peers: %+v", cfg.Peers)
	}

	diff, err := Diff(locks, layout, "wg0")
	if err != nil {
		t.Fatalf("Diff() error = %v", err)
	}
	if !diff.InSync {
		t.Errorf("Expected in sync, diff:\n%s", diff.Diff)
	}

	reset, err := Reset(locks, layout, "wg0")
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if len(reset.Peers) != 2 || reset.Peers[1].Name != "alice" {
		t.Fatalf("Unexpected reset result: %+v", reset.Peers)
	}
	frag, err := wgconf.Load(layout.Fragment("wg0"))
	if err != nil {
		t.Fatal(err)
	}
	if len(frag.Peers) != 0 {
		t.Errorf("Reset left peers in the interface fragment: %+v", frag.Peers)
	}
	if _, err := os.Stat(layout.PeerFile("wg0", reset.Peers[0].Name)); err != nil {
		t.Errorf("Embedded peer was not moved to its own fragment: %v", err)
	}
}

func TestReset_KeepsAnnotatedEmbeddedName(t *testing.T) {
	layout := newLayout(t)
	locks := lock.NewManager()
	writeFile(t, layout.Fragment("wg0"), ifaceFragment+"\n"+peerFragment("gateway", "GW=", "10.0.0.2/32"))

	if _, err := Sync(locks, layout, "wg0"); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	res, err := Reset(locks, layout, "wg0")
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if len(res.Peers) != 1 || res.Peers[0].Name != "gateway" || res.Peers[0].Source != identity.SourcePublicKey {
		t.Errorf("Unexpected reset result: %+v", res.Peers)
	}
}

func TestReset_PreservesNameByPublicKey(t *testing.T) {
	layout := newLayout(t)
	locks := lock.NewManager()
	seedFolder(t, layout, map[string][2]string{"alice": {"K", "10.0.0.5/32"}})

	if _, err := Sync(locks, layout, "wg0"); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	res, err := Reset(locks, layout, "wg0")
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	if len(res.Peers) != 1 || res.Peers[0].Name != "alice" || res.Peers[0].Source != identity.SourcePublicKey {
		t.Fatalf("Unexpected reset result: %+v", res.Peers)
	}
	cfg, err := wgconf.Load(layout.PeerFile("wg0", "alice"))
	if err != nil {
		t.Fatalf("alice.conf missing: %v", err)
	}
	if cfg.Peers[0].Name != "alice" {
		t.Errorf("Expected name comment, got %q", cfg.Peers[0].Name)
	}
}

func TestReset_CorrelatesByAllowedIPs(t *testing.T) {
	layout := newLayout(t)
	seedFolder(t, layout, map[string][2]string{"alice": {"OLDKEY=", "10.0.0.5"}})
	writeFile(t, layout.Canonical("wg0"), ifaceFragment+"\n[Peer]\nPublicKey = NEWKEY=\nAllowedIPs = 10.0.0.5/32\n")

	res, err := Reset(lock.NewManager(), layout, "wg0")
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if res.Peers[0].Name != "alice" || res.Peers[0].Source != identity.SourceAllowedIPs {
		t.Errorf("Unexpected peer: %+v", res.Peers[0])
	}
}

func TestReset_GeneratedAndDuplicateNames(t *testing.T) {
	layout := newLayout(t)
	canonical := ifaceFragment +
		"\n# bob\n[Peer]\nPublicKey = B1=\nAllowedIPs = 10.0.0.2/32\n" +
		"\n# bob\n[Peer]\nPublicKey = B2=\nAllowedIPs = 10.0.0.3/32\n" +
		"\n[Peer]\nPublicKey = X=\nAllowedIPs = 10.0.0.4/32\n" +
		"\n# ../escape\n[Peer]\nPublicKey = E=\nAllowedIPs = 10.0.0.5/32\n" +
		"\n# wg0\n[Peer]\nPublicKey = W=\nAllowedIPs = 10.0.0.6/32\n"
	writeFile(t, layout.Canonical("wg0"), canonical)

	res, err := Reset(lock.NewManager(), layout, "wg0")
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	want := []ResetPeer{
		{Name: "bob", PublicKey: "B1=", Source: identity.SourceAnnotation},
		{Name: "bob-2", PublicKey: "B2=", Source: identity.SourceAnnotation},
		{Name: "peer3", PublicKey: "X=", Source: identity.SourceGenerated},
		{Name: "peer4", PublicKey: "E=", Source: identity.SourceGenerated},
		{Name: "wg0-2", PublicKey: "W=", Source: identity.SourceAnnotation},
	}
	if len(res.Peers) != len(want) {
		t.Fatalf("Got %d peers, want %d", len(res.Peers), len(want))
	}
	for i := range want {
		if res.Peers[i] != want[i] {
			t.Errorf("Peer %d = %+v, want %+v", i, res.Peers[i], want[i])
		}
	}

	frag, err := wgconf.Load(layout.Fragment("wg0"))
	if err != nil {
		t.Fatal(err)
	}
	if len(frag.Peers) != 0 || frag.Interface.Get(wgconf.KeyAddress) != "10.0.0.1/24" {
		t.Errorf("Interface fragment was clobbered: %+v", frag)
	}
}

func TestReset_RemovesStaleFragments(t *testing.T) {
	layout := newLayout(t)
	seedFolder(t, layout, map[string][2]string{"stale": {"GONE=", "10.0.0.8/32"}})
	writeFile(t, layout.Canonical("wg0"), ifaceFragment)

	if _, err := Reset(lock.NewManager(), layout, "wg0"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if _, err := os.Stat(layout.PeerFile("wg0", "stale")); !os.IsNotExist(err) {
		t.Errorf("Expected stale fragment to be removed, got %v", err)
	}
}

func TestReset_MissingCanonical(t *testing.T) {
	_, err := Reset(lock.NewManager(), newLayout(t), "wg0")
	if errors.CodeOf(err) != errors.ErrCodeNotFound {
		t.Errorf("Reset() error = %v, want NOT_FOUND", err)
	}
}

func TestSyncResetSync_FixedPoint(t *testing.T) {
	layout := newLayout(t)
	locks := lock.NewManager()
	seedFolder(t, layout, map[string][2]string{
		"alice":  {"ALICE=", "10.0.0.5/32"},
		"bob":    {"BOB=", "10.0.0.6/32, fd00::6/128"},
		"laptop": {"LAPTOP=", "10.0.0.7/32"},
	})

	if _, err := Sync(locks, layout, "wg0"); err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(layout.Canonical("wg0"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Reset(locks, layout, "wg0"); err != nil {
		t.Fatal(err)
	}
	if _, err := Sync(locks, layout, "wg0"); err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(layout.Canonical("wg0"))
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("Canonical file changed across reset:\n%s\n---\n%s", first, second)
	}
}

func TestDiff(t *testing.T) {
	layout := newLayout(t)
	locks := lock.NewManager()
	seedFolder(t, layout, map[string][2]string{
		"alice": {"ALICE=", "10.0.0.5/32"},
		"bob":   {"BOB=", "10.0.0.6/32"},
	})

	res, err := Diff(locks, layout, "wg0")
	if err != nil {
		t.Fatalf("Diff() error = %v", err)
	}
	if res.InSync || len(res.CurrentConfig.Peers) != 0 || len(res.FolderConfig.Peers) != 2 {
		t.Errorf("Unexpected diff before sync: %+v", res)
	}
	if !strings.Contains(res.Diff, "--- current.conf") || !strings.Contains(res.Diff, "+++ folder") {
		t.Errorf("Unexpected unified diff:\n%s", res.Diff)
	}
	if _, err := os.Stat(layout.Canonical("wg0")); !os.IsNotExist(err) {
		t.Error("Diff must not write the canonical file")
	}

	if _, err := Sync(locks, layout, "wg0"); err != nil {
		t.Fatal(err)
	}
	res, err = Diff(locks, layout, "wg0")
	if err != nil {
		t.Fatalf("Diff() error = %v", err)
	}
	if !res.InSync || res.Diff != "" {
		t.Errorf("Expected in sync after Sync, diff:\n%s", res.Diff)
	}
	for i, p := range res.CurrentConfig.Peers {
		if p.Name != res.FolderConfig.Peers[i].Name {
			t.Errorf("Canonical peer %d named %q, folder %q", i, p.Name, res.FolderConfig.Peers[i].Name)
		}
	}
	if strings.Contains(res.Diff, "SERVERPRIVATE") {
		t.Error("Diff leaked the private key")
	}
}

func TestBorrowName(t *testing.T) {
	folder := []wgconf.Peer{
		{Name: "alice", Fields: wgconf.Section{{Key: wgconf.KeyPublicKey, Value: "A="}, {Key: wgconf.KeyAllowedIPs, Value: "10.0.0.5/32"}}},
		{Name: "peer2", Fields: wgconf.Section{{Key: wgconf.KeyPublicKey, Value: "P2="}}},
		{Name: "carol", Fields: wgconf.Section{{Key: wgconf.KeyPublicKey, Value: "C="}, {Key: wgconf.KeyAllowedIPs, Value: "10.0.0.7/32"}}},
	}

	tests := []struct {
		name     string
		peer     wgconf.Peer
		position int
		want     string
	}{
		{"annotation", wgconf.Peer{Name: "dave"}, 1, "dave"},
		{"public key", wgconf.Peer{Fields: wgconf.Section{{Key: wgconf.KeyPublicKey, Value: "A="}}}, 3, "alice"},
		{"generated name", wgconf.Peer{Fields: wgconf.Section{{Key: wgconf.KeyPublicKey, Value: "NEW="}}}, 2, "peer2"},
		{"allowed ips", wgconf.Peer{Fields: wgconf.Section{{Key: wgconf.KeyAllowedIPs, Value: "10.0.0.7"}}}, 1, "carol"},
		{"fallback", wgconf.Peer{Fields: wgconf.Section{{Key: wgconf.KeyPublicKey, Value: "Z="}}}, 9, "peer9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := borrowName(folder, tt.peer, tt.position); got != tt.want {
				t.Errorf("borrowName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApply_SyncConf(t *testing.T) {
	layout := newLayout(t)
	locks := lock.NewManager()
	seedFolder(t, layout, map[string][2]string{"alice": {"ALICE=", "10.0.0.5/32"}})
	if _, err := Sync(locks, layout, "wg0"); err != nil {
		t.Fatal(err)
	}

	tool := mocks.NewMockTool()
	tool.SyncConfFunc = func(ctx context.Context, iface, path string) ([]string, error) {
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("Temp config missing during syncconf: %v", err)
		} else if info.Mode().Perm() != wgconf.SecretMode {
			t.Errorf("Temp config mode = %o, want %o", info.Mode().Perm(), wgconf.SecretMode)
		}
		return []string{"Warning: AllowedIP has nonzero host part"}, nil
	}
	tmpDir := t.TempDir()

	res, err := Apply(context.Background(), locks, layout, tool, "wg0", ApplyOptions{TempDir: tmpDir})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if res.Method != MethodSyncConf || len(res.Warnings) != 1 {
		t.Errorf("Unexpected result: %+v", res)
	}

	sent := tool.SyncedContents[0]
	if strings.Contains(sent, "Address") || strings.Contains(sent, "PostUp") {
		t.Errorf("wg-quick keys leaked into syncconf input:\n%s", sent)
	}
	if !strings.Contains(sent, "PrivateKey = SERVERPRIVATE=") || !strings.Contains(sent, "PublicKey = ALICE=") {
		t.Errorf("Missing keys in syncconf input:\n%s", sent)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("Temp config was not removed: %v", entries)
	}
}

func TestApply_Fallbacks(t *testing.T) {
	missing := func(ctx context.Context, iface, path string) ([]string, error) {
		return nil, errors.NotFoundf("Unable to modify interface: No such device")
	}

	tests := []struct {
		name       string
		opts       ApplyOptions
		wantMethod string
	}{
		{"default systemd", ApplyOptions{}, MethodSystemd},
		{"custom unit", ApplyOptions{Fallback: MethodSystemd, ServiceUnit: "wireguard-{{interface}}.service"}, MethodSystemd},
		{"wg-quick", ApplyOptions{Fallback: MethodWgQuick}, MethodWgQuick},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout := newLayout(t)
			locks := lock.NewManager()
			seedFolder(t, layout, nil)
			if _, err := Sync(locks, layout, "wg0"); err != nil {
				t.Fatal(err)
			}

			tool := mocks.NewMockTool()
			tool.SyncConfFunc = missing
			tt.opts.TempDir = t.TempDir()

			res, err := Apply(context.Background(), locks, layout, tool, "wg0", tt.opts)
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if res.Method != tt.wantMethod {
				t.Errorf("Method = %s, want %s", res.Method, tt.wantMethod)
			}
			_, quickUp, restart := tool.Calls()
			switch tt.wantMethod {
			case MethodSystemd:
				if restart != 1 || quickUp != 0 {
					t.Errorf("restart=%d quickUp=%d", restart, quickUp)
				}
				wantUnit := ServiceUnit(tt.opts.ServiceUnit, "wg0")
				if tool.RestartedUnits[0] != wantUnit {
					t.Errorf("Unit = %s, want %s", tool.RestartedUnits[0], wantUnit)
				}
			case MethodWgQuick:
				if quickUp != 1 || restart != 0 {
					t.Errorf("restart=%d quickUp=%d", restart, quickUp)
				}
			}
		})
	}
}

func TestApply_OtherFailurePropagates(t *testing.T) {
	layout := newLayout(t)
	locks := lock.NewManager()
	seedFolder(t, layout, nil)
	if _, err := Sync(locks, layout, "wg0"); err != nil {
		t.Fatal(err)
	}

	tool := mocks.NewMockTool()
	tool.SyncConfFunc = func(ctx context.Context, iface, path string) ([]string, error) {
		return nil, errors.NewRuntimeError("wg syncconf failed", nil)
	}
	tmpDir := t.TempDir()
	_, err := Apply(context.Background(), locks, layout, tool, "wg0", ApplyOptions{TempDir: tmpDir})
	if errors.CodeOf(err) != errors.ErrCodeRuntime {
		t.Errorf("Apply() error = %v, want RUNTIME_FAILURE", err)
	}
	if _, quickUp, restart := tool.Calls(); quickUp+restart != 0 {
		t.Error("Fallback must not run for unrelated failures")
	}
	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("Temp config was not removed after failure: %v", entries)
	}
}

func TestApply_MissingCanonical(t *testing.T) {
	_, err := Apply(context.Background(), lock.NewManager(), newLayout(t), mocks.NewMockTool(), "wg0", ApplyOptions{})
	if errors.CodeOf(err) != errors.ErrCodeNotFound {
		t.Fatalf("Apply() error = %v, want NOT_FOUND", err)
	}
	if !strings.Contains(errors.Message(err), "run sync first") {
		t.Errorf("Message = %q", errors.Message(err))
	}
}

func TestServiceUnit(t *testing.T) {
	if got := ServiceUnit("", "wg0"); got != "wg-quick@wg0" {
		t.Errorf("ServiceUnit() = %q", got)
	}
	if got := ServiceUnit("wg-{{interface}}.service", "home"); got != "wg-home.service" {
		t.Errorf("ServiceUnit() = %q", got)
	}
}

func TestConcurrentSyncs(t *testing.T) {
	layout := newLayout(t)
	locks := lock.NewManager()
	seedFolder(t, layout, map[string][2]string{
		"alice": {"ALICE=", "10.0.0.5/32"},
		"bob":   {"BOB=", "10.0.0.6/32"},
	})
	writeFile(t, layout.Fragment("wg1"), strings.ReplaceAll(ifaceFragment, "wg0", "wg1"))

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		for _, iface := range []string{"wg0", "wg1"} {
			wg.Add(1)
			go func(iface string) {
				defer wg.Done()
				if _, err := Sync(locks, layout, iface); err != nil {
					errs <- err
				}
			}(iface)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Sync() error = %v", err)
	}

	cfg, err := wgconf.Load(layout.Canonical("wg0"))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Peers) != 2 {
		t.Errorf("Expected 2 peers, got %d", len(cfg.Peers))
	}
}

func TestInterfaces(t *testing.T) {
	layout := newLayout(t)
	seedFolder(t, layout, nil)
	writeFile(t, layout.Fragment("home"), ifaceFragment)
	if err := os.MkdirAll(filepath.Join(layout.Base, ".hidden"), 0750); err != nil {
		t.Fatal(err)
	}
	writeFile(t, layout.Canonical("loose"), ifaceFragment)

	names, err := layout.Interfaces()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(names, ",") != "home,wg0" {
		t.Errorf("Interfaces() = %v", names)
	}

	empty, err := Layout{Base: filepath.Join(layout.Base, "missing")}.Interfaces()
	if err != nil || len(empty) != 0 {
		t.Errorf("Interfaces() on missing base = %v, %v", empty, err)
	}
}
