package wgtool

import (
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/wgfold/wgfold/internal/errors"
)

func TestClassify(t *testing.T) {
	exitErr := stderrors.New("exit status 1")

	tests := []struct {
		name   string
		stderr string
		err    error
		want   errors.ErrorCode
	}{
		{"no such device", "Unable to access interface: No such device", exitErr, errors.ErrCodeNotFound},
		{"does not exist", "Device \"wg9\" does not exist.", exitErr, errors.ErrCodeNotFound},
		{"not found", "wg0: interface not found", exitErr, errors.ErrCodeNotFound},
		{"permission denied", "Unable to open: Permission denied", exitErr, errors.ErrCodePermission},
		{"operation not permitted", "RTNETLINK answers: Operation not permitted", exitErr, errors.ErrCodePermission},
		{"other failure", "Line unrecognized: `Foo=bar'", exitErr, errors.ErrCodeRuntime},
		{"empty stderr", "", exitErr, errors.ErrCodeRuntime},
		{"binary vanished", "", exec.ErrNotFound, errors.ErrCodeToolMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Classify("wg show wg9", tt.stderr, tt.err)
			if got := errors.CodeOf(err); got != tt.want {
				t.Errorf("Classify() code = %s, want %s (%v)", got, tt.want, err)
			}
		})
	}
}

func TestClassify_KeepsRawMessage(t *testing.T) {
	err := Classify("wg syncconf wg0 /tmp/x", "Line unrecognized", stderrors.New("exit status 1"))
	if got := errors.Message(err); got != "wg syncconf wg0 /tmp/x failed: Line unrecognized" {
		t.Errorf("Message() = %q", got)
	}
}

// writeScript installs an executable shell script named name in dir.
func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatalf("Failed to write script: %v", err)
	}
}

func newTestExec(t *testing.T) (*Exec, string) {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
	dir := t.TempDir()
	return NewExec([]string{dir}, 5*time.Second, nil), dir
}

func TestExec_GenerateKeyPair(t *testing.T) {
	e, dir := newTestExec(t)
	writeScript(t, dir, "wg", `case "$1" in
genkey) echo "PRIV" ;;
pubkey) read k; echo "PUB-of-$k" ;;
esac`)

	kp, err := e.GenerateKeyPair(context.Background())
	if err != nil {
		t.Fatalf("GenerateKeyPair() error = %v", err)
	}
	if kp.PrivateKey != "PRIV" || kp.PublicKey != "PUB-of-PRIV" {
		t.Errorf("GenerateKeyPair() = %+v", kp)
	}
}

func TestExec_SyncConfWarnings(t *testing.T) {
	e, dir := newTestExec(t)
	writeScript(t, dir, "wg", `echo "Warning: AllowedIP has nonzero host part" >&2; exit 0`)

	warnings, err := e.SyncConf(context.Background(), "wg0", "/tmp/wg0.conf")
	if err != nil {
		t.Fatalf("SyncConf() error = %v", err)
	}
	if len(warnings) != 1 || warnings[0] != "Warning: AllowedIP has nonzero host part" {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestExec_ShowClassifiesFailure(t *testing.T) {
	e, dir := newTestExec(t)
	writeScript(t, dir, "wg", `echo "Unable to access interface: No such device" >&2; exit 1`)

	_, err := e.Show(context.Background(), "wg9")
	if errors.CodeOf(err) != errors.ErrCodeNotFound {
		t.Errorf("Show() error = %v, want NOT_FOUND", err)
	}
}

func TestExec_MissingTool(t *testing.T) {
	e, _ := newTestExec(t)
	t.Setenv("PATH", t.TempDir())

	_, err := e.RestartService(context.Background(), "wg-quick@wg0")
	if errors.CodeOf(err) != errors.ErrCodeToolMissing {
		t.Errorf("RestartService() error = %v, want TOOL_MISSING", err)
	}
}

func TestExec_Timeout(t *testing.T) {
	e, dir := newTestExec(t)
	e.Timeout = 100 * time.Millisecond
	writeScript(t, dir, "wg-quick", `exec sleep 5`)

	_, err := e.QuickUp(context.Background(), "/tmp/wg0.conf")
	if errors.CodeOf(err) != errors.ErrCodeRuntime {
		t.Errorf("QuickUp() error = %v, want RUNTIME_FAILURE", err)
	}
}
