// Package wgtool runs the external WireGuard tooling (wg, wg-quick,
// systemctl) and turns their failures into coded errors.
package wgtool

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/wgfold/wgfold/internal/errors"
	"github.com/wgfold/wgfold/internal/log"
	"github.com/wgfold/wgfold/internal/metrics"
)

// DefaultSearchPaths are tried, in order, before $PATH.
var DefaultSearchPaths = []string{"/usr/bin", "/usr/sbin", "/bin", "/sbin"}

// DefaultTimeout bounds every command when Exec.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// KeyPair is a base64 private key and the public key derived from it.
type KeyPair struct {
	PrivateKey string `json:"private_key"`
	PublicKey  string `json:"public_key"`
}

// Tool is the set of external operations the rest of the program needs.
// Methods that change live state return stderr lines of a successful run
// as warnings.
type Tool interface {
	GenerateKeyPair(ctx context.Context) (KeyPair, error)
	PublicKey(ctx context.Context, privateKey string) (string, error)
	GeneratePresharedKey(ctx context.Context) (string, error)
	Show(ctx context.Context, iface string) (string, error)
	SyncConf(ctx context.Context, iface, path string) ([]string, error)
	QuickUp(ctx context.Context, path string) ([]string, error)
	RestartService(ctx context.Context, unit string) ([]string, error)
}

// Exec implements Tool with os/exec.
type Exec struct {
	// SearchPaths overrides DefaultSearchPaths when non-empty.
	SearchPaths []string
	Timeout     time.Duration
	Metrics     *metrics.Metrics
}

// NewExec creates an Exec with the given search paths and timeout.
func NewExec(searchPaths []string, timeout time.Duration, m *metrics.Metrics) *Exec {
	return &Exec{SearchPaths: searchPaths, Timeout: timeout, Metrics: m}
}

// Lookup finds command in the search paths, then in $PATH.
func (e *Exec) Lookup(command string) (string, error) {
	paths := e.SearchPaths
	if len(paths) == 0 {
		paths = DefaultSearchPaths
	}
	for _, dir := range paths {
		candidate := filepath.Join(dir, command)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() && info.Mode()&0111 != 0 {
			return candidate, nil
		}
	}
	path, err := exec.LookPath(command)
	if err != nil {
		return "", errors.NewToolMissingError(command, err)
	}
	return path, nil
}

type output struct {
	stdout string
	stderr string
}

func (o output) warnings() []string {
	var out []string
	for _, line := range strings.Split(o.stderr, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func (e *Exec) run(ctx context.Context, stdin string, command string, args ...string) (output, error) {
	started := time.Now()
	out, err := e.runCommand(ctx, stdin, command, args...)
	e.Metrics.ObserveCommand(command, started, err)
	return out, err
}

func (e *Exec) runCommand(ctx context.Context, stdin string, command string, args ...string) (output, error) {
	path, err := e.Lookup(command)
	if err != nil {
		return output{}, err
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	line := command + " " + strings.Join(args, " ")
	log.Debugf("[wgtool] Running %s", line)

	err = cmd.Run()
	out := output{stdout: stdout.String(), stderr: stderr.String()}
	if err == nil {
		return out, nil
	}
	if ctx.Err() == context.DeadlineExceeded {
		return out, errors.NewRuntimeError(fmt.Sprintf("%s timed out after %s", line, timeout), ctx.Err())
	}
	return out, Classify(line, out.stderr, err)
}

// Classify maps a failed command to a coded error by looking at its
// stderr: missing objects become NotFound, privilege problems become
// PermissionDenied and anything else is a RuntimeFailure carrying the raw
// message.
func Classify(commandLine, stderr string, err error) error {
	if stderrors.Is(err, exec.ErrNotFound) || stderrors.Is(err, fs.ErrNotExist) {
		command, _, _ := strings.Cut(commandLine, " ")
		return errors.NewToolMissingError(command, err)
	}
	if stderrors.Is(err, fs.ErrPermission) {
		return errors.NewPermissionError("executing "+commandLine, err)
	}

	msg := strings.TrimSpace(stderr)
	if msg == "" {
		msg = err.Error()
	}
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "permission denied"), strings.Contains(lower, "operation not permitted"):
		return errors.NewPermissionError("executing "+commandLine, stderrors.New(msg))
	case strings.Contains(lower, "not found"), strings.Contains(lower, "no such device"), strings.Contains(lower, "does not exist"):
		return errors.Wrap(errors.ErrCodeNotFound, commandLine+" failed", stderrors.New(msg))
	default:
		return errors.NewRuntimeError(commandLine+" failed", stderrors.New(msg))
	}
}

// GenerateKeyPair runs wg genkey and derives the public key with wg pubkey.
func (e *Exec) GenerateKeyPair(ctx context.Context) (KeyPair, error) {
	out, err := e.run(ctx, "", "wg", "genkey")
	if err != nil {
		return KeyPair{}, err
	}
	private := strings.TrimSpace(out.stdout)
	public, err := e.PublicKey(ctx, private)
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{PrivateKey: private, PublicKey: public}, nil
}

// PublicKey derives a public key by feeding privateKey to wg pubkey.
func (e *Exec) PublicKey(ctx context.Context, privateKey string) (string, error) {
	out, err := e.run(ctx, privateKey+"\n", "wg", "pubkey")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out.stdout), nil
}

// GeneratePresharedKey runs wg genpsk.
func (e *Exec) GeneratePresharedKey(ctx context.Context) (string, error) {
	out, err := e.run(ctx, "", "wg", "genpsk")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out.stdout), nil
}

// Show returns the text output of wg show for iface.
func (e *Exec) Show(ctx context.Context, iface string) (string, error) {
	out, err := e.run(ctx, "", "wg", "show", iface)
	if err != nil {
		return "", err
	}
	return out.stdout, nil
}

// SyncConf pushes the config at path to the running iface.
func (e *Exec) SyncConf(ctx context.Context, iface, path string) ([]string, error) {
	out, err := e.run(ctx, "", "wg", "syncconf", iface, path)
	if err != nil {
		return nil, err
	}
	return out.warnings(), nil
}

// QuickUp brings up the interface described by the config at path.
func (e *Exec) QuickUp(ctx context.Context, path string) ([]string, error) {
	out, err := e.run(ctx, "", "wg-quick", "up", path)
	if err != nil {
		return nil, err
	}
	return out.warnings(), nil
}

// RestartService restarts a systemd unit.
func (e *Exec) RestartService(ctx context.Context, unit string) ([]string, error) {
	out, err := e.run(ctx, "", "systemctl", "restart", unit)
	if err != nil {
		return nil, err
	}
	return out.warnings(), nil
}
