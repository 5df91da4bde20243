package mocks

import (
	"context"
	"os"
	"sync"

	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"

	"github.com/wgfold/wgfold/internal/errors"
	"github.com/wgfold/wgfold/internal/wgtool"
)

// MockTool is a mock implementation of the wgtool.Tool interface.
//
// By default keys are real Curve25519 keys produced by wgtypes, Show
// reports the device as missing and every state-changing call succeeds.
// Counters are guarded by a mutex so the mock can be shared between
// goroutines.
//
// Example usage:
//
//	tool := &MockTool{
//	    SyncConfFunc: func(ctx context.Context, iface, path string) ([]string, error) {
//	        return nil, errors.NotFoundf("Unable to modify interface: No such device")
//	    },
//	}
type MockTool struct {
	GenerateKeyPairFunc      func(ctx context.Context) (wgtool.KeyPair, error)
	PublicKeyFunc            func(ctx context.Context, privateKey string) (string, error)
	GeneratePresharedKeyFunc func(ctx context.Context) (string, error)
	ShowFunc                 func(ctx context.Context, iface string) (string, error)
	SyncConfFunc             func(ctx context.Context, iface, path string) ([]string, error)
	QuickUpFunc              func(ctx context.Context, path string) ([]string, error)
	RestartServiceFunc       func(ctx context.Context, unit string) ([]string, error)

	mu sync.Mutex

	GenerateKeyPairCalls int
	ShowCalls            int
	SyncConfCalls        int
	QuickUpCalls         int
	RestartServiceCalls  int

	// SyncedPaths and SyncedContents record each SyncConf argument and the
	// file content at call time.
	SyncedPaths    []string
	SyncedContents []string
	// RestartedUnits records each RestartService argument.
	RestartedUnits []string
}

// NewMockTool creates a mock tool with default behaviour.
func NewMockTool() *MockTool {
	return &MockTool{}
}

func (m *MockTool) count(counter *int) {
	m.mu.Lock()
	*counter++
	m.mu.Unlock()
}

// Calls returns a snapshot of the SyncConf, QuickUp and RestartService counters.
func (m *MockTool) Calls() (syncConf, quickUp, restart int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SyncConfCalls, m.QuickUpCalls, m.RestartServiceCalls
}

// GenerateKeyPair returns a fresh random key pair.
func (m *MockTool) GenerateKeyPair(ctx context.Context) (wgtool.KeyPair, error) {
	m.count(&m.GenerateKeyPairCalls)
	if m.GenerateKeyPairFunc != nil {
		return m.GenerateKeyPairFunc(ctx)
	}
	priv, err := wgtypes.GeneratePrivateKey()
	if err != nil {
		return wgtool.KeyPair{}, err
	}
	return wgtool.KeyPair{PrivateKey: priv.String(), PublicKey: priv.PublicKey().String()}, nil
}

// PublicKey derives the real public key of privateKey.
func (m *MockTool) PublicKey(ctx context.Context, privateKey string) (string, error) {
	if m.PublicKeyFunc != nil {
		return m.PublicKeyFunc(ctx, privateKey)
	}
	key, err := wgtypes.ParseKey(privateKey)
	if err != nil {
		return "", errors.NewRuntimeError("wg pubkey failed", err)
	}
	return key.PublicKey().String(), nil
}

// GeneratePresharedKey returns a fresh random key.
func (m *MockTool) GeneratePresharedKey(ctx context.Context) (string, error) {
	if m.GeneratePresharedKeyFunc != nil {
		return m.GeneratePresharedKeyFunc(ctx)
	}
	key, err := wgtypes.GenerateKey()
	if err != nil {
		return "", err
	}
	return key.String(), nil
}

// Show reports the device as missing unless ShowFunc is set.
func (m *MockTool) Show(ctx context.Context, iface string) (string, error) {
	m.count(&m.ShowCalls)
	if m.ShowFunc != nil {
		return m.ShowFunc(ctx, iface)
	}
	return "", errors.NotFoundf("Unable to access interface: No such device")
}

// SyncConf records the call and succeeds unless SyncConfFunc is set.
func (m *MockTool) SyncConf(ctx context.Context, iface, path string) ([]string, error) {
	content, _ := os.ReadFile(path)
	m.mu.Lock()
	m.SyncConfCalls++
	m.SyncedPaths = append(m.SyncedPaths, path)
	m.SyncedContents = append(m.SyncedContents, string(content))
	m.mu.Unlock()

	if m.SyncConfFunc != nil {
		return m.SyncConfFunc(ctx, iface, path)
	}
	return nil, nil
}

// QuickUp succeeds unless QuickUpFunc is set.
func (m *MockTool) QuickUp(ctx context.Context, path string) ([]string, error) {
	m.count(&m.QuickUpCalls)
	if m.QuickUpFunc != nil {
		return m.QuickUpFunc(ctx, path)
	}
	return nil, nil
}

// RestartService records the unit and succeeds unless RestartServiceFunc is set.
func (m *MockTool) RestartService(ctx context.Context, unit string) ([]string, error) {
	m.mu.Lock()
	m.RestartServiceCalls++
	m.RestartedUnits = append(m.RestartedUnits, unit)
	m.mu.Unlock()

	if m.RestartServiceFunc != nil {
		return m.RestartServiceFunc(ctx, unit)
	}
	return nil, nil
}
