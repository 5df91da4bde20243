package mocks

import "github.com/wgfold/wgfold/internal/state"

// MockLinkProber is a mock implementation of the state.LinkProber interface.
//
// Links holds the simulated links; a name missing from it is reported as
// not found.
type MockLinkProber struct {
	ProbeFunc func(name string) (state.Link, bool, error)

	Links      map[string]state.Link
	ProbeCalls int
}

// NewMockLinkProber creates a prober that knows the given links.
func NewMockLinkProber(links ...state.Link) *MockLinkProber {
	m := &MockLinkProber{Links: make(map[string]state.Link)}
	for _, l := range links {
		m.Links[l.Name] = l
	}
	return m
}

// Probe looks name up in Links.
func (m *MockLinkProber) Probe(name string) (state.Link, bool, error) {
	m.ProbeCalls++
	if m.ProbeFunc != nil {
		return m.ProbeFunc(name)
	}
	l, ok := m.Links[name]
	return l, ok, nil
}
