package helpers

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/kode4food/tartan/internal/client"
	"github.com/kode4food/tartan/pkg/api"
)

type (
	// MockRunner is a scripted client.Runner keyed by execution code
	MockRunner struct {
		responses map[api.ExecutionCode]json.RawMessage
		errors    map[api.ExecutionCode]error
		failures  map[api.ExecutionCode]int
		blocks    map[api.ExecutionCode]chan struct{}
		invoked   []*Invocation
		mu        sync.Mutex
	}

	// Invocation records one call made to a MockRunner
	Invocation struct {
		Inputs api.Args
		Code   api.ExecutionCode
	}
)

var _ client.Runner = (*MockRunner)(nil)

// NewMockRunner creates a mock that answers every code with an empty
// successful result until told otherwise
func NewMockRunner() *MockRunner {
	return &MockRunner{
		responses: map[api.ExecutionCode]json.RawMessage{},
		errors:    map[api.ExecutionCode]error{},
		failures:  map[api.ExecutionCode]int{},
		blocks:    map[api.ExecutionCode]chan struct{}{},
	}
}

// Invoke records the invocation and returns the configured outcome
func (m *MockRunner) Invoke(
	ctx context.Context, code api.ExecutionCode, inputs api.Args,
) (*api.UnitResult, error) {
	m.mu.Lock()
	m.invoked = append(m.invoked, &Invocation{Code: code, Inputs: inputs})
	block := m.blocks[code]
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.errors[code]; ok {
		return nil, err
	}
	if n := m.failures[code]; n > 0 {
		m.failures[code] = n - 1
		return nil, fmt.Errorf("%w: scripted failure of %s",
			client.ErrUnitUnsuccessful, code)
	}
	return &api.UnitResult{
		Result:      m.responses[code],
		ExecutionID: fmt.Sprintf("%s-%d", code, len(m.invoked)),
	}, nil
}

// SetResponse configures the JSON result returned for a code
func (m *MockRunner) SetResponse(code api.ExecutionCode, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[code] = json.RawMessage(result)
}

// SetError makes every invocation of a code fail with err
func (m *MockRunner) SetError(code api.ExecutionCode, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[code] = err
}

// ClearError removes any configured error for a code
func (m *MockRunner) ClearError(code api.ExecutionCode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.errors, code)
}

// SetFailures makes the next n invocations of a code fail
func (m *MockRunner) SetFailures(code api.ExecutionCode, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[code] = n
}

// Block holds invocations of a code until the returned function is called
func (m *MockRunner) Block(code api.ExecutionCode) func() {
	ch := make(chan struct{})
	m.mu.Lock()
	m.blocks[code] = ch
	m.mu.Unlock()
	return sync.OnceFunc(func() { close(ch) })
}

// GetInvocations returns the invoked codes in call order
func (m *MockRunner) GetInvocations() []api.ExecutionCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := make([]api.ExecutionCode, len(m.invoked))
	for i, inv := range m.invoked {
		res[i] = inv.Code
	}
	return res
}

// InvocationsOf returns every recorded invocation of a code
func (m *MockRunner) InvocationsOf(code api.ExecutionCode) []*Invocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []*Invocation
	for _, inv := range m.invoked {
		if inv.Code == code {
			res = append(res, inv)
		}
	}
	return res
}

// WasInvoked returns whether a code was invoked at least once
func (m *MockRunner) WasInvoked(code api.ExecutionCode) bool {
	return slices.Contains(m.GetInvocations(), code)
}

// Reset forgets recorded invocations
func (m *MockRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invoked = nil
}
