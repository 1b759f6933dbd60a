package gitport

import (
	"context"
	"fmt"
)

// mockCommandRunner is a scripted CommandRunner, grounded on the
// MockCommandRunner pattern visible at the call sites in the teacher's
// pkg/git/clone_test.go.
type mockCommandRunner struct {
	outputs map[string][]byte
	errs    map[string]error
	calls   []string
}

func newMockRunner() *mockCommandRunner {
	return &mockCommandRunner{outputs: map[string][]byte{}, errs: map[string]error{}}
}

func key(name string, args ...string) string {
	k := name
	for _, a := range args {
		k += " " + a
	}
	return k
}

func (m *mockCommandRunner) script(out string, args ...string) {
	m.outputs[key("git", args...)] = []byte(out)
}

func (m *mockCommandRunner) fail(err error, args ...string) {
	m.errs[key("git", args...)] = err
}

func (m *mockCommandRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	m.calls = append(m.calls, key(name, args...))
	if err, ok := m.errs[key(name, args...)]; ok {
		return err
	}
	return nil
}

func (m *mockCommandRunner) Output(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	m.calls = append(m.calls, key(name, args...))
	if err, ok := m.errs[key(name, args...)]; ok {
		return nil, err
	}
	if out, ok := m.outputs[key(name, args...)]; ok {
		return out, nil
	}
	return nil, fmt.Errorf("mockCommandRunner: no script for %q", key(name, args...))
}
