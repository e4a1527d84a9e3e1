package tests

import (
	"testing"

	"github.com/aretw0/fullform/pkg/ports"
)

// PayloadLoaderContractTest verifies that an adapter complies with ports.PayloadLoader.
// want maps fixture names to the session id and tree length they must decode to.
func PayloadLoaderContractTest(t *testing.T, loader ports.PayloadLoader, want map[string]Fixture) {
	t.Helper()

	t.Run("GetPayload_Success", func(t *testing.T) {
		for name, fx := range want {
			p, err := loader.GetPayload(name)
			if err != nil {
				t.Fatalf("unexpected error getting payload %s: %v", name, err)
			}
			if p.SessionID != fx.SessionID {
				t.Errorf("session id mismatch for %s. got %q, want %q", name, p.SessionID, fx.SessionID)
			}
			if len(p.Tree) != fx.Nodes {
				t.Errorf("tree size mismatch for %s. got %d, want %d", name, len(p.Tree), fx.Nodes)
			}
		}
	})

	t.Run("GetPayload_NotFound", func(t *testing.T) {
		if _, err := loader.GetPayload("non-existent-fixture"); err == nil {
			t.Error("expected error for non-existent fixture, got nil")
		}
	})

	t.Run("ListPayloads", func(t *testing.T) {
		names, err := loader.ListPayloads()
		if err != nil {
			t.Fatalf("unexpected error listing payloads: %v", err)
		}
		if len(names) != len(want) {
			t.Errorf("expected %d fixtures, got %d", len(want), len(names))
		}
		lookup := make(map[string]bool)
		for _, n := range names {
			lookup[n] = true
		}
		for name := range want {
			if !lookup[name] {
				t.Errorf("fixture %s missing from list", name)
			}
		}
	})
}

// Fixture describes the expected shape of a loaded payload.
type Fixture struct {
	SessionID string
	Nodes     int
}
