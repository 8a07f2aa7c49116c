package testfixtures

import (
	"testing"

	"github.com/example/temple-engagements/internal/persistence"
	"github.com/example/temple-engagements/internal/persistence/memory"
)

// MemoryHarness provides repository access backed by a fresh in-memory
// storage instance for persistence tests.
type MemoryHarness struct {
	Engagements persistence.EngagementRepository
	Storage     *memory.Storage

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *MemoryHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewMemoryHarness constructs a MemoryHarness. Callers may optionally invoke
// Close, but the helper also registers a cleanup callback with tb.
func NewMemoryHarness(tb testing.TB) *MemoryHarness {
	tb.Helper()

	storage := memory.Open()
	harness := &MemoryHarness{
		Engagements: storage,
		Storage:     storage,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
