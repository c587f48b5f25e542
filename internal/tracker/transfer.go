package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/sitepins/internal/localstore"
	"github.com/dmitrijs2005/sitepins/internal/models"
)

// ExportFilename builds the download name of an export taken at t.
func ExportFilename(t time.Time) string {
	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(models.FormatTime(t))
	return "pont_du_gard_points_" + stamp + ".json"
}

// Export saves the current state and returns the stored blob verbatim
// together with a timestamped file name.
func (t *Tracker) Export(ctx context.Context) (string, []byte, error) {
	if err := t.acquire(); err != nil {
		return "", nil, err
	}
	defer t.release()

	t.mu.Lock()
	err := t.persistLocked(ctx)
	now := t.now()
	t.mu.Unlock()
	if err != nil {
		return "", nil, fmt.Errorf("failed to save state before export: %w", err)
	}

	raw, err := t.store.ReadRaw(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read state for export: %w", err)
	}
	t.logger.Info(ctx, "state exported", "bytes", len(raw))
	return ExportFilename(now), raw, nil
}

// Import replaces the stored state with raw and reloads, which includes a
// fresh reconciliation with the remote store. raw must be a JSON object
// with a points array; nothing is written otherwise. Imported data is not
// pushed to the remote store.
func (t *Tracker) Import(ctx context.Context, raw []byte) error {
	if err := localstore.ValidateImport(raw); err != nil {
		t.metrics.ObserveOperation("import", err)
		return fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}

	t.gate.Lock()
	defer t.gate.Unlock()

	if !t.ready.Load() {
		t.metrics.ObserveOperation("import", ErrNotReady)
		return ErrNotReady
	}

	if err := t.store.WriteRaw(ctx, raw); err != nil {
		t.metrics.ObserveOperation("import", err)
		return fmt.Errorf("failed to store imported state: %w", err)
	}

	if err := t.reloadLocked(ctx); err != nil {
		t.metrics.ObserveOperation("import", err)
		return err
	}

	t.metrics.ObserveOperation("import", nil)
	return nil
}
