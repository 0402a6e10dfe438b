package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kode4food/tartan/pkg/api"
	"github.com/kode4food/tartan/pkg/log"
)

type (
	// Store persists checkpoints keyed by project. Save and Delete succeed
	// only if the stored version equals expected, where zero means no
	// checkpoint is stored; otherwise they return api.ErrCheckpointConflict.
	// Load returns api.ErrCheckpointNotFound if nothing is stored
	Store interface {
		Load(context.Context, api.ProjectID) (*api.Checkpoint, error)
		Save(ctx context.Context, cp *api.Checkpoint, expected int64) error
		Delete(
			ctx context.Context, id api.ProjectID, expected int64,
		) error
	}

	// Manager saves, loads, and clears checkpoints on behalf of the
	// orchestrator
	Manager struct {
		store Store
		clock Clock
	}

	// Clock stamps saved checkpoints
	Clock func() time.Time
)

var ErrProjectIDEmpty = errors.New("checkpoint project ID empty")

// NewManager creates a Manager over the given Store
func NewManager(store Store, clock Clock) *Manager {
	if clock == nil {
		clock = time.Now
	}
	return &Manager{
		store: store,
		clock: clock,
	}
}

// Load returns the project's checkpoint
func (m *Manager) Load(
	ctx context.Context, projectID api.ProjectID,
) (*api.Checkpoint, error) {
	return m.store.Load(ctx, projectID)
}

// Save stores the checkpoint if nobody else has written the project's
// checkpoint since cp.Version was read. On success the checkpoint's
// Timestamp and Version are updated in place
func (m *Manager) Save(ctx context.Context, cp *api.Checkpoint) error {
	if cp.ProjectID == "" {
		return ErrProjectIDEmpty
	}

	expected := cp.Version
	next := cp.Clone()
	next.Timestamp = m.clock()
	next.Version = expected + 1

	if err := m.store.Save(ctx, next, expected); err != nil {
		if errors.Is(err, api.ErrCheckpointConflict) {
			slog.Warn("Checkpoint conflict",
				log.ProjectID(cp.ProjectID),
				slog.Int64("expected_version", expected))
		}
		return err
	}

	cp.Timestamp = next.Timestamp
	cp.Version = next.Version
	return nil
}

// Clear removes the checkpoint if it is still at cp.Version
func (m *Manager) Clear(ctx context.Context, cp *api.Checkpoint) error {
	if err := m.store.Delete(ctx, cp.ProjectID, cp.Version); err != nil {
		return fmt.Errorf("clear checkpoint: %w", err)
	}
	return nil
}
