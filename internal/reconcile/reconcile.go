// Package reconcile merges the remote collections into the locally loaded
// state at startup. Local data always wins: a remote document whose id is
// already known locally is ignored, and the id counter is moved past every
// id seen on either side.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sitepins/internal/logging"
	"github.com/dmitrijs2005/sitepins/internal/models"
	"github.com/dmitrijs2005/sitepins/internal/remotestore"
)

// Result summarises one merge.
type Result struct {
	AddedActive   int
	AddedResolved int
	// Skipped counts remote documents already present locally in the same
	// collection.
	Skipped int
	// Conflicts counts remote documents whose id is present locally in the
	// other collection.
	Conflicts int
	// Malformed counts remote documents that could not be decoded.
	Malformed int
	IDCounter int64
}

// Merge folds the remote records into local and returns the merged state.
// local is not modified.
func Merge(local models.Snapshot, remoteActive, remoteResolved []models.Record, now time.Time) (models.Snapshot, Result) {
	merged := local.Clone()
	var res Result

	maxID := merged.IDCounter
	if maxID < 1 {
		maxID = 1
	}
	if m := merged.MaxID(); m > maxID {
		maxID = m
	}

	active := make(map[int64]struct{}, len(merged.Active)+len(remoteActive))
	for _, p := range merged.Active {
		active[p.ID] = struct{}{}
	}
	resolved := make(map[int64]struct{}, len(merged.Resolved)+len(remoteResolved))
	for _, p := range merged.Resolved {
		resolved[p.ID] = struct{}{}
	}

	fold := func(recs []models.Record, isResolved bool, own, other map[int64]struct{}) []models.Point {
		var added []models.Point
		for _, r := range recs {
			id := int64(r.ID)
			if id > maxID {
				maxID = id
			}
			if _, ok := own[id]; ok {
				res.Skipped++
				continue
			}
			if _, ok := other[id]; ok {
				res.Conflicts++
				continue
			}
			p, err := r.ToPoint(now, isResolved)
			if err != nil {
				res.Malformed++
				continue
			}
			own[id] = struct{}{}
			added = append(added, p)
		}
		return added
	}

	addActive := fold(remoteActive, false, active, resolved)
	addResolved := fold(remoteResolved, true, resolved, active)

	merged.Active = append(merged.Active, addActive...)
	merged.Resolved = append(merged.Resolved, addResolved...)
	merged.IDCounter = maxID + 1

	res.AddedActive = len(addActive)
	res.AddedResolved = len(addResolved)
	res.IDCounter = merged.IDCounter
	return merged, res
}

// Reader is the read side of a remote store.
type Reader interface {
	ListAll(ctx context.Context, c remotestore.Collection) ([]models.Record, error)
}

type Reconciler struct {
	remote Reader
	logger logging.Logger
	now    func() time.Time
}

func New(remote Reader, logger logging.Logger) *Reconciler {
	return &Reconciler{remote: remote, logger: logger.With("module", "reconcile"), now: time.Now}
}

// Run reads both remote collections and merges them into local. When
// either read fails, nothing is merged and the error is returned together
// with local unchanged.
func (r *Reconciler) Run(ctx context.Context, local models.Snapshot) (models.Snapshot, Result, error) {
	remoteActive, err := r.remote.ListAll(ctx, remotestore.CollectionActive)
	if err != nil {
		return local, Result{}, fmt.Errorf("failed to read remote %s: %w", remotestore.CollectionActive, err)
	}
	remoteResolved, err := r.remote.ListAll(ctx, remotestore.CollectionResolved)
	if err != nil {
		return local, Result{}, fmt.Errorf("failed to read remote %s: %w", remotestore.CollectionResolved, err)
	}

	merged, res := Merge(local, remoteActive, remoteResolved, r.now())

	r.logger.Info(ctx, "remote state merged",
		"added_active", res.AddedActive,
		"added_resolved", res.AddedResolved,
		"skipped", res.Skipped,
		"conflicts", res.Conflicts,
		"malformed", res.Malformed,
		"counter", res.IDCounter,
	)
	if res.Conflicts > 0 {
		r.logger.Warn(ctx, "remote documents conflict with local state", "count", res.Conflicts)
	}
	return merged, res, nil
}
