// Package repositories holds the record lifecycle shared by the menu entity repositories.
package repositories

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/squidly/pkg/dependency"
	"github.com/Ramsey-B/squidly/pkg/events"
	"github.com/Ramsey-B/squidly/pkg/metrics"
	"github.com/Ramsey-B/squidly/pkg/models"
	"github.com/Ramsey-B/squidly/pkg/references"
	"github.com/Ramsey-B/squidly/pkg/store"
)

// Deps are the collaborators every entity repository is built from.
type Deps struct {
	Store   store.EntityStore
	Tracker references.Tracker
	Guard   *dependency.Guard
	Events  *events.Emitter
	Logger  ectologger.Logger
}

// Change sets one attribute during a partial update.
type Change struct {
	Key   string
	Value any
}

// Records persists one record type as T. refsOf reports the outgoing references
// of a record and is nil for types that reference nothing.
type Records[T any] struct {
	recordType models.RecordType
	deps       Deps
	refsOf     func(*T) []models.Ref
}

func NewRecords[T any](recordType models.RecordType, deps Deps, refsOf func(*T) []models.Ref) *Records[T] {
	if deps.Tracker == nil {
		deps.Tracker = references.Noop{}
	}
	return &Records[T]{
		recordType: recordType,
		deps:       deps,
		refsOf:     refsOf,
	}
}

func (r *Records[T]) ref(id int64) models.Ref {
	return models.NewRef(r.recordType, id)
}

// Create stores v. Its references are tracked once the transaction commits.
func (r *Records[T]) Create(ctx context.Context, v *T) (int64, error) {
	meta, err := store.EncodeMeta(v)
	if err != nil {
		return 0, err
	}

	var id int64
	err = r.deps.Store.RunInTx(ctx, func(ctx context.Context) error {
		created, err := r.deps.Store.CreateRecord(ctx, r.recordType, meta)
		if err != nil {
			return err
		}
		id = created
		if r.refsOf == nil {
			return nil
		}
		refs := r.refsOf(v)
		return store.AfterCommit(ctx, func(ctx context.Context) error {
			return r.deps.Tracker.Track(ctx, r.ref(id), refs)
		})
	})
	if err != nil {
		r.deps.Logger.WithContext(ctx).WithError(err).Errorf("failed to create %s", r.recordType)
		return 0, fmt.Errorf("failed to create %s: %w", r.recordType, err)
	}

	r.deps.Logger.WithContext(ctx).WithFields(map[string]any{
		"record_type": r.recordType,
		"record_id":   id,
	}).Info("created menu record")
	r.deps.Events.RecordCreated(ctx, r.ref(id), meta)

	return id, nil
}

// Get returns nil when id is absent, trashed or of another type.
func (r *Records[T]) Get(ctx context.Context, id int64) (*T, error) {
	rec, err := r.deps.Store.GetRecord(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", r.ref(id), err)
	}
	if rec == nil || rec.Type != r.recordType {
		return nil, nil
	}
	return decode[T](rec)
}

// Update applies changes in order and re-tracks references after commit. It reports false
// when id is not a live record of this type.
func (r *Records[T]) Update(ctx context.Context, id int64, changes []Change) (bool, error) {
	var updated *T
	err := r.deps.Store.RunInTx(ctx, func(ctx context.Context) error {
		current, err := r.Get(ctx, id)
		if err != nil || current == nil {
			return err
		}
		for _, change := range changes {
			if err := r.deps.Store.UpdateMeta(ctx, id, change.Key, change.Value); err != nil {
				return fmt.Errorf("failed to set %s: %w", change.Key, err)
			}
		}
		if updated, err = r.Get(ctx, id); err != nil {
			return err
		}
		if r.refsOf == nil || updated == nil {
			return nil
		}
		refs := r.refsOf(updated)
		return store.AfterCommit(ctx, func(ctx context.Context) error {
			return r.deps.Tracker.Track(ctx, r.ref(id), refs)
		})
	})
	if err != nil {
		r.deps.Logger.WithContext(ctx).WithError(err).Errorf("failed to update %s", r.ref(id))
		return false, fmt.Errorf("failed to update %s: %w", r.ref(id), err)
	}
	if updated == nil {
		return false, nil
	}

	if len(changes) > 0 {
		r.deps.Logger.WithContext(ctx).WithFields(map[string]any{
			"record_type": r.recordType,
			"record_id":   id,
			"changes":     len(changes),
		}).Info("updated menu record")
		r.deps.Events.RecordUpdated(ctx, r.ref(id), updated)
	}

	return true, nil
}

// Delete removes id unless something still references it. name labels the
// record in the ResourceInUse error. force skips the guard and purges the record.
func (r *Records[T]) Delete(ctx context.Context, id int64, name func(*T) string, force bool) (bool, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if current == nil {
		metrics.RecordDeletion(string(r.recordType), metrics.OutcomeNotFound)
		return false, nil
	}

	log := r.deps.Logger.WithContext(ctx).WithFields(map[string]any{
		"record_type": r.recordType,
		"record_id":   id,
		"force":       force,
	})

	if !force && r.deps.Guard != nil {
		if err := r.deps.Guard.EnsureDeletable(ctx, r.ref(id), name(current)); err != nil {
			metrics.RecordDeletion(string(r.recordType), metrics.OutcomeBlocked)
			log.WithError(err).Info("delete blocked by dependants")
			return false, err
		}
	}

	var deleted bool
	err = r.deps.Store.RunInTx(ctx, func(ctx context.Context) error {
		if deleted, err = r.deps.Store.DeleteRecord(ctx, id, force); err != nil || !deleted {
			return err
		}
		return store.AfterCommit(ctx, func(ctx context.Context) error {
			return r.deps.Tracker.Forget(ctx, r.ref(id))
		})
	})
	if err != nil {
		log.WithError(err).Error("failed to delete menu record")
		return false, fmt.Errorf("failed to delete %s: %w", r.ref(id), err)
	}
	if !deleted {
		metrics.RecordDeletion(string(r.recordType), metrics.OutcomeNotFound)
		return false, nil
	}

	metrics.RecordDeletion(string(r.recordType), metrics.OutcomeDeleted)
	log.Info("deleted menu record")
	r.deps.Events.RecordDeleted(ctx, r.ref(id), force)

	return true, nil
}

// Find lists live records matching criteria. limit <= 0 means no limit.
func (r *Records[T]) Find(ctx context.Context, criteria store.Criteria, limit, offset int) ([]T, error) {
	records, err := r.deps.Store.FindRecords(ctx, r.recordType, criteria, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s records: %w", r.recordType, err)
	}

	items := make([]T, 0, len(records))
	for i := range records {
		item, err := decode[T](&records[i])
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

func decode[T any](rec *store.Record) (*T, error) {
	var v T
	if err := rec.Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// NonNil keeps empty lists as [] in the stored attributes so containment
// queries always see an array.
func NonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
