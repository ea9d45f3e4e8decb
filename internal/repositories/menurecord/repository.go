// Package menurecord is the postgres implementation of the entity store.
package menurecord

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/squidly/pkg/database"
	"github.com/Ramsey-B/squidly/pkg/metrics"
	"github.com/Ramsey-B/squidly/pkg/models"
	"github.com/Ramsey-B/squidly/pkg/store"
	"github.com/Ramsey-B/squidly/pkg/tracing"
)

// Repository stores menu records as rows of menu_records with a jsonb meta column.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

var _ store.EntityStore = (*Repository)(nil)

// NewRepository creates a new menu record repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateRecord(ctx context.Context, recordType models.RecordType, meta store.Meta) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "MenuRecordRepository.CreateRecord")
	defer span.End()
	defer metrics.ObserveStoreOperation("create", time.Now())

	if meta == nil {
		meta = store.Meta{}
	}

	now := time.Now().UTC()
	ib := database.NewInsertBuilder()
	ib.InsertInto(tableName)
	ib.Cols("record_type", "meta", "created_at", "updated_at")
	ib.Values(string(recordType), database.NewJSONB(meta), now, now)
	ib.Returning("id")

	query, args := ib.Build()

	var id int64
	if err := r.db.Conn(ctx).GetContext(ctx, &id, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to create menu record")
		return 0, fmt.Errorf("failed to create %s record: %w", recordType, err)
	}

	tracing.SetRecord(span, string(recordType), id)
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":          id,
		"record_type": recordType,
	}).Debug("created menu record")

	return id, nil
}

func (r *Repository) GetRecord(ctx context.Context, id int64) (*store.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "MenuRecordRepository.GetRecord")
	defer span.End()
	defer metrics.ObserveStoreOperation("get", time.Now())

	sb := database.NewSelectBuilder()
	sb.Select(recordColumns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("id", id),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var row recordRow
	err := r.db.Conn(ctx).GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get menu record")
		return nil, fmt.Errorf("failed to get record %d: %w", id, err)
	}

	rec := row.toRecord()
	return &rec, nil
}

func (r *Repository) UpdateMeta(ctx context.Context, id int64, key string, value any) error {
	ctx, span := tracing.StartSpan(ctx, "MenuRecordRepository.UpdateMeta")
	defer span.End()
	defer metrics.ObserveStoreOperation("update_meta", time.Now())

	raw, err := store.MarshalValue(value)
	if err != nil {
		return err
	}

	ub := database.NewUpdateBuilder()
	ub.Update(tableName)
	ub.Set(
		database.JSONBSet(ub, "meta", key, raw),
		ub.Assign("updated_at", time.Now().UTC()),
	)
	ub.Where(
		ub.Equal("id", id),
		ub.IsNull("deleted_at"),
	)

	query, args := ub.Build()

	result, err := r.db.Conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("key", key).Error("failed to update menu record meta")
		return fmt.Errorf("failed to update %s of record %d: %w", key, id, err)
	}

	return requireAffected(result, id)
}

func (r *Repository) GetMeta(ctx context.Context, id int64, key string) (json.RawMessage, error) {
	ctx, span := tracing.StartSpan(ctx, "MenuRecordRepository.GetMeta")
	defer span.End()
	defer metrics.ObserveStoreOperation("get_meta", time.Now())

	sb := database.NewSelectBuilder()
	sb.Select(database.JSONBField(sb, "meta", key))
	sb.From(tableName)
	sb.Where(
		sb.Equal("id", id),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var raw []byte
	err := r.db.Conn(ctx).GetContext(ctx, &raw, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get %s of record %d: %w", key, id, err)
	}
	if raw == nil {
		return nil, nil
	}

	return json.RawMessage(raw), nil
}

func (r *Repository) FindRecords(ctx context.Context, recordType models.RecordType, criteria store.Criteria, limit, offset int) ([]store.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "MenuRecordRepository.FindRecords")
	defer span.End()
	defer metrics.ObserveStoreOperation("find", time.Now())

	sb := database.NewSelectBuilder()
	sb.Select(recordColumns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("record_type", string(recordType)),
		sb.IsNull("deleted_at"),
	)
	if len(criteria) > 0 {
		document, err := json.Marshal(criteria)
		if err != nil {
			return nil, fmt.Errorf("failed to encode criteria: %w", err)
		}
		sb.Where(database.JSONBContains(sb, "meta", document))
	}
	sb.OrderBy("id").Asc()
	if limit > 0 {
		sb.Limit(limit)
	}
	if offset > 0 {
		sb.Offset(offset)
	}

	return r.selectRecords(ctx, sb)
}

func (r *Repository) QueryByMetaContains(ctx context.Context, recordType models.RecordType, key string, value any) ([]int64, error) {
	ctx, span := tracing.StartSpan(ctx, "MenuRecordRepository.QueryByMetaContains")
	defer span.End()
	defer metrics.ObserveStoreOperation("query_contains", time.Now())

	needle, err := store.MarshalValue(value)
	if err != nil {
		return nil, err
	}
	document := append(append([]byte("["), needle...), ']')

	sb := database.NewSelectBuilder()
	sb.Select("id")
	sb.From(tableName)
	sb.Where(
		sb.Equal("record_type", string(recordType)),
		sb.IsNull("deleted_at"),
		database.JSONBContains(sb, fmt.Sprintf("(%s)", database.JSONBField(sb, "meta", key)), document),
	)
	sb.OrderBy("id").Asc()

	query, args := sb.Build()

	ids := []int64{}
	if err := r.db.Conn(ctx).SelectContext(ctx, &ids, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("key", key).Error("failed to query menu records by containment")
		return nil, fmt.Errorf("failed to query %s records by %s: %w", recordType, key, err)
	}

	return ids, nil
}

func (r *Repository) DeleteRecord(ctx context.Context, id int64, force bool) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "MenuRecordRepository.DeleteRecord")
	defer span.End()
	defer metrics.ObserveStoreOperation("delete", time.Now())

	var query string
	var args []any
	if force {
		db := database.NewDeleteBuilder()
		db.DeleteFrom(tableName)
		db.Where(db.Equal("id", id))
		query, args = db.Build()
	} else {
		ub := database.NewUpdateBuilder()
		ub.Update(tableName)
		ub.Set(ub.Assign("deleted_at", time.Now().UTC()))
		ub.Where(
			ub.Equal("id", id),
			ub.IsNull("deleted_at"),
		)
		query, args = ub.Build()
	}

	result, err := r.db.Conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete menu record")
		return false, fmt.Errorf("failed to delete record %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete record %d: %w", id, err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":    id,
		"force": force,
	}).Debug("deleted menu record")

	return affected > 0, nil
}

// RunInTx joins the transaction on ctx or begins one. AfterCommit hooks run
// once the outermost scope has committed.
func (r *Repository) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, hooks := store.BeginCommitHooks(ctx)
	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(ctx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			r.logger.WithContext(ctx).WithError(rbErr).Error("failed to roll back menu transaction")
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	return hooks.Run(ctx)
}

func (r *Repository) selectRecords(ctx context.Context, sb *sqlbuilder.SelectBuilder) ([]store.Record, error) {
	query, args := sb.Build()

	var rows []recordRow
	if err := r.db.Conn(ctx).SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list menu records")
		return nil, fmt.Errorf("failed to list menu records: %w", err)
	}

	records := make([]store.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}

func requireAffected(result sql.Result, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for record %d: %w", id, err)
	}
	if affected == 0 {
		return store.ErrRecordNotFound
	}
	return nil
}
