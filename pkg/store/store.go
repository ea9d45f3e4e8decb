// Package store defines the entity store the menu core persists through.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Ramsey-B/squidly/pkg/models"
)

// ErrRecordNotFound is returned by writes that target a missing or trashed record.
var ErrRecordNotFound = errors.New("record not found")

// Meta holds a record's attributes as raw JSON values keyed by attribute name.
type Meta map[string]json.RawMessage

// Criteria matches records whose attributes equal the given values.
type Criteria map[string]any

type Record struct {
	ID        int64             `db:"id"`
	Type      models.RecordType `db:"record_type"`
	Meta      Meta              `db:"-"`
	CreatedAt time.Time         `db:"created_at"`
	UpdatedAt time.Time         `db:"updated_at"`
}

// EntityStore persists typed records with JSON attributes.
type EntityStore interface {
	CreateRecord(ctx context.Context, recordType models.RecordType, meta Meta) (int64, error)
	// GetRecord returns nil when the record does not exist or is trashed.
	GetRecord(ctx context.Context, id int64) (*Record, error)
	UpdateMeta(ctx context.Context, id int64, key string, value any) error
	// GetMeta returns nil when the record or the key is missing.
	GetMeta(ctx context.Context, id int64, key string) (json.RawMessage, error)
	// FindRecords lists live records of a type in id order. limit <= 0 means no limit.
	FindRecords(ctx context.Context, recordType models.RecordType, criteria Criteria, limit, offset int) ([]Record, error)
	// QueryByMetaContains returns the ids of records whose array attribute key contains value.
	QueryByMetaContains(ctx context.Context, recordType models.RecordType, key string, value any) ([]int64, error)
	// DeleteRecord trashes the record, or removes it for good when force is set.
	DeleteRecord(ctx context.Context, id int64, force bool) (bool, error)
	// RunInTx runs fn so that its writes are applied together or not at all.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EncodeMeta turns a model into record attributes. The id is kept out of the attributes.
func EncodeMeta(v any) (Meta, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record attributes: %w", err)
	}

	var meta Meta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("failed to encode record attributes: %w", err)
	}
	delete(meta, "id")

	return meta, nil
}

// Decode fills v from the attributes.
func (m Meta) Decode(v any) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// String returns a string attribute, or "" when it is missing or not a string.
func (m Meta) String(key string) string {
	var value string
	if raw, ok := m[key]; ok {
		_ = json.Unmarshal(raw, &value)
	}
	return value
}

// Int64s returns an integer list attribute.
func (m Meta) Int64s(key string) ([]int64, error) {
	raw, ok := m[key]
	if !ok || string(raw) == "null" {
		return nil, nil
	}
	var values []int64
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("attribute %s is not an id list: %w", key, err)
	}
	return values, nil
}

// Clone returns a copy that shares no memory with m.
func (m Meta) Clone() Meta {
	clone := make(Meta, len(m))
	for key, value := range m {
		clone[key] = append(json.RawMessage(nil), value...)
	}
	return clone
}

// Decode fills v from the record attributes. Models keep their id under "id".
func (r *Record) Decode(v any) error {
	meta := r.Meta.Clone()
	meta["id"] = json.RawMessage(fmt.Sprintf("%d", r.ID))
	if err := meta.Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s #%d: %w", r.Type, r.ID, err)
	}
	return nil
}

// MarshalValue encodes a single attribute value.
func MarshalValue(value any) (json.RawMessage, error) {
	if raw, ok := value.(json.RawMessage); ok {
		return raw, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode attribute value: %w", err)
	}
	return raw, nil
}
