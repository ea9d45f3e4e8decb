package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Ramsey-B/squidly/pkg/models"
)

type memoryTxKey struct{}

type memoryRecord struct {
	Record
	trashed bool
}

// MemoryStore is an EntityStore held in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	txMu    sync.Mutex
	nextID  int64
	records map[int64]*memoryRecord
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: map[int64]*memoryRecord{},
		now:     time.Now,
	}
}

func (s *MemoryStore) CreateRecord(ctx context.Context, recordType models.RecordType, meta Meta) (int64, error) {
	if !recordType.Valid() {
		return 0, fmt.Errorf("unknown record type %q", recordType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := s.now().UTC()
	s.records[s.nextID] = &memoryRecord{Record: Record{
		ID:        s.nextID,
		Type:      recordType,
		Meta:      meta.Clone(),
		CreatedAt: now,
		UpdatedAt: now,
	}}

	return s.nextID, nil
}

func (s *MemoryStore) GetRecord(ctx context.Context, id int64) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok || rec.trashed {
		return nil, nil
	}
	return rec.copy(), nil
}

func (s *MemoryStore) UpdateMeta(ctx context.Context, id int64, key string, value any) error {
	raw, err := MarshalValue(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok || rec.trashed {
		return ErrRecordNotFound
	}
	rec.Meta[key] = append(json.RawMessage(nil), raw...)
	rec.UpdatedAt = s.now().UTC()

	return nil
}

func (s *MemoryStore) GetMeta(ctx context.Context, id int64, key string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok || rec.trashed {
		return nil, nil
	}
	value, ok := rec.Meta[key]
	if !ok {
		return nil, nil
	}
	return append(json.RawMessage(nil), value...), nil
}

func (s *MemoryStore) FindRecords(ctx context.Context, recordType models.RecordType, criteria Criteria, limit, offset int) ([]Record, error) {
	wanted := make(map[string]json.RawMessage, len(criteria))
	for key, value := range criteria {
		raw, err := MarshalValue(value)
		if err != nil {
			return nil, err
		}
		wanted[key] = raw
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := []Record{}
	for _, rec := range s.sorted(recordType) {
		if matchesCriteria(rec.Meta, wanted) {
			matches = append(matches, *rec.copy())
		}
	}

	return page(matches, limit, offset), nil
}

func (s *MemoryStore) QueryByMetaContains(ctx context.Context, recordType models.RecordType, key string, value any) ([]int64, error) {
	needle, err := MarshalValue(value)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := []int64{}
	for _, rec := range s.sorted(recordType) {
		var elements []json.RawMessage
		if err := json.Unmarshal(rec.Meta[key], &elements); err != nil {
			continue
		}
		for _, element := range elements {
			if jsonEqual(element, needle) {
				ids = append(ids, rec.ID)
				break
			}
		}
	}

	return ids, nil
}

func (s *MemoryStore) DeleteRecord(ctx context.Context, id int64, force bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return false, nil
	}
	if force {
		delete(s.records, id)
		return true, nil
	}
	if rec.trashed {
		return false, nil
	}
	rec.trashed = true
	return true, nil
}

// RunInTx serializes transactions and restores a snapshot when fn fails.
// Writes made outside a transaction while one is running are lost if it rolls back.
// AfterCommit hooks run before the next transaction may start.
func (s *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memoryTxKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	ctx, hooks := BeginCommitHooks(ctx)
	snapshot := s.snapshot()
	if err := fn(context.WithValue(ctx, memoryTxKey{}, true)); err != nil {
		s.mu.Lock()
		s.records, s.nextID = snapshot.records, snapshot.nextID
		s.mu.Unlock()
		return err
	}
	return hooks.Run(ctx)
}

type memorySnapshot struct {
	records map[int64]*memoryRecord
	nextID  int64
}

func (s *MemoryStore) snapshot() memorySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make(map[int64]*memoryRecord, len(s.records))
	for id, rec := range s.records {
		records[id] = &memoryRecord{Record: *rec.copy(), trashed: rec.trashed}
	}
	return memorySnapshot{records: records, nextID: s.nextID}
}

// sorted returns the live records of a type by id. Callers hold s.mu.
func (s *MemoryStore) sorted(recordType models.RecordType) []*memoryRecord {
	out := []*memoryRecord{}
	for _, rec := range s.records {
		if rec.Type == recordType && !rec.trashed {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memoryRecord) copy() *Record {
	rec := r.Record
	rec.Meta = r.Meta.Clone()
	return &rec
}

func matchesCriteria(meta Meta, wanted map[string]json.RawMessage) bool {
	for key, value := range wanted {
		if !jsonEqual(meta[key], value) {
			return false
		}
	}
	return true
}

// jsonEqual compares two JSON documents by value, so 5 and 5.0 or reordered keys match.
func jsonEqual(a, b json.RawMessage) bool {
	if bytes.Equal(a, b) {
		return true
	}
	var left, right any
	if json.Unmarshal(a, &left) != nil || json.Unmarshal(b, &right) != nil {
		return false
	}
	return fmt.Sprint(left) == fmt.Sprint(right)
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
