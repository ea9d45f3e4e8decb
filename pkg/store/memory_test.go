package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/squidly/pkg/models"
)

func mustMeta(t *testing.T, v any) Meta {
	t.Helper()
	meta, err := EncodeMeta(v)
	require.NoError(t, err)
	return meta
}

func TestMemoryStore_CreateGetDecode(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	id, err := s.CreateRecord(ctx, models.RecordTypeProductGroup, mustMeta(t, models.ProductGroup{
		ID:           999,
		Name:         "Toppings",
		Type:         models.ItemKindIngredient,
		GroupItemIDs: []int64{4, 5},
	}))
	require.NoError(t, err)

	rec, err := s.GetRecord(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.RecordTypeProductGroup, rec.Type)
	assert.NotContains(t, rec.Meta, "id", "id is not stored as an attribute")

	var group models.ProductGroup
	require.NoError(t, rec.Decode(&group))
	assert.Equal(t, id, group.ID)
	assert.Equal(t, "Toppings", group.Name)
	assert.Equal(t, []int64{4, 5}, group.GroupItemIDs)

	missing, err := s.GetRecord(ctx, id+100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryStore_UpdateAndGetMeta(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id, err := s.CreateRecord(ctx, models.RecordTypeIngredient, Meta{})
	require.NoError(t, err)

	require.NoError(t, s.UpdateMeta(ctx, id, "name", "Olive"))

	raw, err := s.GetMeta(ctx, id, "name")
	require.NoError(t, err)
	assert.JSONEq(t, `"Olive"`, string(raw))

	raw, err = s.GetMeta(ctx, id, "price")
	require.NoError(t, err)
	assert.Nil(t, raw)

	assert.ErrorIs(t, s.UpdateMeta(ctx, id+1, "name", "x"), ErrRecordNotFound)
}

func TestMemoryStore_FindRecords(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for i, kind := range []models.ItemKind{models.ItemKindIngredient, models.ItemKindProduct, models.ItemKindIngredient, models.ItemKindIngredient} {
		_, err := s.CreateRecord(ctx, models.RecordTypeGroupItem, mustMeta(t, models.GroupItem{ItemID: int64(i % 2), ItemType: kind}))
		require.NoError(t, err)
	}
	_, err := s.CreateRecord(ctx, models.RecordTypeIngredient, Meta{})
	require.NoError(t, err)

	all, err := s.FindRecords(ctx, models.RecordTypeGroupItem, nil, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	ingredients, err := s.FindRecords(ctx, models.RecordTypeGroupItem, Criteria{"item_type": models.ItemKindIngredient}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 4}, recordIDs(ingredients))

	exact, err := s.FindRecords(ctx, models.RecordTypeGroupItem, Criteria{"item_type": "ingredient", "item_id": 0}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, recordIDs(exact))

	paged, err := s.FindRecords(ctx, models.RecordTypeGroupItem, nil, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, recordIDs(paged))

	beyond, err := s.FindRecords(ctx, models.RecordTypeGroupItem, nil, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestMemoryStore_QueryByMetaContains(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	a, _ := s.CreateRecord(ctx, models.RecordTypeProduct, mustMeta(t, models.Product{Name: "A", ProductGroupIDs: []int64{1, 12}}))
	_, _ = s.CreateRecord(ctx, models.RecordTypeProduct, mustMeta(t, models.Product{Name: "B", ProductGroupIDs: []int64{2}}))
	c, _ := s.CreateRecord(ctx, models.RecordTypeProduct, mustMeta(t, models.Product{Name: "C", ProductGroupIDs: []int64{12}}))
	_, _ = s.CreateRecord(ctx, models.RecordTypeProduct, mustMeta(t, models.Product{Name: "D"}))

	ids, err := s.QueryByMetaContains(ctx, models.RecordTypeProduct, "product_group_ids", int64(12))
	require.NoError(t, err)
	assert.Equal(t, []int64{a, c}, ids)

	ids, err = s.QueryByMetaContains(ctx, models.RecordTypeProduct, "product_group_ids", int64(1))
	require.NoError(t, err)
	assert.Equal(t, []int64{a}, ids, "containment is by element, not substring")
}

func TestMemoryStore_DeleteRecord(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id, _ := s.CreateRecord(ctx, models.RecordTypeIngredient, Meta{})

	deleted, err := s.DeleteRecord(ctx, id, false)
	require.NoError(t, err)
	assert.True(t, deleted)

	rec, _ := s.GetRecord(ctx, id)
	assert.Nil(t, rec, "trashed records are hidden")

	deleted, err = s.DeleteRecord(ctx, id, false)
	require.NoError(t, err)
	assert.False(t, deleted, "already trashed")

	deleted, err = s.DeleteRecord(ctx, id, true)
	require.NoError(t, err)
	assert.True(t, deleted, "force purges trashed records")

	deleted, err = s.DeleteRecord(ctx, id, true)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestMemoryStore_RunInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id, _ := s.CreateRecord(ctx, models.RecordTypeIngredient, mustMeta(t, map[string]any{"name": "Salt"}))

	boom := errors.New("boom")
	err := s.RunInTx(ctx, func(ctx context.Context) error {
		require.NoError(t, s.UpdateMeta(ctx, id, "name", "Pepper"))
		_, err := s.CreateRecord(ctx, models.RecordTypeIngredient, Meta{})
		require.NoError(t, err)
		return s.RunInTx(ctx, func(ctx context.Context) error { return boom })
	})
	require.ErrorIs(t, err, boom)

	rec, _ := s.GetRecord(ctx, id)
	assert.Equal(t, "Salt", rec.Meta.String("name"))

	all, _ := s.FindRecords(ctx, models.RecordTypeIngredient, nil, 0, 0)
	assert.Len(t, all, 1)

	next, _ := s.CreateRecord(ctx, models.RecordTypeIngredient, Meta{})
	assert.Equal(t, id+1, next, "ids from the rolled back transaction are reused")
}

func recordIDs(records []Record) []int64 {
	ids := make([]int64, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	return ids
}
