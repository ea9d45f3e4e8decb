package references

import (
	"context"
	"fmt"

	"github.com/Ramsey-B/squidly/pkg/models"
	"github.com/Ramsey-B/squidly/pkg/store"
)

// StoreLookup finds referrers by scanning the entity store: attribute matches for
// group items and list containment for groups and products.
type StoreLookup struct {
	store store.EntityStore
}

func NewStoreLookup(s store.EntityStore) *StoreLookup {
	return &StoreLookup{store: s}
}

func (l *StoreLookup) Referrers(ctx context.Context, target models.Ref) ([]models.Ref, error) {
	switch target.Type {
	case models.RecordTypeIngredient, models.RecordTypeProduct:
		kind := models.ItemKindIngredient
		if target.Type == models.RecordTypeProduct {
			kind = models.ItemKindProduct
		}
		records, err := l.store.FindRecords(ctx, models.RecordTypeGroupItem, store.Criteria{
			models.MetaKeyItemType: kind,
			models.MetaKeyItemID:   target.ID,
		}, 0, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to find group items referencing %s: %w", target, err)
		}
		refs := make([]models.Ref, 0, len(records))
		for _, rec := range records {
			refs = append(refs, models.NewRef(models.RecordTypeGroupItem, rec.ID))
		}
		return refs, nil
	case models.RecordTypeGroupItem:
		return l.containing(ctx, models.RecordTypeProductGroup, models.MetaKeyGroupItemIDs, target)
	case models.RecordTypeProductGroup:
		return l.containing(ctx, models.RecordTypeProduct, models.MetaKeyProductGroupIDs, target)
	default:
		return []models.Ref{}, nil
	}
}

func (l *StoreLookup) containing(ctx context.Context, recordType models.RecordType, key string, target models.Ref) ([]models.Ref, error) {
	ids, err := l.store.QueryByMetaContains(ctx, recordType, key, target.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s records referencing %s: %w", recordType, target, err)
	}
	return idsToRefs(recordType, ids), nil
}
