// Package references keeps track of which menu records point at which.
package references

import (
	"context"

	"github.com/Ramsey-B/squidly/pkg/models"
)

// Lookup answers "who points at this record".
type Lookup interface {
	// Referrers returns the records holding a reference to target, ordered by type then id.
	Referrers(ctx context.Context, target models.Ref) ([]models.Ref, error)
}

// Tracker is told about every change to a record's outgoing references.
type Tracker interface {
	// Track replaces the outgoing references of from.
	Track(ctx context.Context, from models.Ref, to []models.Ref) error
	// Forget drops from and its outgoing references.
	Forget(ctx context.Context, from models.Ref) error
}

// Backend is a Lookup that also keeps itself current through Tracker calls.
type Backend interface {
	Lookup
	Tracker
}

// OfGroupItem returns the record a group item points at.
func OfGroupItem(item *models.GroupItem) []models.Ref {
	if !item.ItemType.Valid() {
		return nil
	}
	return []models.Ref{item.Target().Ref()}
}

// OfProductGroup returns the group items a group lists.
func OfProductGroup(group *models.ProductGroup) []models.Ref {
	return idsToRefs(models.RecordTypeGroupItem, group.GroupItemIDs)
}

// OfProduct returns the groups a product lists.
func OfProduct(product *models.Product) []models.Ref {
	return idsToRefs(models.RecordTypeProductGroup, product.ProductGroupIDs)
}

func idsToRefs(recordType models.RecordType, ids []int64) []models.Ref {
	refs := make([]models.Ref, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, models.NewRef(recordType, id))
	}
	return refs
}

// Noop is a Tracker for lookups that read the store directly.
type Noop struct{}

func (Noop) Track(context.Context, models.Ref, []models.Ref) error { return nil }

func (Noop) Forget(context.Context, models.Ref) error { return nil }
