package resolver

import (
	"context"
	"fmt"

	"github.com/Ramsey-B/squidly/pkg/models"
	"github.com/Ramsey-B/squidly/pkg/store"
)

// Catalog loads menu records by reference straight from the entity store.
type Catalog struct {
	store store.EntityStore
}

func NewCatalog(s store.EntityStore) *Catalog {
	return &Catalog{store: s}
}

// Resolve returns the product or ingredient ref points at, or nil when it is
// gone or has another type.
func (c *Catalog) Resolve(ctx context.Context, ref models.ItemRef) (models.MenuItem, error) {
	switch ref.Kind {
	case models.ItemKindProduct:
		product, err := load[models.Product](ctx, c.store, ref.Ref())
		if err != nil || product == nil {
			return nil, err
		}
		return product, nil
	case models.ItemKindIngredient:
		ingredient, err := load[models.Ingredient](ctx, c.store, ref.Ref())
		if err != nil || ingredient == nil {
			return nil, err
		}
		return ingredient, nil
	default:
		return nil, nil
	}
}

func (c *Catalog) Product(ctx context.Context, id int64) (*models.Product, error) {
	return load[models.Product](ctx, c.store, models.NewRef(models.RecordTypeProduct, id))
}

func (c *Catalog) ProductGroup(ctx context.Context, id int64) (*models.ProductGroup, error) {
	return load[models.ProductGroup](ctx, c.store, models.NewRef(models.RecordTypeProductGroup, id))
}

func (c *Catalog) GroupItem(ctx context.Context, id int64) (*models.GroupItem, error) {
	return load[models.GroupItem](ctx, c.store, models.NewRef(models.RecordTypeGroupItem, id))
}

func load[T any](ctx context.Context, s store.EntityStore, ref models.Ref) (*T, error) {
	rec, err := s.GetRecord(ctx, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", ref, err)
	}
	if rec == nil || rec.Type != ref.Type {
		return nil, nil
	}
	var v T
	if err := rec.Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}
