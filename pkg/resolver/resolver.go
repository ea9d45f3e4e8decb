// Package resolver turns stored menu references into priced, composed menu items.
package resolver

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/squidly/pkg/metrics"
	"github.com/Ramsey-B/squidly/pkg/models"
	"github.com/Ramsey-B/squidly/pkg/tracing"
)

// Source loads menu records. Every method returns nil, nil for a missing record.
type Source interface {
	Resolve(ctx context.Context, ref models.ItemRef) (models.MenuItem, error)
	Product(ctx context.Context, id int64) (*models.Product, error)
	ProductGroup(ctx context.Context, id int64) (*models.ProductGroup, error)
	GroupItem(ctx context.Context, id int64) (*models.GroupItem, error)
}

// ResolvedItem is one entry of a product group priced for that group.
type ResolvedItem struct {
	GroupItemID int64           `json:"group_item_id"`
	Kind        models.ItemKind `json:"kind"`
	Item        models.MenuItem `json:"item"`
	Overridden  bool            `json:"overridden"`
}

type ComposedGroup struct {
	Group models.ProductGroup `json:"group"`
	Items []ComposedItem      `json:"items"`
}

// ComposedItem carries the nested composition of product items. Ingredients
// have none.
type ComposedItem struct {
	ResolvedItem
	Composition *ComposedProduct `json:"composition,omitempty"`
}

// ComposedProduct is a product with its groups resolved. Expanded is false for a
// product already expanded elsewhere in the same build; its Groups are then empty.
type ComposedProduct struct {
	Product  *models.Product `json:"product"`
	Groups   []ComposedGroup `json:"groups"`
	Expanded bool            `json:"expanded"`
}

type Resolver struct {
	source Source
	logger ectologger.Logger
}

func NewResolver(source Source, logger ectologger.Logger) *Resolver {
	return &Resolver{
		source: source,
		logger: logger,
	}
}

// ResolveGroupItems loads the group's items in stored order, dropping the ones
// that no longer exist.
func (r *Resolver) ResolveGroupItems(ctx context.Context, group *models.ProductGroup) ([]models.GroupItem, error) {
	ctx, span := tracing.StartSpan(ctx, "resolver.Resolver.ResolveGroupItems")
	defer span.End()

	items := make([]models.GroupItem, 0, len(group.GroupItemIDs))
	for _, id := range group.GroupItemIDs {
		item, err := r.source.GroupItem(ctx, id)
		if err != nil {
			return nil, err
		}
		if item == nil {
			r.dangling(ctx, models.NewRef(models.RecordTypeGroupItem, id), group.ID)
			continue
		}
		items = append(items, *item)
	}
	return items, nil
}

// ResolveItems resolves the group's items to products and ingredients priced
// with each group item's override. Dangling references are skipped and order is
// preserved. Stored records are never modified.
func (r *Resolver) ResolveItems(ctx context.Context, group *models.ProductGroup) ([]ResolvedItem, error) {
	ctx, span := tracing.StartSpan(ctx, "resolver.Resolver.ResolveItems")
	defer span.End()
	tracing.SetRecord(span, string(models.RecordTypeProductGroup), group.ID)

	metrics.RecordResolution("resolve_items")

	groupItems, err := r.ResolveGroupItems(ctx, group)
	if err != nil {
		return nil, err
	}

	resolved := make([]ResolvedItem, 0, len(groupItems))
	for i := range groupItems {
		groupItem := &groupItems[i]
		target := groupItem.Target()

		item, err := r.source.Resolve(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", groupItem.Label(), err)
		}
		if item == nil {
			r.dangling(ctx, target.Ref(), group.ID)
			continue
		}

		resolved = append(resolved, ResolvedItem{
			GroupItemID: groupItem.ID,
			Kind:        target.Kind,
			Item:        groupItem.Apply(item),
			Overridden:  groupItem.OverridePrice != nil,
		})
	}
	return resolved, nil
}

// ResolveItemsByID resolves a stored group. It returns nil when the group does not exist.
func (r *Resolver) ResolveItemsByID(ctx context.Context, groupID int64) ([]ResolvedItem, error) {
	group, err := r.source.ProductGroup(ctx, groupID)
	if err != nil || group == nil {
		return nil, err
	}
	return r.ResolveItems(ctx, group)
}

// BuildProduct resolves every group of product in order and expands nested
// products. Each product is expanded at most once per build, so cyclic menus
// terminate.
func (r *Resolver) BuildProduct(ctx context.Context, product *models.Product) (*ComposedProduct, error) {
	ctx, span := tracing.StartSpan(ctx, "resolver.Resolver.BuildProduct")
	defer span.End()
	tracing.SetRecord(span, string(models.RecordTypeProduct), product.ID)

	metrics.RecordResolution("build_product")

	return r.build(ctx, product, map[int64]struct{}{})
}

// BuildProductByID builds a stored product. It returns nil when the product does not exist.
func (r *Resolver) BuildProductByID(ctx context.Context, productID int64) (*ComposedProduct, error) {
	product, err := r.source.Product(ctx, productID)
	if err != nil || product == nil {
		return nil, err
	}
	return r.BuildProduct(ctx, product)
}

func (r *Resolver) build(ctx context.Context, product *models.Product, visited map[int64]struct{}) (*ComposedProduct, error) {
	if _, ok := visited[product.ID]; ok {
		return &ComposedProduct{Product: product, Groups: []ComposedGroup{}}, nil
	}
	visited[product.ID] = struct{}{}

	composed := &ComposedProduct{
		Product:  product,
		Groups:   make([]ComposedGroup, 0, len(product.ProductGroupIDs)),
		Expanded: true,
	}

	for _, groupID := range product.ProductGroupIDs {
		group, err := r.source.ProductGroup(ctx, groupID)
		if err != nil {
			return nil, err
		}
		if group == nil {
			r.dangling(ctx, models.NewRef(models.RecordTypeProductGroup, groupID), product.ID)
			continue
		}

		resolved, err := r.ResolveItems(ctx, group)
		if err != nil {
			return nil, err
		}

		composedGroup := ComposedGroup{Group: *group, Items: make([]ComposedItem, 0, len(resolved))}
		for _, item := range resolved {
			entry := ComposedItem{ResolvedItem: item}
			if nested, ok := item.Item.(*models.Product); ok {
				if entry.Composition, err = r.build(ctx, nested, visited); err != nil {
					return nil, err
				}
			}
			composedGroup.Items = append(composedGroup.Items, entry)
		}
		composed.Groups = append(composed.Groups, composedGroup)
	}

	return composed, nil
}

func (r *Resolver) dangling(ctx context.Context, ref models.Ref, ownerID int64) {
	metrics.RecordDanglingReference(string(ref.Type))
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"record_type": ref.Type,
		"record_id":   ref.ID,
		"owner_id":    ownerID,
	}).Debug("skipping dangling reference")
}
