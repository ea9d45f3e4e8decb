// Package seed loads YAML menu fixtures through the repositories.
package seed

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/squidly/internal/repositories/groupitem"
	"github.com/Ramsey-B/squidly/internal/repositories/ingredient"
	"github.com/Ramsey-B/squidly/internal/repositories/product"
	"github.com/Ramsey-B/squidly/internal/repositories/productgroup"
	"github.com/Ramsey-B/squidly/internal/repositories/storebranch"
	"github.com/Ramsey-B/squidly/pkg/availability"
	"github.com/Ramsey-B/squidly/pkg/models"
	"github.com/Ramsey-B/squidly/pkg/store"
	"github.com/Ramsey-B/squidly/pkg/tracing"
)

type Deps struct {
	Store         store.EntityStore
	Ingredients   ingredient.IngredientRepository
	Products      product.ProductRepository
	GroupItems    groupitem.GroupItemRepository
	ProductGroups productgroup.ProductGroupRepository
	Branches      storebranch.StoreBranchRepository
	Availability  *availability.Service
	Logger        ectologger.Logger
}

// Result maps fixture keys to the ids they were stored under.
type Result struct {
	Ingredients   map[string]int64
	Products      map[string]int64
	ProductGroups map[string]int64
	GroupItems    int
	Branches      map[string]int64
}

type Loader struct {
	deps Deps
}

func NewLoader(deps Deps) *Loader {
	return &Loader{deps: deps}
}

// Load stores the fixture in one transaction. Products are created before
// their groups and linked afterwards, so groups may offer products that
// themselves carry groups, cycles included.
func (l *Loader) Load(ctx context.Context, fixture *Fixture) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "SeedLoader.Load")
	defer span.End()

	result := &Result{
		Ingredients:   map[string]int64{},
		Products:      map[string]int64{},
		ProductGroups: map[string]int64{},
		Branches:      map[string]int64{},
	}

	err := l.deps.Store.RunInTx(ctx, func(ctx context.Context) error {
		if err := l.ingredients(ctx, fixture, result); err != nil {
			return err
		}
		if err := l.products(ctx, fixture, result); err != nil {
			return err
		}
		if err := l.groups(ctx, fixture, result); err != nil {
			return err
		}
		if err := l.linkProducts(ctx, fixture, result); err != nil {
			return err
		}
		return l.branches(ctx, fixture, result)
	})
	if err != nil {
		l.deps.Logger.WithContext(ctx).WithError(err).Error("failed to load seed fixture")
		return nil, err
	}

	l.deps.Logger.WithContext(ctx).WithFields(map[string]any{
		"ingredients":    len(result.Ingredients),
		"products":       len(result.Products),
		"product_groups": len(result.ProductGroups),
		"group_items":    result.GroupItems,
		"branches":       len(result.Branches),
	}).Info("seed fixture loaded")

	return result, nil
}

func (l *Loader) ingredients(ctx context.Context, fixture *Fixture, result *Result) error {
	for _, f := range fixture.Ingredients {
		price, err := parsePrice("price", f.Price)
		if err != nil {
			return fmt.Errorf("ingredient %q: %w", f.Key, err)
		}

		id, err := l.deps.Ingredients.Create(ctx, models.CreateIngredientRequest{Name: f.Name, Price: price})
		if err != nil {
			return fmt.Errorf("ingredient %q: %w", f.Key, err)
		}
		result.Ingredients[f.Key] = id
	}
	return nil
}

func (l *Loader) products(ctx context.Context, fixture *Fixture, result *Result) error {
	for _, f := range fixture.Products {
		price, err := parsePrice("price", f.Price)
		if err != nil {
			return fmt.Errorf("product %q: %w", f.Key, err)
		}
		discounted, err := parseOptionalPrice("discounted_price", f.DiscountedPrice)
		if err != nil {
			return fmt.Errorf("product %q: %w", f.Key, err)
		}

		req := models.CreateProductRequest{
			Name:            f.Name,
			Description:     f.Description,
			Price:           price,
			DiscountedPrice: discounted,
			Tags:            f.Tags,
		}
		if f.Category != "" {
			category := f.Category
			req.Category = &category
		}

		id, err := l.deps.Products.Create(ctx, req)
		if err != nil {
			return fmt.Errorf("product %q: %w", f.Key, err)
		}
		result.Products[f.Key] = id
	}
	return nil
}

func (l *Loader) groups(ctx context.Context, fixture *Fixture, result *Result) error {
	for _, f := range fixture.ProductGroups {
		kind, err := models.ParseItemKind(f.Type)
		if err != nil {
			return fmt.Errorf("product group %q: %w", f.Key, err)
		}

		itemIDs := make([]int64, 0, len(f.Items))
		for _, item := range f.Items {
			id, err := l.groupItem(ctx, item, result)
			if err != nil {
				return fmt.Errorf("product group %q: %w", f.Key, err)
			}
			itemIDs = append(itemIDs, id)
		}

		id, err := l.deps.ProductGroups.Create(ctx, models.CreateProductGroupRequest{
			Name:         f.Name,
			Type:         kind,
			GroupItemIDs: itemIDs,
		})
		if err != nil {
			return fmt.Errorf("product group %q: %w", f.Key, err)
		}
		result.ProductGroups[f.Key] = id
	}
	return nil
}

func (l *Loader) groupItem(ctx context.Context, item GroupItemFixture, result *Result) (int64, error) {
	req := models.CreateGroupItemRequest{}
	if item.Product != "" {
		id, ok := result.Products[item.Product]
		if !ok {
			return 0, fmt.Errorf("unknown product %q", item.Product)
		}
		req.ItemID, req.ItemType = id, models.ItemKindProduct
	} else {
		id, ok := result.Ingredients[item.Ingredient]
		if !ok {
			return 0, fmt.Errorf("unknown ingredient %q", item.Ingredient)
		}
		req.ItemID, req.ItemType = id, models.ItemKindIngredient
	}

	override, err := parseOptionalPrice("override_price", item.OverridePrice)
	if err != nil {
		return 0, err
	}
	req.OverridePrice = override

	id, err := l.deps.GroupItems.Create(ctx, req)
	if err != nil {
		return 0, err
	}
	result.GroupItems++
	return id, nil
}

func (l *Loader) linkProducts(ctx context.Context, fixture *Fixture, result *Result) error {
	for _, f := range fixture.Products {
		if len(f.Groups) == 0 {
			continue
		}

		groupIDs, err := lookup(result.ProductGroups, "product group", f.Groups)
		if err != nil {
			return fmt.Errorf("product %q: %w", f.Key, err)
		}

		if _, err := l.deps.Products.Update(ctx, result.Products[f.Key], models.UpdateProductRequest{ProductGroupIDs: &groupIDs}); err != nil {
			return fmt.Errorf("product %q: %w", f.Key, err)
		}
	}
	return nil
}

func (l *Loader) branches(ctx context.Context, fixture *Fixture, result *Result) error {
	for _, f := range fixture.Branches {
		id, err := l.deps.Branches.Create(ctx, models.CreateStoreBranchRequest{
			Name:              f.Name,
			Phone:             f.Phone,
			City:              f.City,
			Address:           f.Address,
			IsOpen:            f.IsOpen,
			ActivityTimes:     f.ActivityTimes,
			KosherType:        f.KosherType,
			AccessibilityList: f.AccessibilityList,
		})
		if err != nil {
			return fmt.Errorf("branch %q: %w", f.Key, err)
		}
		result.Branches[f.Key] = id

		if err := l.stock(ctx, id, f, result); err != nil {
			return fmt.Errorf("branch %q: %w", f.Key, err)
		}
	}
	return nil
}

func (l *Loader) stock(ctx context.Context, branchID int64, f BranchFixture, result *Result) error {
	active, err := lookup(result.Products, "product", f.Products)
	if err != nil {
		return err
	}
	inactive, err := lookup(result.Products, "product", f.InactiveProducts)
	if err != nil {
		return err
	}
	ingredients, err := lookup(result.Ingredients, "ingredient", f.Ingredients)
	if err != nil {
		return err
	}

	for _, id := range active {
		if _, err := l.deps.Availability.AddProduct(ctx, branchID, id, true); err != nil {
			return err
		}
	}
	for _, id := range inactive {
		if _, err := l.deps.Availability.AddProduct(ctx, branchID, id, false); err != nil {
			return err
		}
	}
	for _, id := range ingredients {
		if _, err := l.deps.Availability.AddIngredient(ctx, branchID, id, true); err != nil {
			return err
		}
	}
	return nil
}

func lookup(ids map[string]int64, kind string, keys []string) ([]int64, error) {
	out := make([]int64, 0, len(keys))
	for _, key := range keys {
		id, ok := ids[key]
		if !ok {
			return nil, fmt.Errorf("unknown %s %q", kind, key)
		}
		out = append(out, id)
	}
	return out, nil
}
