package dependency_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/squidly/internal/repositories"
	"github.com/Ramsey-B/squidly/internal/repositories/groupitem"
	"github.com/Ramsey-B/squidly/internal/repositories/ingredient"
	"github.com/Ramsey-B/squidly/internal/repositories/product"
	"github.com/Ramsey-B/squidly/internal/repositories/productgroup"
	"github.com/Ramsey-B/squidly/pkg/dependency"
	menuerrors "github.com/Ramsey-B/squidly/pkg/errors"
	"github.com/Ramsey-B/squidly/pkg/models"
	"github.com/Ramsey-B/squidly/pkg/references"
	"github.com/Ramsey-B/squidly/pkg/store"
)

type menu struct {
	store        store.EntityStore
	guard        *dependency.Guard
	ingredients  *ingredient.Repository
	products     *product.Repository
	groupItems   *groupitem.Repository
	productGroup *productgroup.Repository
}

func newMenu(t *testing.T, backend string) *menu {
	t.Helper()

	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	s := store.NewMemoryStore()

	var lookup references.Lookup
	var tracker references.Tracker
	switch backend {
	case "index":
		idx := references.NewIndex()
		lookup, tracker = idx, idx
	case "store":
		lookup, tracker = references.NewStoreLookup(s), references.Noop{}
	default:
		t.Fatalf("unknown backend %s", backend)
	}

	guard := dependency.NewGuard(lookup, s, logger)
	deps := repositories.Deps{Store: s, Tracker: tracker, Guard: guard, Logger: logger}

	return &menu{
		store:        s,
		guard:        guard,
		ingredients:  ingredient.NewRepository(deps),
		products:     product.NewRepository(deps),
		groupItems:   groupitem.NewRepository(deps),
		productGroup: productgroup.NewRepository(deps),
	}
}

func requireInUse(t *testing.T, err error, dependants ...string) {
	t.Helper()

	inUse, ok := menuerrors.AsResourceInUse(err)
	require.True(t, ok, "expected ResourceInUseError, got %v", err)
	assert.Equal(t, dependants, inUse.Dependants)
}

var backends = []string{"index", "store"}

func TestGuard_BlocksChainAndAllowsTopDownDelete(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			m := newMenu(t, backend)

			cheese, err := m.ingredients.Create(ctx, models.CreateIngredientRequest{Name: "Cheese", Price: decimal.NewFromInt(2)})
			require.NoError(t, err)
			gi, err := m.groupItems.Create(ctx, models.CreateGroupItemRequest{ItemID: cheese, ItemType: models.ItemKindIngredient})
			require.NoError(t, err)
			toppings, err := m.productGroup.Create(ctx, models.CreateProductGroupRequest{Name: "Toppings", Type: models.ItemKindIngredient, GroupItemIDs: []int64{gi}})
			require.NoError(t, err)
			pizza, err := m.products.Create(ctx, models.CreateProductRequest{Name: "Pizza", Price: decimal.NewFromInt(10), ProductGroupIDs: []int64{toppings}})
			require.NoError(t, err)

			giLabel := models.NewRef(models.RecordTypeGroupItem, gi).String()

			_, err = m.ingredients.Delete(ctx, cheese, false)
			requireInUse(t, err, giLabel, "Toppings", "Pizza")
			assert.Contains(t, err.Error(), "cannot delete Cheese: in use by: ")

			_, err = m.groupItems.Delete(ctx, gi, false)
			requireInUse(t, err, "Toppings", "Pizza")

			_, err = m.productGroup.Delete(ctx, toppings, false)
			requireInUse(t, err, "Pizza")

			// nothing was removed by the blocked attempts
			stored, err := m.ingredients.Get(ctx, cheese)
			require.NoError(t, err)
			require.NotNil(t, stored)

			for _, step := range []struct {
				name   string
				delete func() (bool, error)
			}{
				{"product", func() (bool, error) { return m.products.Delete(ctx, pizza, false) }},
				{"product group", func() (bool, error) { return m.productGroup.Delete(ctx, toppings, false) }},
				{"group item", func() (bool, error) { return m.groupItems.Delete(ctx, gi, false) }},
				{"ingredient", func() (bool, error) { return m.ingredients.Delete(ctx, cheese, false) }},
			} {
				deleted, err := step.delete()
				require.NoError(t, err, step.name)
				assert.True(t, deleted, step.name)
			}

			gone, err := m.ingredients.Get(ctx, cheese)
			require.NoError(t, err)
			assert.Nil(t, gone)
		})
	}
}

func TestGuard_ProductExcludesItself(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			m := newMenu(t, backend)

			combo, err := m.products.Create(ctx, models.CreateProductRequest{Name: "Combo", Price: decimal.NewFromInt(12)})
			require.NoError(t, err)
			self, err := m.groupItems.Create(ctx, models.CreateGroupItemRequest{ItemID: combo, ItemType: models.ItemKindProduct})
			require.NoError(t, err)
			extras, err := m.productGroup.Create(ctx, models.CreateProductGroupRequest{Name: "Extras", Type: models.ItemKindProduct, GroupItemIDs: []int64{self}})
			require.NoError(t, err)
			ok, err := m.products.Update(ctx, combo, models.UpdateProductRequest{ProductGroupIDs: &[]int64{extras}})
			require.NoError(t, err)
			require.True(t, ok)

			dependants, err := m.guard.Dependants(ctx, models.NewRef(models.RecordTypeProduct, combo))
			require.NoError(t, err)
			assert.Equal(t, []string{models.NewRef(models.RecordTypeGroupItem, self).String(), "Extras"}, dependency.Names(dependants))
		})
	}
}

func TestGuard_SharedDependantsAreListedOnce(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			m := newMenu(t, backend)

			fries, err := m.products.Create(ctx, models.CreateProductRequest{Name: "Fries", Price: decimal.NewFromInt(3)})
			require.NoError(t, err)
			small, err := m.groupItems.Create(ctx, models.CreateGroupItemRequest{ItemID: fries, ItemType: models.ItemKindProduct})
			require.NoError(t, err)
			large, err := m.groupItems.Create(ctx, models.CreateGroupItemRequest{ItemID: fries, ItemType: models.ItemKindProduct, OverridePrice: decimalPtr("4.5")})
			require.NoError(t, err)
			sides, err := m.productGroup.Create(ctx, models.CreateProductGroupRequest{Name: "Sides", Type: models.ItemKindProduct, GroupItemIDs: []int64{small, large}})
			require.NoError(t, err)
			_, err = m.products.Create(ctx, models.CreateProductRequest{Name: "Burger", Price: decimal.NewFromInt(9), ProductGroupIDs: []int64{sides}})
			require.NoError(t, err)
			_, err = m.products.Create(ctx, models.CreateProductRequest{Name: "Wrap", Price: decimal.NewFromInt(8), ProductGroupIDs: []int64{sides}})
			require.NoError(t, err)

			_, err = m.products.Delete(ctx, fries, false)
			requireInUse(t, err,
				models.NewRef(models.RecordTypeGroupItem, small).String(),
				models.NewRef(models.RecordTypeGroupItem, large).String(),
				"Sides", "Burger", "Wrap",
			)
		})
	}
}

func TestGuard_ForceSkipsTheGuard(t *testing.T) {
	ctx := context.Background()
	m := newMenu(t, "index")

	basil, err := m.ingredients.Create(ctx, models.CreateIngredientRequest{Name: "Basil", Price: decimal.NewFromInt(1)})
	require.NoError(t, err)
	_, err = m.groupItems.Create(ctx, models.CreateGroupItemRequest{ItemID: basil, ItemType: models.ItemKindIngredient})
	require.NoError(t, err)

	deleted, err := m.ingredients.Delete(ctx, basil, true)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestGuard_UnreferencedRecordsAreFree(t *testing.T) {
	ctx := context.Background()
	m := newMenu(t, "index")

	salt, err := m.ingredients.Create(ctx, models.CreateIngredientRequest{Name: "Salt", Price: decimal.Zero})
	require.NoError(t, err)

	dependants, err := m.guard.Dependants(ctx, models.NewRef(models.RecordTypeIngredient, salt))
	require.NoError(t, err)
	assert.Empty(t, dependants)
	assert.NoError(t, m.guard.EnsureDeletable(ctx, models.NewRef(models.RecordTypeIngredient, salt), "Salt"))

	branchDependants, err := m.guard.Dependants(ctx, models.NewRef(models.RecordTypeStoreBranch, 1))
	require.NoError(t, err)
	assert.Empty(t, branchDependants)
}

func decimalPtr(value string) *decimal.Decimal {
	d := decimal.RequireFromString(value)
	return &d
}

func TestGuard_RolledBackUpdateKeepsReferences(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			m := newMenu(t, backend)

			toppings, err := m.productGroup.Create(ctx, models.CreateProductGroupRequest{Name: "Toppings", Type: models.ItemKindIngredient})
			require.NoError(t, err)
			pizza, err := m.products.Create(ctx, models.CreateProductRequest{Name: "Pizza", Price: decimal.NewFromInt(10), ProductGroupIDs: []int64{toppings}})
			require.NoError(t, err)

			boom := errors.New("boom")
			err = m.store.RunInTx(ctx, func(ctx context.Context) error {
				ok, err := m.products.Update(ctx, pizza, models.UpdateProductRequest{ProductGroupIDs: &[]int64{}})
				require.NoError(t, err)
				require.True(t, ok)
				return boom
			})
			require.ErrorIs(t, err, boom)

			got, err := m.products.Get(ctx, pizza)
			require.NoError(t, err)
			assert.Equal(t, []int64{toppings}, got.ProductGroupIDs)

			deleted, err := m.productGroup.Delete(ctx, toppings, false)
			var inUse *menuerrors.ResourceInUseError
			require.ErrorAs(t, err, &inUse)
			assert.False(t, deleted)
			assert.Equal(t, []string{"Pizza"}, inUse.Dependants)
		})
	}
}

func TestGuard_RolledBackDeleteKeepsReferences(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			m := newMenu(t, backend)

			toppings, err := m.productGroup.Create(ctx, models.CreateProductGroupRequest{Name: "Toppings", Type: models.ItemKindIngredient})
			require.NoError(t, err)
			pizza, err := m.products.Create(ctx, models.CreateProductRequest{Name: "Pizza", Price: decimal.NewFromInt(10), ProductGroupIDs: []int64{toppings}})
			require.NoError(t, err)

			boom := errors.New("boom")
			err = m.store.RunInTx(ctx, func(ctx context.Context) error {
				deleted, err := m.products.Delete(ctx, pizza, true)
				require.NoError(t, err)
				require.True(t, deleted)
				return boom
			})
			require.ErrorIs(t, err, boom)

			dependants, err := m.guard.Dependants(ctx, models.NewRef(models.RecordTypeProductGroup, toppings))
			require.NoError(t, err)
			assert.Equal(t, []string{"Pizza"}, dependency.Names(dependants))
		})
	}
}
