package seed

import (
	"context"
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
	"github.com/Ramsey-B/squidly/internal/repositories/storebranch"
	"github.com/Ramsey-B/squidly/pkg/availability"
	"github.com/Ramsey-B/squidly/pkg/models"
	"github.com/Ramsey-B/squidly/pkg/resolver"
	"github.com/Ramsey-B/squidly/pkg/store"
)

type fixture struct {
	loader   *Loader
	store    *store.MemoryStore
	products *product.Repository
	branches *storebranch.Repository
	resolver *resolver.Resolver
}

func newFixture() *fixture {
	s := store.NewMemoryStore()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	deps := repositories.Deps{Store: s, Logger: logger}
	catalog := resolver.NewCatalog(s)
	res := resolver.NewResolver(catalog, logger)

	products := product.NewRepository(deps)
	branches := storebranch.NewRepository(deps)

	return &fixture{
		loader: NewLoader(Deps{
			Store:         s,
			Ingredients:   ingredient.NewRepository(deps),
			Products:      products,
			GroupItems:    groupitem.NewRepository(deps),
			ProductGroups: productgroup.NewRepository(deps),
			Branches:      branches,
			Availability: availability.NewService(availability.Deps{
				Store:    s,
				Branches: branches,
				Source:   catalog,
				Resolver: res,
				Logger:   logger,
			}),
			Logger: logger,
		}),
		store:    s,
		products: products,
		branches: branches,
		resolver: res,
	}
}

func TestLoad_Menu(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	menu, err := ReadFile("testdata/menu.yaml")
	require.NoError(t, err)

	result, err := f.loader.Load(ctx, menu)
	require.NoError(t, err)
	assert.Len(t, result.Ingredients, 3)
	assert.Len(t, result.Products, 3)
	assert.Len(t, result.ProductGroups, 4)
	assert.Equal(t, 6, result.GroupItems)

	pizza, err := f.products.Get(ctx, result.Products["pizza"])
	require.NoError(t, err)
	require.NotNil(t, pizza)
	assert.Equal(t, []int64{result.ProductGroups["toppings"], result.ProductGroups["sides"]}, pizza.ProductGroupIDs)
	require.NotNil(t, pizza.Category)
	assert.Equal(t, "mains", *pizza.Category)

	composed, err := f.resolver.BuildProductByID(ctx, result.Products["pizza"])
	require.NoError(t, err)
	require.NotNil(t, composed)
	require.Len(t, composed.Groups, 2)

	sides := composed.Groups[1]
	require.Len(t, sides.Items, 1)
	assert.True(t, sides.Items[0].Item.CurrentPrice().Equal(decimal.RequireFromString("2.00")))

	branch, err := f.branches.Get(ctx, result.Branches["downtown"])
	require.NoError(t, err)
	require.NotNil(t, branch)
	assert.ElementsMatch(t, []int64{result.Products["pizza"], result.Products["bread"], result.Products["combo"]}, branch.Products)
	assert.ElementsMatch(t, []int64{result.Ingredients["cheese"], result.Ingredients["olive"], result.Ingredients["garlic"]}, branch.Ingredients)
	assert.False(t, branch.IsProductAvailable(result.Products["combo"]))
	assert.Equal(t, []string{"10:00-22:00"}, branch.ActivityTimes[models.Monday])
	assert.Equal(t, []string{"09:00-14:00"}, branch.ActivityTimes[models.Friday])
}

func TestLoad_RollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	menu, err := Parse([]byte(`
ingredients:
  - key: cheese
    name: Cheese
    price: "1"
products:
  - key: pizza
    name: Pizza
    price: "10"
    groups: [missing]
`))
	require.NoError(t, err)

	_, err = f.loader.Load(ctx, menu)
	assert.ErrorContains(t, err, `unknown product group "missing"`)

	records, err := f.store.FindRecords(ctx, models.RecordTypeIngredient, nil, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"duplicate key", "ingredients:\n  - {key: a, name: A}\n  - {key: a, name: B}\n", `duplicate ingredient key "a"`},
		{"missing key", "products:\n  - {name: Pizza}\n", "product without a key"},
		{"ambiguous item", "product_groups:\n  - key: g\n    name: G\n    type: product\n    items:\n      - {product: p, ingredient: i}\n", "exactly one of product or ingredient"},
		{"not yaml", "ingredients: [", "failed to parse seed fixture"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoad_InvalidPrice(t *testing.T) {
	menu, err := Parse([]byte("ingredients:\n  - {key: a, name: A, price: cheap}\n"))
	require.NoError(t, err)

	_, err = newFixture().loader.Load(context.Background(), menu)
	assert.ErrorContains(t, err, `invalid price "cheap"`)
}
