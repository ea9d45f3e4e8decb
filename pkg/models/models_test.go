package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	menuerrors "github.com/Ramsey-B/squidly/pkg/errors"
)

func price(value string) *decimal.Decimal {
	d := decimal.RequireFromString(value)
	return &d
}

func TestParseItemKind(t *testing.T) {
	kind, err := ParseItemKind(" Product ")
	require.NoError(t, err)
	assert.Equal(t, ItemKindProduct, kind)
	assert.Equal(t, RecordTypeProduct, kind.RecordType())

	kind, err = ParseItemKind("ingredient")
	require.NoError(t, err)
	assert.Equal(t, RecordTypeIngredient, kind.RecordType())

	_, err = ParseItemKind("drink")
	assert.True(t, menuerrors.IsValidationError(err))
}

func TestParseWeekday(t *testing.T) {
	day, err := ParseWeekday("wednesday")
	require.NoError(t, err)
	assert.Equal(t, Wednesday, day)

	_, err = ParseWeekday("Funday")
	assert.Error(t, err)
}

func TestRefString(t *testing.T) {
	assert.Equal(t, "GroupItem #12", NewRef(RecordTypeGroupItem, 12).String())
	assert.Equal(t, "ProductGroup #3", NewRef(RecordTypeProductGroup, 3).String())
}

func TestGroupItem_Apply(t *testing.T) {
	product := &Product{ID: 1, Name: "Cola", Price: decimal.RequireFromString("5"), DiscountedPrice: price("4")}

	t.Run("override replaces the active price", func(t *testing.T) {
		item := &GroupItem{ID: 9, ItemID: 1, ItemType: ItemKindProduct, OverridePrice: price("6.5")}
		resolved := item.Apply(product)

		assert.True(t, decimal.RequireFromString("6.5").Equal(resolved.CurrentPrice()))
		assert.Equal(t, "Cola", resolved.DisplayName())
		assert.True(t, decimal.RequireFromString("4").Equal(product.CurrentPrice()), "source product untouched")
	})

	t.Run("no override keeps the entity price", func(t *testing.T) {
		item := &GroupItem{ID: 9, ItemID: 1, ItemType: ItemKindProduct}
		assert.Same(t, product, item.Apply(product))
	})
}

func TestCreateRequests_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     interface{ Validate() error }
		wantErr bool
	}{
		{name: "ingredient ok", req: CreateIngredientRequest{Name: "Basil", Price: decimal.Zero}},
		{name: "ingredient blank name", req: CreateIngredientRequest{Name: "  ", Price: decimal.Zero}, wantErr: true},
		{name: "ingredient negative price", req: CreateIngredientRequest{Name: "Basil", Price: decimal.NewFromInt(-1)}, wantErr: true},
		{name: "product ok", req: CreateProductRequest{Name: "Pizza", Price: decimal.NewFromInt(40), ProductGroupIDs: []int64{1, 2}}},
		{name: "product negative discount", req: CreateProductRequest{Name: "Pizza", Price: decimal.NewFromInt(40), DiscountedPrice: price("-1")}, wantErr: true},
		{name: "product bad group id", req: CreateProductRequest{Name: "Pizza", ProductGroupIDs: []int64{0}}, wantErr: true},
		{name: "group item ok", req: CreateGroupItemRequest{ItemID: 3, ItemType: ItemKindIngredient, OverridePrice: price("100")}},
		{name: "group item unknown kind", req: CreateGroupItemRequest{ItemID: 3, ItemType: "drink"}, wantErr: true},
		{name: "group item negative override", req: CreateGroupItemRequest{ItemID: 3, ItemType: ItemKindProduct, OverridePrice: price("-0.5")}, wantErr: true},
		{name: "group item missing id", req: CreateGroupItemRequest{ItemType: ItemKindProduct}, wantErr: true},
		{name: "product group ok", req: CreateProductGroupRequest{Name: "Toppings", Type: ItemKindIngredient}},
		{name: "product group bad type", req: CreateProductGroupRequest{Name: "Toppings", Type: "topping"}, wantErr: true},
		{name: "branch ok", req: CreateStoreBranchRequest{Name: "Haifa", ActivityTimes: map[string][]string{"monday": {"09:00-17:00"}}}},
		{name: "branch bad day", req: CreateStoreBranchRequest{Name: "Haifa", ActivityTimes: map[string][]string{"Funday": {"09:00-17:00"}}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, menuerrors.IsValidationError(err), "got %T", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestUpdateRequests_Validate(t *testing.T) {
	blank := ""
	assert.Error(t, UpdateIngredientRequest{Name: &blank}.Validate())
	assert.Error(t, UpdateProductRequest{Price: price("-2")}.Validate())
	assert.Error(t, UpdateProductRequest{ProductGroupIDs: &[]int64{-1}}.Validate())
	assert.NoError(t, UpdateProductRequest{}.Validate())

	kind := ItemKind("combo")
	assert.Error(t, UpdateGroupItemRequest{ItemType: &kind}.Validate())
	assert.NoError(t, UpdateGroupItemRequest{ClearOverridePrice: true}.Validate())
}
