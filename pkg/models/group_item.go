package models

import (
	"github.com/shopspring/decimal"
)

// GroupItem wraps a reference to one Product or Ingredient with an optional price override.
type GroupItem struct {
	ID            int64            `json:"id"`
	ItemID        int64            `json:"item_id"`
	ItemType      ItemKind         `json:"item_type"`
	OverridePrice *decimal.Decimal `json:"override_price"`
}

func (g *GroupItem) Target() ItemRef {
	return ItemRef{Kind: g.ItemType, ID: g.ItemID}
}

func (g *GroupItem) Label() string {
	return NewRef(RecordTypeGroupItem, g.ID).String()
}

// Apply prices item for this reference. The override is read at call time,
// so items without one follow their entity's current price.
func (g *GroupItem) Apply(item MenuItem) MenuItem {
	if g.OverridePrice == nil {
		return item
	}
	return item.WithPrice(*g.OverridePrice)
}

type CreateGroupItemRequest struct {
	ItemID        int64            `json:"item_id" validate:"gt=0"`
	ItemType      ItemKind         `json:"item_type" validate:"required,oneof=product ingredient"`
	OverridePrice *decimal.Decimal `json:"override_price,omitempty"`
}

func (r CreateGroupItemRequest) Validate() error {
	if err := Validate(r); err != nil {
		return err
	}
	return validateOptionalPrice("override_price", r.OverridePrice)
}

type UpdateGroupItemRequest struct {
	ItemID             *int64           `json:"item_id,omitempty" validate:"omitempty,gt=0"`
	ItemType           *ItemKind        `json:"item_type,omitempty" validate:"omitempty,oneof=product ingredient"`
	OverridePrice      *decimal.Decimal `json:"override_price,omitempty"`
	ClearOverridePrice bool             `json:"clear_override_price,omitempty"`
}

func (r UpdateGroupItemRequest) Validate() error {
	if err := Validate(r); err != nil {
		return err
	}
	return validateOptionalPrice("override_price", r.OverridePrice)
}
