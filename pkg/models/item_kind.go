package models

import (
	"strings"

	"github.com/shopspring/decimal"

	menuerrors "github.com/Ramsey-B/squidly/pkg/errors"
)

// ItemKind is the kind of entity a GroupItem points at.
type ItemKind string

const (
	ItemKindProduct    ItemKind = "product"
	ItemKindIngredient ItemKind = "ingredient"
)

func ParseItemKind(value string) (ItemKind, error) {
	kind := ItemKind(strings.ToLower(strings.TrimSpace(value)))
	if !kind.Valid() {
		return "", menuerrors.NewValidationErrorf("item_type", "unknown item type %q (expected product or ingredient)", value)
	}
	return kind, nil
}

func (k ItemKind) Valid() bool {
	return k == ItemKindProduct || k == ItemKindIngredient
}

func (k ItemKind) RecordType() RecordType {
	if k == ItemKindProduct {
		return RecordTypeProduct
	}
	return RecordTypeIngredient
}

// ItemRef is the (kind, id) pair a GroupItem references.
type ItemRef struct {
	Kind ItemKind `json:"kind"`
	ID   int64    `json:"id"`
}

func (r ItemRef) Ref() Ref {
	return NewRef(r.Kind.RecordType(), r.ID)
}

// MenuItem is either a *Product or an *Ingredient.
type MenuItem interface {
	ItemRef() ItemRef
	DisplayName() string
	// CurrentPrice is the price a customer pays for the item.
	CurrentPrice() decimal.Decimal
	// WithPrice returns a copy priced at price. The receiver is not modified.
	WithPrice(price decimal.Decimal) MenuItem
	isMenuItem()
}
