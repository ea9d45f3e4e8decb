package models

import (
	"github.com/shopspring/decimal"
)

type Ingredient struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

func (i *Ingredient) ItemRef() ItemRef {
	return ItemRef{Kind: ItemKindIngredient, ID: i.ID}
}

func (i *Ingredient) DisplayName() string {
	return i.Name
}

func (i *Ingredient) CurrentPrice() decimal.Decimal {
	return i.Price
}

func (i *Ingredient) WithPrice(price decimal.Decimal) MenuItem {
	priced := *i
	priced.Price = price
	return &priced
}

func (i *Ingredient) isMenuItem() {}

type CreateIngredientRequest struct {
	Name  string          `json:"name" validate:"required"`
	Price decimal.Decimal `json:"price"`
}

func (r CreateIngredientRequest) Validate() error {
	if err := Validate(r); err != nil {
		return err
	}
	if err := ValidateName("name", r.Name); err != nil {
		return err
	}
	return ValidatePrice("price", r.Price)
}

type UpdateIngredientRequest struct {
	Name  *string          `json:"name,omitempty"`
	Price *decimal.Decimal `json:"price,omitempty"`
}

func (r UpdateIngredientRequest) Validate() error {
	if r.Name != nil {
		if err := ValidateName("name", *r.Name); err != nil {
			return err
		}
	}
	return validateOptionalPrice("price", r.Price)
}
