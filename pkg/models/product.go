package models

import (
	"github.com/shopspring/decimal"
)

type Product struct {
	ID              int64            `json:"id"`
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	Price           decimal.Decimal  `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discounted_price"`
	Category        *string          `json:"category"`
	Tags            []string         `json:"tags"`
	ProductGroupIDs []int64          `json:"product_group_ids"`
}

// ActivePrice is the discounted price when one is set, else the price.
func (p *Product) ActivePrice() decimal.Decimal {
	if p.DiscountedPrice != nil {
		return *p.DiscountedPrice
	}
	return p.Price
}

func (p *Product) ItemRef() ItemRef {
	return ItemRef{Kind: ItemKindProduct, ID: p.ID}
}

func (p *Product) DisplayName() string {
	return p.Name
}

func (p *Product) CurrentPrice() decimal.Decimal {
	return p.ActivePrice()
}

// WithPrice returns a copy whose active price is price. The discount is dropped
// so the override wins.
func (p *Product) WithPrice(price decimal.Decimal) MenuItem {
	priced := *p
	priced.Price = price
	priced.DiscountedPrice = nil
	priced.Tags = append([]string(nil), p.Tags...)
	priced.ProductGroupIDs = append([]int64(nil), p.ProductGroupIDs...)
	return &priced
}

func (p *Product) isMenuItem() {}

type CreateProductRequest struct {
	Name            string           `json:"name" validate:"required"`
	Description     string           `json:"description"`
	Price           decimal.Decimal  `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discounted_price,omitempty"`
	Category        *string          `json:"category,omitempty"`
	Tags            []string         `json:"tags" validate:"dive,required"`
	ProductGroupIDs []int64          `json:"product_group_ids" validate:"dive,gt=0"`
}

func (r CreateProductRequest) Validate() error {
	if err := Validate(r); err != nil {
		return err
	}
	if err := ValidateName("name", r.Name); err != nil {
		return err
	}
	if err := ValidatePrice("price", r.Price); err != nil {
		return err
	}
	return validateOptionalPrice("discounted_price", r.DiscountedPrice)
}

type UpdateProductRequest struct {
	Name                 *string          `json:"name,omitempty"`
	Description          *string          `json:"description,omitempty"`
	Price                *decimal.Decimal `json:"price,omitempty"`
	DiscountedPrice      *decimal.Decimal `json:"discounted_price,omitempty"`
	ClearDiscountedPrice bool             `json:"clear_discounted_price,omitempty"`
	Category             *string          `json:"category,omitempty"`
	ClearCategory        bool             `json:"clear_category,omitempty"`
	Tags                 *[]string        `json:"tags,omitempty"`
	ProductGroupIDs      *[]int64         `json:"product_group_ids,omitempty"`
}

func (r UpdateProductRequest) Validate() error {
	if r.Name != nil {
		if err := ValidateName("name", *r.Name); err != nil {
			return err
		}
	}
	if err := validateOptionalPrice("price", r.Price); err != nil {
		return err
	}
	if err := validateOptionalPrice("discounted_price", r.DiscountedPrice); err != nil {
		return err
	}
	if r.Tags != nil {
		if err := ValidateVar("tags", *r.Tags, "dive,required"); err != nil {
			return err
		}
	}
	if r.ProductGroupIDs != nil {
		return ValidateVar("product_group_ids", *r.ProductGroupIDs, "dive,gt=0")
	}
	return nil
}
