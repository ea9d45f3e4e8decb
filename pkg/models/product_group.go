package models

// ProductGroup is an ordered modifier group (toppings, sides, drinks).
type ProductGroup struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Type         ItemKind `json:"type"`
	GroupItemIDs []int64  `json:"group_item_ids"`
}

type CreateProductGroupRequest struct {
	Name         string   `json:"name" validate:"required"`
	Type         ItemKind `json:"type" validate:"required,oneof=product ingredient"`
	GroupItemIDs []int64  `json:"group_item_ids" validate:"dive,gt=0"`
}

func (r CreateProductGroupRequest) Validate() error {
	if err := Validate(r); err != nil {
		return err
	}
	return ValidateName("name", r.Name)
}

type UpdateProductGroupRequest struct {
	Name         *string   `json:"name,omitempty"`
	Type         *ItemKind `json:"type,omitempty" validate:"omitempty,oneof=product ingredient"`
	GroupItemIDs *[]int64  `json:"group_item_ids,omitempty"`
}

func (r UpdateProductGroupRequest) Validate() error {
	if err := Validate(r); err != nil {
		return err
	}
	if r.Name != nil {
		if err := ValidateName("name", *r.Name); err != nil {
			return err
		}
	}
	if r.GroupItemIDs != nil {
		return ValidateVar("group_item_ids", *r.GroupItemIDs, "dive,gt=0")
	}
	return nil
}
