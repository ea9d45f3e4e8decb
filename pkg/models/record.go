package models

import "fmt"

// RecordType discriminates menu records inside the entity store.
type RecordType string

const (
	RecordTypeIngredient   RecordType = "ingredient"
	RecordTypeProduct      RecordType = "product"
	RecordTypeGroupItem    RecordType = "group_item"
	RecordTypeProductGroup RecordType = "product_group"
	RecordTypeStoreBranch  RecordType = "store_branch"
)

var recordLabels = map[RecordType]string{
	RecordTypeIngredient:   "Ingredient",
	RecordTypeProduct:      "Product",
	RecordTypeGroupItem:    "GroupItem",
	RecordTypeProductGroup: "ProductGroup",
	RecordTypeStoreBranch:  "StoreBranch",
}

func (t RecordType) Label() string {
	if label, ok := recordLabels[t]; ok {
		return label
	}
	return string(t)
}

func (t RecordType) Valid() bool {
	_, ok := recordLabels[t]
	return ok
}

// Ref identifies one record.
type Ref struct {
	Type RecordType `json:"type"`
	ID   int64      `json:"id"`
}

func NewRef(t RecordType, id int64) Ref {
	return Ref{Type: t, ID: id}
}

// String renders the generic label used when a record has no name, e.g. "GroupItem #7".
func (r Ref) String() string {
	return fmt.Sprintf("%s #%d", r.Type.Label(), r.ID)
}

// Meta keys shared by the repositories, the reference index and the store scans.
const (
	MetaKeyName            = "name"
	MetaKeyItemID          = "item_id"
	MetaKeyItemType        = "item_type"
	MetaKeyGroupItemIDs    = "group_item_ids"
	MetaKeyProductGroupIDs = "product_group_ids"
)
