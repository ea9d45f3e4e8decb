package groupitem

import (
	"context"

	"github.com/Ramsey-B/squidly/internal/repositories"
	"github.com/Ramsey-B/squidly/pkg/models"
	"github.com/Ramsey-B/squidly/pkg/references"
	"github.com/Ramsey-B/squidly/pkg/store"
	"github.com/Ramsey-B/squidly/pkg/tracing"
)

// GroupItemRepository defines the interface for group item operations
type GroupItemRepository interface {
	Create(ctx context.Context, req models.CreateGroupItemRequest) (int64, error)
	Get(ctx context.Context, id int64) (*models.GroupItem, error)
	Update(ctx context.Context, id int64, req models.UpdateGroupItemRequest) (bool, error)
	Delete(ctx context.Context, id int64, force bool) (bool, error)
	GetAll(ctx context.Context) ([]models.GroupItem, error)
	FindBy(ctx context.Context, criteria store.Criteria, limit, offset int) ([]models.GroupItem, error)
	// FindByTarget lists the group items wrapping one product or ingredient.
	FindByTarget(ctx context.Context, target models.ItemRef) ([]models.GroupItem, error)
}

// Repository implements GroupItemRepository
type Repository struct {
	records *repositories.Records[models.GroupItem]
}

var _ GroupItemRepository = (*Repository)(nil)

// NewRepository creates a new group item repository
func NewRepository(deps repositories.Deps) *Repository {
	return &Repository{
		records: repositories.NewRecords(models.RecordTypeGroupItem, deps, references.OfGroupItem),
	}
}

// Create stores a reference to (item_type, item_id). The target is not required
// to exist: resolution skips dangling references.
func (r *Repository) Create(ctx context.Context, req models.CreateGroupItemRequest) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "GroupItemRepository.Create")
	defer span.End()

	kind, err := models.ParseItemKind(string(req.ItemType))
	if err != nil {
		return 0, err
	}
	req.ItemType = kind
	if err := req.Validate(); err != nil {
		return 0, err
	}

	return r.records.Create(ctx, &models.GroupItem{
		ItemID:        req.ItemID,
		ItemType:      req.ItemType,
		OverridePrice: req.OverridePrice,
	})
}

// Get returns nil when the group item does not exist
func (r *Repository) Get(ctx context.Context, id int64) (*models.GroupItem, error) {
	ctx, span := tracing.StartSpan(ctx, "GroupItemRepository.Get")
	defer span.End()

	return r.records.Get(ctx, id)
}

// Update changes the supplied fields only. ClearOverridePrice drops the override
// so resolution falls back to the target's current price.
func (r *Repository) Update(ctx context.Context, id int64, req models.UpdateGroupItemRequest) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "GroupItemRepository.Update")
	defer span.End()

	if req.ItemType != nil {
		kind, err := models.ParseItemKind(string(*req.ItemType))
		if err != nil {
			return false, err
		}
		req.ItemType = &kind
	}
	if err := req.Validate(); err != nil {
		return false, err
	}

	changes := []repositories.Change{}
	if req.ItemID != nil {
		changes = append(changes, repositories.Change{Key: models.MetaKeyItemID, Value: *req.ItemID})
	}
	if req.ItemType != nil {
		changes = append(changes, repositories.Change{Key: models.MetaKeyItemType, Value: *req.ItemType})
	}
	switch {
	case req.ClearOverridePrice:
		changes = append(changes, repositories.Change{Key: "override_price", Value: nil})
	case req.OverridePrice != nil:
		changes = append(changes, repositories.Change{Key: "override_price", Value: *req.OverridePrice})
	}

	return r.records.Update(ctx, id, changes)
}

// Delete removes the group item unless a product group still lists it
func (r *Repository) Delete(ctx context.Context, id int64, force bool) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "GroupItemRepository.Delete")
	defer span.End()

	return r.records.Delete(ctx, id, (*models.GroupItem).Label, force)
}

func (r *Repository) GetAll(ctx context.Context) ([]models.GroupItem, error) {
	ctx, span := tracing.StartSpan(ctx, "GroupItemRepository.GetAll")
	defer span.End()

	return r.records.Find(ctx, nil, 0, 0)
}

func (r *Repository) FindBy(ctx context.Context, criteria store.Criteria, limit, offset int) ([]models.GroupItem, error) {
	ctx, span := tracing.StartSpan(ctx, "GroupItemRepository.FindBy")
	defer span.End()

	return r.records.Find(ctx, criteria, limit, offset)
}

func (r *Repository) FindByTarget(ctx context.Context, target models.ItemRef) ([]models.GroupItem, error) {
	ctx, span := tracing.StartSpan(ctx, "GroupItemRepository.FindByTarget")
	defer span.End()

	return r.records.Find(ctx, store.Criteria{
		models.MetaKeyItemType: target.Kind,
		models.MetaKeyItemID:   target.ID,
	}, 0, 0)
}
