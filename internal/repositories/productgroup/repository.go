package productgroup

import (
	"context"

	"github.com/Ramsey-B/squidly/internal/repositories"
	"github.com/Ramsey-B/squidly/pkg/models"
	"github.com/Ramsey-B/squidly/pkg/references"
	"github.com/Ramsey-B/squidly/pkg/store"
	"github.com/Ramsey-B/squidly/pkg/tracing"
)

// ProductGroupRepository defines the interface for product group operations
type ProductGroupRepository interface {
	Create(ctx context.Context, req models.CreateProductGroupRequest) (int64, error)
	Get(ctx context.Context, id int64) (*models.ProductGroup, error)
	Update(ctx context.Context, id int64, req models.UpdateProductGroupRequest) (bool, error)
	Delete(ctx context.Context, id int64, force bool) (bool, error)
	GetAll(ctx context.Context) ([]models.ProductGroup, error)
	FindBy(ctx context.Context, criteria store.Criteria, limit, offset int) ([]models.ProductGroup, error)
}

// Repository implements ProductGroupRepository
type Repository struct {
	records *repositories.Records[models.ProductGroup]
}

var _ ProductGroupRepository = (*Repository)(nil)

// NewRepository creates a new product group repository
func NewRepository(deps repositories.Deps) *Repository {
	return &Repository{
		records: repositories.NewRecords(models.RecordTypeProductGroup, deps, references.OfProductGroup),
	}
}

// Create validates req and stores a new group with its item list in order
func (r *Repository) Create(ctx context.Context, req models.CreateProductGroupRequest) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "ProductGroupRepository.Create")
	defer span.End()

	kind, err := models.ParseItemKind(string(req.Type))
	if err != nil {
		return 0, err
	}
	req.Type = kind
	if err := req.Validate(); err != nil {
		return 0, err
	}

	return r.records.Create(ctx, &models.ProductGroup{
		Name:         req.Name,
		Type:         req.Type,
		GroupItemIDs: repositories.NonNil(req.GroupItemIDs),
	})
}

// Get returns nil when the group does not exist
func (r *Repository) Get(ctx context.Context, id int64) (*models.ProductGroup, error) {
	ctx, span := tracing.StartSpan(ctx, "ProductGroupRepository.Get")
	defer span.End()

	return r.records.Get(ctx, id)
}

// Update changes the supplied fields only
func (r *Repository) Update(ctx context.Context, id int64, req models.UpdateProductGroupRequest) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "ProductGroupRepository.Update")
	defer span.End()

	if req.Type != nil {
		kind, err := models.ParseItemKind(string(*req.Type))
		if err != nil {
			return false, err
		}
		req.Type = &kind
	}
	if err := req.Validate(); err != nil {
		return false, err
	}

	changes := []repositories.Change{}
	if req.Name != nil {
		changes = append(changes, repositories.Change{Key: "name", Value: *req.Name})
	}
	if req.Type != nil {
		changes = append(changes, repositories.Change{Key: "type", Value: *req.Type})
	}
	if req.GroupItemIDs != nil {
		changes = append(changes, repositories.Change{Key: models.MetaKeyGroupItemIDs, Value: repositories.NonNil(*req.GroupItemIDs)})
	}

	return r.records.Update(ctx, id, changes)
}

// Delete removes the group unless a product still lists it
func (r *Repository) Delete(ctx context.Context, id int64, force bool) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "ProductGroupRepository.Delete")
	defer span.End()

	return r.records.Delete(ctx, id, func(g *models.ProductGroup) string { return g.Name }, force)
}

func (r *Repository) GetAll(ctx context.Context) ([]models.ProductGroup, error) {
	ctx, span := tracing.StartSpan(ctx, "ProductGroupRepository.GetAll")
	defer span.End()

	return r.records.Find(ctx, nil, 0, 0)
}

func (r *Repository) FindBy(ctx context.Context, criteria store.Criteria, limit, offset int) ([]models.ProductGroup, error) {
	ctx, span := tracing.StartSpan(ctx, "ProductGroupRepository.FindBy")
	defer span.End()

	return r.records.Find(ctx, criteria, limit, offset)
}
