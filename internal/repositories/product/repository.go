package product

import (
	"context"

	"github.com/Ramsey-B/squidly/internal/repositories"
	"github.com/Ramsey-B/squidly/pkg/models"
	"github.com/Ramsey-B/squidly/pkg/references"
	"github.com/Ramsey-B/squidly/pkg/store"
	"github.com/Ramsey-B/squidly/pkg/tracing"
)

// ProductRepository defines the interface for product operations
type ProductRepository interface {
	Create(ctx context.Context, req models.CreateProductRequest) (int64, error)
	Get(ctx context.Context, id int64) (*models.Product, error)
	Update(ctx context.Context, id int64, req models.UpdateProductRequest) (bool, error)
	Delete(ctx context.Context, id int64, force bool) (bool, error)
	GetAll(ctx context.Context) ([]models.Product, error)
	FindBy(ctx context.Context, criteria store.Criteria, limit, offset int) ([]models.Product, error)
}

// Repository implements ProductRepository
type Repository struct {
	records *repositories.Records[models.Product]
}

var _ ProductRepository = (*Repository)(nil)

// NewRepository creates a new product repository
func NewRepository(deps repositories.Deps) *Repository {
	return &Repository{
		records: repositories.NewRecords(models.RecordTypeProduct, deps, references.OfProduct),
	}
}

// Create validates req and stores a new product with its group list in order
func (r *Repository) Create(ctx context.Context, req models.CreateProductRequest) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "ProductRepository.Create")
	defer span.End()

	if err := req.Validate(); err != nil {
		return 0, err
	}

	product := &models.Product{
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		DiscountedPrice: req.DiscountedPrice,
		Category:        req.Category,
		Tags:            repositories.NonNil(req.Tags),
		ProductGroupIDs: repositories.NonNil(req.ProductGroupIDs),
	}

	return r.records.Create(ctx, product)
}

// Get returns nil when the product does not exist
func (r *Repository) Get(ctx context.Context, id int64) (*models.Product, error) {
	ctx, span := tracing.StartSpan(ctx, "ProductRepository.Get")
	defer span.End()

	return r.records.Get(ctx, id)
}

// Update changes the supplied fields only. The Clear flags null out the optional fields.
func (r *Repository) Update(ctx context.Context, id int64, req models.UpdateProductRequest) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "ProductRepository.Update")
	defer span.End()

	if err := req.Validate(); err != nil {
		return false, err
	}

	changes := []repositories.Change{}
	if req.Name != nil {
		changes = append(changes, repositories.Change{Key: "name", Value: *req.Name})
	}
	if req.Description != nil {
		changes = append(changes, repositories.Change{Key: "description", Value: *req.Description})
	}
	if req.Price != nil {
		changes = append(changes, repositories.Change{Key: "price", Value: *req.Price})
	}
	switch {
	case req.ClearDiscountedPrice:
		changes = append(changes, repositories.Change{Key: "discounted_price", Value: nil})
	case req.DiscountedPrice != nil:
		changes = append(changes, repositories.Change{Key: "discounted_price", Value: *req.DiscountedPrice})
	}
	switch {
	case req.ClearCategory:
		changes = append(changes, repositories.Change{Key: "category", Value: nil})
	case req.Category != nil:
		changes = append(changes, repositories.Change{Key: "category", Value: *req.Category})
	}
	if req.Tags != nil {
		changes = append(changes, repositories.Change{Key: "tags", Value: repositories.NonNil(*req.Tags)})
	}
	if req.ProductGroupIDs != nil {
		changes = append(changes, repositories.Change{Key: models.MetaKeyProductGroupIDs, Value: repositories.NonNil(*req.ProductGroupIDs)})
	}

	return r.records.Update(ctx, id, changes)
}

// Delete removes the product unless a group item wraps it. The product's own
// groups do not block it.
func (r *Repository) Delete(ctx context.Context, id int64, force bool) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "ProductRepository.Delete")
	defer span.End()

	return r.records.Delete(ctx, id, func(p *models.Product) string { return p.Name }, force)
}

func (r *Repository) GetAll(ctx context.Context) ([]models.Product, error) {
	ctx, span := tracing.StartSpan(ctx, "ProductRepository.GetAll")
	defer span.End()

	return r.records.Find(ctx, nil, 0, 0)
}

func (r *Repository) FindBy(ctx context.Context, criteria store.Criteria, limit, offset int) ([]models.Product, error) {
	ctx, span := tracing.StartSpan(ctx, "ProductRepository.FindBy")
	defer span.End()

	return r.records.Find(ctx, criteria, limit, offset)
}
