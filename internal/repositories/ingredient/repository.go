package ingredient

import (
	"context"

	"github.com/Ramsey-B/squidly/internal/repositories"
	"github.com/Ramsey-B/squidly/pkg/models"
	"github.com/Ramsey-B/squidly/pkg/store"
	"github.com/Ramsey-B/squidly/pkg/tracing"
)

// IngredientRepository defines the interface for ingredient operations
type IngredientRepository interface {
	Create(ctx context.Context, req models.CreateIngredientRequest) (int64, error)
	Get(ctx context.Context, id int64) (*models.Ingredient, error)
	Update(ctx context.Context, id int64, req models.UpdateIngredientRequest) (bool, error)
	Delete(ctx context.Context, id int64, force bool) (bool, error)
	GetAll(ctx context.Context) ([]models.Ingredient, error)
	FindBy(ctx context.Context, criteria store.Criteria, limit, offset int) ([]models.Ingredient, error)
}

// Repository implements IngredientRepository
type Repository struct {
	records *repositories.Records[models.Ingredient]
}

var _ IngredientRepository = (*Repository)(nil)

// NewRepository creates a new ingredient repository
func NewRepository(deps repositories.Deps) *Repository {
	return &Repository{
		records: repositories.NewRecords[models.Ingredient](models.RecordTypeIngredient, deps, nil),
	}
}

// Create validates req and stores a new ingredient
func (r *Repository) Create(ctx context.Context, req models.CreateIngredientRequest) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "IngredientRepository.Create")
	defer span.End()

	if err := req.Validate(); err != nil {
		return 0, err
	}

	return r.records.Create(ctx, &models.Ingredient{Name: req.Name, Price: req.Price})
}

// Get returns nil when the ingredient does not exist
func (r *Repository) Get(ctx context.Context, id int64) (*models.Ingredient, error) {
	ctx, span := tracing.StartSpan(ctx, "IngredientRepository.Get")
	defer span.End()

	return r.records.Get(ctx, id)
}

// Update changes the supplied fields only
func (r *Repository) Update(ctx context.Context, id int64, req models.UpdateIngredientRequest) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "IngredientRepository.Update")
	defer span.End()

	if err := req.Validate(); err != nil {
		return false, err
	}

	changes := []repositories.Change{}
	if req.Name != nil {
		changes = append(changes, repositories.Change{Key: "name", Value: *req.Name})
	}
	if req.Price != nil {
		changes = append(changes, repositories.Change{Key: "price", Value: *req.Price})
	}

	return r.records.Update(ctx, id, changes)
}

// Delete removes the ingredient unless a group item still wraps it
func (r *Repository) Delete(ctx context.Context, id int64, force bool) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "IngredientRepository.Delete")
	defer span.End()

	return r.records.Delete(ctx, id, func(i *models.Ingredient) string { return i.Name }, force)
}

func (r *Repository) GetAll(ctx context.Context) ([]models.Ingredient, error) {
	ctx, span := tracing.StartSpan(ctx, "IngredientRepository.GetAll")
	defer span.End()

	return r.records.Find(ctx, nil, 0, 0)
}

func (r *Repository) FindBy(ctx context.Context, criteria store.Criteria, limit, offset int) ([]models.Ingredient, error) {
	ctx, span := tracing.StartSpan(ctx, "IngredientRepository.FindBy")
	defer span.End()

	return r.records.Find(ctx, criteria, limit, offset)
}
