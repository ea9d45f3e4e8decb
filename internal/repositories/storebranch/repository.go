package storebranch

import (
	"context"

	"github.com/Ramsey-B/squidly/internal/repositories"
	"github.com/Ramsey-B/squidly/pkg/models"
	"github.com/Ramsey-B/squidly/pkg/store"
	"github.com/Ramsey-B/squidly/pkg/tracing"
)

// StoreBranchRepository defines the interface for store branch operations
type StoreBranchRepository interface {
	Create(ctx context.Context, req models.CreateStoreBranchRequest) (int64, error)
	Get(ctx context.Context, id int64) (*models.StoreBranch, error)
	Update(ctx context.Context, id int64, req models.UpdateStoreBranchRequest) (bool, error)
	Save(ctx context.Context, branch *models.StoreBranch) (bool, error)
	Delete(ctx context.Context, id int64, force bool) (bool, error)
	GetAll(ctx context.Context) ([]models.StoreBranch, error)
	FindBy(ctx context.Context, criteria store.Criteria, limit, offset int) ([]models.StoreBranch, error)
}

// Repository implements StoreBranchRepository
type Repository struct {
	records *repositories.Records[models.StoreBranch]
}

var _ StoreBranchRepository = (*Repository)(nil)

// NewRepository creates a new store branch repository. Nothing references a
// branch, so deletes are never guarded.
func NewRepository(deps repositories.Deps) *Repository {
	deps.Guard = nil
	return &Repository{
		records: repositories.NewRecords[models.StoreBranch](models.RecordTypeStoreBranch, deps, nil),
	}
}

// Create validates req and stores a branch with an empty availability overlay
func (r *Repository) Create(ctx context.Context, req models.CreateStoreBranchRequest) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "StoreBranchRepository.Create")
	defer span.End()

	if err := req.Validate(); err != nil {
		return 0, err
	}
	activityTimes, err := models.NormalizeActivityTimes(req.ActivityTimes)
	if err != nil {
		return 0, err
	}

	return r.records.Create(ctx, &models.StoreBranch{
		Name:                   req.Name,
		Phone:                  req.Phone,
		City:                   req.City,
		Address:                req.Address,
		IsOpen:                 req.IsOpen,
		ActivityTimes:          activityTimes,
		KosherType:             req.KosherType,
		AccessibilityList:      repositories.NonNil(req.AccessibilityList),
		Products:               []int64{},
		Ingredients:            []int64{},
		ProductAvailability:    map[int64]bool{},
		IngredientAvailability: map[int64]bool{},
	})
}

// Get returns nil when the branch does not exist
func (r *Repository) Get(ctx context.Context, id int64) (*models.StoreBranch, error) {
	ctx, span := tracing.StartSpan(ctx, "StoreBranchRepository.Get")
	defer span.End()

	branch, err := r.records.Get(ctx, id)
	if err != nil || branch == nil {
		return nil, err
	}
	ensureOverlay(branch)
	return branch, nil
}

// Update changes the supplied descriptive fields only. The overlay is changed
// through Save.
func (r *Repository) Update(ctx context.Context, id int64, req models.UpdateStoreBranchRequest) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "StoreBranchRepository.Update")
	defer span.End()

	if err := req.Validate(); err != nil {
		return false, err
	}

	changes := []repositories.Change{}
	if req.Name != nil {
		changes = append(changes, repositories.Change{Key: "name", Value: *req.Name})
	}
	if req.Phone != nil {
		changes = append(changes, repositories.Change{Key: "phone", Value: *req.Phone})
	}
	if req.City != nil {
		changes = append(changes, repositories.Change{Key: "city", Value: *req.City})
	}
	if req.Address != nil {
		changes = append(changes, repositories.Change{Key: "address", Value: *req.Address})
	}
	if req.IsOpen != nil {
		changes = append(changes, repositories.Change{Key: "is_open", Value: *req.IsOpen})
	}
	if req.ActivityTimes != nil {
		activityTimes, err := models.NormalizeActivityTimes(*req.ActivityTimes)
		if err != nil {
			return false, err
		}
		changes = append(changes, repositories.Change{Key: "activity_times", Value: activityTimes})
	}
	if req.KosherType != nil {
		changes = append(changes, repositories.Change{Key: "kosher_type", Value: *req.KosherType})
	}
	if req.AccessibilityList != nil {
		changes = append(changes, repositories.Change{Key: "accessibility_list", Value: repositories.NonNil(*req.AccessibilityList)})
	}

	return r.records.Update(ctx, id, changes)
}

// Save writes the branch's availability overlay and business hours
func (r *Repository) Save(ctx context.Context, branch *models.StoreBranch) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "StoreBranchRepository.Save")
	defer span.End()
	tracing.SetRecord(span, string(models.RecordTypeStoreBranch), branch.ID)

	ensureOverlay(branch)
	return r.records.Update(ctx, branch.ID, []repositories.Change{
		{Key: "products", Value: branch.Products},
		{Key: "ingredients", Value: branch.Ingredients},
		{Key: "product_availability", Value: branch.ProductAvailability},
		{Key: "ingredient_availability", Value: branch.IngredientAvailability},
		{Key: "activity_times", Value: branch.ActivityTimes},
	})
}

// Delete trashes the branch, or purges it when force is set
func (r *Repository) Delete(ctx context.Context, id int64, force bool) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "StoreBranchRepository.Delete")
	defer span.End()

	return r.records.Delete(ctx, id, func(b *models.StoreBranch) string { return b.Name }, force)
}

func (r *Repository) GetAll(ctx context.Context) ([]models.StoreBranch, error) {
	ctx, span := tracing.StartSpan(ctx, "StoreBranchRepository.GetAll")
	defer span.End()

	return r.FindBy(ctx, nil, 0, 0)
}

func (r *Repository) FindBy(ctx context.Context, criteria store.Criteria, limit, offset int) ([]models.StoreBranch, error) {
	ctx, span := tracing.StartSpan(ctx, "StoreBranchRepository.FindBy")
	defer span.End()

	branches, err := r.records.Find(ctx, criteria, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range branches {
		ensureOverlay(&branches[i])
	}
	return branches, nil
}

func ensureOverlay(branch *models.StoreBranch) {
	branch.Products = repositories.NonNil(branch.Products)
	branch.Ingredients = repositories.NonNil(branch.Ingredients)
	branch.AccessibilityList = repositories.NonNil(branch.AccessibilityList)
	if branch.ProductAvailability == nil {
		branch.ProductAvailability = map[int64]bool{}
	}
	if branch.IngredientAvailability == nil {
		branch.IngredientAvailability = map[int64]bool{}
	}
	if branch.ActivityTimes == nil {
		branch.ActivityTimes = map[models.Weekday][]string{}
	}
}
