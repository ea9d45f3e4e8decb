// Package availability maintains the per-branch availability overlay.
package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/squidly/pkg/events"
	"github.com/Ramsey-B/squidly/pkg/metrics"
	"github.com/Ramsey-B/squidly/pkg/models"
	"github.com/Ramsey-B/squidly/pkg/resolver"
	"github.com/Ramsey-B/squidly/pkg/store"
	"github.com/Ramsey-B/squidly/pkg/tracing"
)

const defaultLockTTL = 30 * time.Second

// Branches loads and persists store branches.
type Branches interface {
	Get(ctx context.Context, id int64) (*models.StoreBranch, error)
	Save(ctx context.Context, branch *models.StoreBranch) (bool, error)
}

// Locker serializes work on one key across processes.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func() error) error
}

type Deps struct {
	Store    store.EntityStore
	Branches Branches
	Source   resolver.Source
	Resolver *resolver.Resolver
	Events   *events.Emitter
	Logger   ectologger.Logger
	// Locker is optional. Without it concurrent writers to one branch race.
	Locker  Locker
	LockTTL time.Duration
}

type Service struct {
	deps Deps
}

func NewService(deps Deps) *Service {
	if deps.LockTTL <= 0 {
		deps.LockTTL = defaultLockTTL
	}
	return &Service{deps: deps}
}

// AddProduct lists the product at the branch with isActive and walks its groups
// depth first, listing every nested product and ingredient with the same flag.
// All changes are saved in one transaction and re-running converges to the same
// state. It returns false when the branch or the product does not exist.
func (s *Service) AddProduct(ctx context.Context, branchID, productID int64, isActive bool) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "availability.Service.AddProduct")
	defer span.End()
	tracing.SetRecord(span, string(models.RecordTypeStoreBranch), branchID)

	touched := 0
	ok, err := s.update(ctx, branchID, "add_product", func(ctx context.Context, branch *models.StoreBranch) (bool, error) {
		root, err := s.deps.Source.Product(ctx, productID)
		if err != nil || root == nil {
			return false, err
		}
		touched, err = s.cascade(ctx, branch, root, isActive)
		return err == nil, err
	}, map[string]any{"product_id": productID, "is_active": isActive})
	if err != nil || !ok {
		return ok, err
	}

	metrics.RecordCascade(touched)
	s.deps.Logger.WithContext(ctx).WithFields(map[string]any{
		"branch_id":  branchID,
		"product_id": productID,
		"is_active":  isActive,
		"touched":    touched,
	}).Info("added product to branch")

	return true, nil
}

// cascade applies the walk to branch in memory and returns how many items it touched.
func (s *Service) cascade(ctx context.Context, branch *models.StoreBranch, root *models.Product, isActive bool) (int, error) {
	branch.AddProduct(root.ID, isActive)
	touched := 1

	stack := []*models.Product{root}
	visited := map[int64]struct{}{}

	for len(stack) > 0 {
		product := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, ok := visited[product.ID]; ok {
			continue
		}
		visited[product.ID] = struct{}{}

		for _, groupID := range product.ProductGroupIDs {
			group, err := s.deps.Source.ProductGroup(ctx, groupID)
			if err != nil {
				return touched, err
			}
			if group == nil {
				continue
			}

			items, err := s.deps.Resolver.ResolveItems(ctx, group)
			if err != nil {
				return touched, fmt.Errorf("failed to resolve group %d: %w", groupID, err)
			}

			for _, resolved := range items {
				switch item := resolved.Item.(type) {
				case *models.Product:
					branch.AddProduct(item.ID, isActive)
					stack = append(stack, item)
				case *models.Ingredient:
					branch.AddIngredient(item.ID, isActive)
				}
				touched++
			}
		}
	}

	return touched, nil
}

// AddIngredient lists the ingredient at the branch with isActive.
func (s *Service) AddIngredient(ctx context.Context, branchID, ingredientID int64, isActive bool) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "availability.Service.AddIngredient")
	defer span.End()

	return s.update(ctx, branchID, "add_ingredient", func(_ context.Context, branch *models.StoreBranch) (bool, error) {
		branch.AddIngredient(ingredientID, isActive)
		return true, nil
	}, map[string]any{"ingredient_id": ingredientID, "is_active": isActive})
}

// RemoveProduct unlists the product. Items it pulled in stay listed since other
// products may share them.
func (s *Service) RemoveProduct(ctx context.Context, branchID, productID int64) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "availability.Service.RemoveProduct")
	defer span.End()

	return s.update(ctx, branchID, "remove_product", func(_ context.Context, branch *models.StoreBranch) (bool, error) {
		return branch.RemoveProduct(productID), nil
	}, map[string]any{"product_id": productID})
}

func (s *Service) RemoveIngredient(ctx context.Context, branchID, ingredientID int64) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "availability.Service.RemoveIngredient")
	defer span.End()

	return s.update(ctx, branchID, "remove_ingredient", func(_ context.Context, branch *models.StoreBranch) (bool, error) {
		return branch.RemoveIngredient(ingredientID), nil
	}, map[string]any{"ingredient_id": ingredientID})
}

func (s *Service) SetProductAvailability(ctx context.Context, branchID, productID int64, available bool) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "availability.Service.SetProductAvailability")
	defer span.End()

	return s.update(ctx, branchID, "set_product_availability", func(_ context.Context, branch *models.StoreBranch) (bool, error) {
		branch.SetProductAvailability(productID, available)
		return true, nil
	}, map[string]any{"product_id": productID, "is_active": available})
}

func (s *Service) SetIngredientAvailability(ctx context.Context, branchID, ingredientID int64, available bool) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "availability.Service.SetIngredientAvailability")
	defer span.End()

	return s.update(ctx, branchID, "set_ingredient_availability", func(_ context.Context, branch *models.StoreBranch) (bool, error) {
		branch.SetIngredientAvailability(ingredientID, available)
		return true, nil
	}, map[string]any{"ingredient_id": ingredientID, "is_active": available})
}

// IsProductAvailable is true unless the branch flags the product false. A
// missing branch reports false.
func (s *Service) IsProductAvailable(ctx context.Context, branchID, productID int64) (bool, error) {
	branch, err := s.deps.Branches.Get(ctx, branchID)
	if err != nil || branch == nil {
		return false, err
	}
	return branch.IsProductAvailable(productID), nil
}

// IsIngredientAvailable is true unless the branch flags the ingredient false. A
// missing branch reports false.
func (s *Service) IsIngredientAvailable(ctx context.Context, branchID, ingredientID int64) (bool, error) {
	branch, err := s.deps.Branches.Get(ctx, branchID)
	if err != nil || branch == nil {
		return false, err
	}
	return branch.IsIngredientAvailable(ingredientID), nil
}

// AddActivityTime adds slot to day. day is matched case-insensitively against
// the seven weekday names and slot must read HH:MM-HH:MM.
func (s *Service) AddActivityTime(ctx context.Context, branchID int64, day, slot string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "availability.Service.AddActivityTime")
	defer span.End()

	if err := validateActivityTime(day, slot); err != nil {
		return false, err
	}

	return s.update(ctx, branchID, "add_activity_time", func(_ context.Context, branch *models.StoreBranch) (bool, error) {
		return branch.AddActivityTime(day, slot)
	}, map[string]any{"day": day, "slot": slot})
}

func (s *Service) RemoveActivityTime(ctx context.Context, branchID int64, day, slot string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "availability.Service.RemoveActivityTime")
	defer span.End()

	if err := validateActivityTime(day, slot); err != nil {
		return false, err
	}

	return s.update(ctx, branchID, "remove_activity_time", func(_ context.Context, branch *models.StoreBranch) (bool, error) {
		return branch.RemoveActivityTime(day, slot)
	}, map[string]any{"day": day, "slot": slot})
}

func validateActivityTime(day, slot string) error {
	if _, err := models.ParseWeekday(day); err != nil {
		return err
	}
	_, err := models.ParseTimeSlot(slot)
	return err
}

// IsOpenAt reports whether the branch is open at t. A missing branch reports false.
func (s *Service) IsOpenAt(ctx context.Context, branchID int64, t time.Time) (bool, error) {
	branch, err := s.deps.Branches.Get(ctx, branchID)
	if err != nil || branch == nil {
		return false, err
	}
	return branch.IsOpenAt(t), nil
}

// update loads the branch, applies change and saves it in one transaction under
// the branch lock. change reports whether it modified the branch; nothing is
// saved or emitted otherwise.
func (s *Service) update(
	ctx context.Context,
	branchID int64,
	name string,
	change func(ctx context.Context, branch *models.StoreBranch) (bool, error),
	details map[string]any,
) (bool, error) {
	changed := false
	run := func() error {
		return s.deps.Store.RunInTx(ctx, func(ctx context.Context) error {
			branch, err := s.deps.Branches.Get(ctx, branchID)
			if err != nil || branch == nil {
				return err
			}
			ok, err := change(ctx, branch)
			if err != nil || !ok {
				return err
			}
			if changed, err = s.deps.Branches.Save(ctx, branch); err != nil {
				return err
			}
			return nil
		})
	}

	var err error
	if s.deps.Locker != nil {
		err = s.deps.Locker.WithLock(ctx, fmt.Sprintf("branch:%d", branchID), s.deps.LockTTL, run)
	} else {
		err = run()
	}
	if err != nil {
		return false, err
	}

	if changed {
		s.deps.Events.BranchUpdated(ctx, branchID, name, details)
	}
	return changed, nil
}
