package storebranch

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/squidly/internal/repositories"
	"github.com/Ramsey-B/squidly/pkg/dependency"
	"github.com/Ramsey-B/squidly/pkg/models"
	"github.com/Ramsey-B/squidly/pkg/references"
	"github.com/Ramsey-B/squidly/pkg/store"
)

func setupRepo() *Repository {
	s := store.NewMemoryStore()
	idx := references.NewIndex()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewRepository(repositories.Deps{
		Store:   s,
		Tracker: idx,
		Guard:   dependency.NewGuard(idx, s, logger),
		Logger:  logger,
	})
}

func TestRepository_CreateNormalizesActivityTimes(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo()

	id, err := repo.Create(ctx, models.CreateStoreBranchRequest{
		Name:   "Downtown",
		City:   "Haifa",
		IsOpen: true,
		ActivityTimes: map[string][]string{
			"monday":  {"09:00-17:00", "09:00-17:00"},
			"Tuesday": {"10:00-22:00"},
		},
	})
	require.NoError(t, err)

	branch, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, branch)
	assert.Equal(t, []string{"09:00-17:00"}, branch.ActivityTimes[models.Monday])
	assert.Equal(t, []string{"10:00-22:00"}, branch.ActivityTimes[models.Tuesday])
	assert.Empty(t, branch.Products)
	assert.NotNil(t, branch.ProductAvailability)
}

func TestRepository_CreateRejectsBadWeekday(t *testing.T) {
	_, err := setupRepo().Create(context.Background(), models.CreateStoreBranchRequest{
		Name:          "Uptown",
		ActivityTimes: map[string][]string{"Funday": {"09:00-17:00"}},
	})
	assert.Error(t, err)
}

func TestRepository_SaveOverlay(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo()

	id, err := repo.Create(ctx, models.CreateStoreBranchRequest{Name: "Harbor"})
	require.NoError(t, err)

	branch, err := repo.Get(ctx, id)
	require.NoError(t, err)
	branch.AddProduct(11, true)
	branch.AddIngredient(21, false)

	ok, err := repo.Save(ctx, branch)
	require.NoError(t, err)
	require.True(t, ok)

	reloaded, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []int64{11}, reloaded.Products)
	assert.Equal(t, []int64{21}, reloaded.Ingredients)
	assert.True(t, reloaded.IsProductAvailable(11))
	assert.False(t, reloaded.IsIngredientAvailable(21))
	assert.Equal(t, "Harbor", reloaded.Name)
}

func TestRepository_UpdateLeavesOverlayAlone(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo()

	id, err := repo.Create(ctx, models.CreateStoreBranchRequest{Name: "Mall"})
	require.NoError(t, err)
	branch, _ := repo.Get(ctx, id)
	branch.AddProduct(5, true)
	_, err = repo.Save(ctx, branch)
	require.NoError(t, err)

	phone := "03-555-1234"
	ok, err := repo.Update(ctx, id, models.UpdateStoreBranchRequest{Phone: &phone})
	require.NoError(t, err)
	require.True(t, ok)

	reloaded, _ := repo.Get(ctx, id)
	assert.Equal(t, phone, reloaded.Phone)
	assert.Equal(t, []int64{5}, reloaded.Products)
}

func TestRepository_DeleteIsNeverGuarded(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo()

	id, err := repo.Create(ctx, models.CreateStoreBranchRequest{Name: "Airport"})
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, id, false)
	require.NoError(t, err)
	assert.True(t, deleted)

	gone, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, gone)
}
