package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	menuerrors "github.com/Ramsey-B/squidly/pkg/errors"
)

func TestStoreBranch_AvailabilityDefaultsToTrue(t *testing.T) {
	branch := &StoreBranch{
		Products:            []int64{1, 2, 3},
		ProductAvailability: map[int64]bool{2: false, 3: true},
	}

	assert.True(t, branch.IsProductAvailable(1), "no entry means available")
	assert.False(t, branch.IsProductAvailable(2))
	assert.True(t, branch.IsProductAvailable(3))
	assert.True(t, branch.IsProductAvailable(99), "ids never listed are not blocked")
	assert.True(t, branch.IsIngredientAvailable(5), "nil map means available")
}

func TestStoreBranch_AddProductIsIdempotent(t *testing.T) {
	branch := &StoreBranch{}

	branch.AddProduct(7, true)
	branch.AddProduct(7, false)

	assert.Equal(t, []int64{7}, branch.Products)
	assert.False(t, branch.IsProductAvailable(7), "last flag wins")
}

func TestStoreBranch_RemoveDoesNotTouchOtherItems(t *testing.T) {
	branch := &StoreBranch{}
	branch.AddProduct(1, true)
	branch.AddProduct(2, false)
	branch.AddIngredient(10, true)

	assert.True(t, branch.RemoveProduct(2))
	assert.False(t, branch.RemoveProduct(2), "second remove is a no-op")

	assert.Equal(t, []int64{1}, branch.Products)
	assert.NotContains(t, branch.ProductAvailability, int64(2))
	assert.Equal(t, []int64{10}, branch.Ingredients)

	assert.True(t, branch.RemoveIngredient(10))
	assert.Empty(t, branch.Ingredients)
	assert.Empty(t, branch.IngredientAvailability)
}

func TestStoreBranch_AddActivityTime(t *testing.T) {
	t.Run("rejects unknown day", func(t *testing.T) {
		branch := &StoreBranch{}
		_, err := branch.AddActivityTime("Funday", "09:00-17:00")
		require.Error(t, err)
		assert.True(t, menuerrors.IsValidationError(err))
		assert.Empty(t, branch.ActivityTimes)
	})

	t.Run("normalizes lower case day", func(t *testing.T) {
		branch := &StoreBranch{}
		changed, err := branch.AddActivityTime("monday", "09:00-17:00")
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, []string{"09:00-17:00"}, branch.ActivityTimes[Monday])
	})

	t.Run("deduplicates slots", func(t *testing.T) {
		branch := &StoreBranch{}
		_, err := branch.AddActivityTime("TUESDAY", "09:00-12:00")
		require.NoError(t, err)
		changed, err := branch.AddActivityTime("Tuesday", " 09:00-12:00 ")
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Len(t, branch.ActivityTimes[Tuesday], 1)
	})

	t.Run("rejects malformed slot", func(t *testing.T) {
		branch := &StoreBranch{}
		_, err := branch.AddActivityTime("friday", "9-5")
		require.Error(t, err)
		assert.True(t, menuerrors.IsValidationError(err))

		_, err = branch.AddActivityTime("friday", "25:00-26:00")
		require.Error(t, err)
	})
}

func TestStoreBranch_RemoveActivityTime(t *testing.T) {
	branch := &StoreBranch{}
	_, _ = branch.AddActivityTime("sunday", "08:00-11:00")
	_, _ = branch.AddActivityTime("sunday", "18:00-23:00")

	removed, err := branch.RemoveActivityTime("Sunday", "08:00-11:00")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []string{"18:00-23:00"}, branch.ActivityTimes[Sunday])

	removed, err = branch.RemoveActivityTime("sunday", "08:00-11:00")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = branch.RemoveActivityTime("sunday", "18:00-23:00")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.NotContains(t, branch.ActivityTimes, Sunday)

	_, err = branch.RemoveActivityTime("someday", "18:00-23:00")
	assert.Error(t, err)
}

func TestStoreBranch_IsOpenAt(t *testing.T) {
	branch := &StoreBranch{IsOpen: true}
	_, _ = branch.AddActivityTime("monday", "09:00-17:00")
	_, _ = branch.AddActivityTime("friday", "20:00-02:00")

	// 2024-01-01 is a Monday.
	monday := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{name: "inside slot", at: monday.Add(10 * time.Hour), want: true},
		{name: "slot end is exclusive", at: monday.Add(17 * time.Hour), want: false},
		{name: "before opening", at: monday.Add(8*time.Hour + 59*time.Minute), want: false},
		{name: "day without slots", at: monday.Add(24*time.Hour + 10*time.Hour), want: false},
		{name: "late friday", at: monday.Add(4*24*time.Hour + 23*time.Hour), want: true},
		{name: "friday slot carries into saturday", at: monday.Add(5*24*time.Hour + time.Hour), want: true},
		{name: "carry over ends", at: monday.Add(5*24*time.Hour + 2*time.Hour), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, branch.IsOpenAt(tt.at))
		})
	}

	branch.IsOpen = false
	assert.False(t, branch.IsOpenAt(monday.Add(10*time.Hour)), "closed flag overrides hours")
}

func TestNormalizeActivityTimes(t *testing.T) {
	normalized, err := NormalizeActivityTimes(map[string][]string{
		"monday":   {"09:00-12:00", "09:00-12:00", "13:00-17:00"},
		"Saturday": {},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00-12:00", "13:00-17:00"}, normalized[Monday])
	assert.Contains(t, normalized, Saturday)

	_, err = NormalizeActivityTimes(map[string][]string{"Funday": {"09:00-12:00"}})
	assert.Error(t, err)
}
