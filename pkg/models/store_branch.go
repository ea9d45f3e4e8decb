package models

import (
	"time"

	"github.com/Gobusters/ectolinq"
)

type StoreBranch struct {
	ID                     int64                `json:"id"`
	Name                   string               `json:"name"`
	Phone                  string               `json:"phone"`
	City                   string               `json:"city"`
	Address                string               `json:"address"`
	IsOpen                 bool                 `json:"is_open"`
	ActivityTimes          map[Weekday][]string `json:"activity_times"`
	KosherType             string               `json:"kosher_type"`
	AccessibilityList      []string             `json:"accessibility_list"`
	Products               []int64              `json:"products"`
	Ingredients            []int64              `json:"ingredients"`
	ProductAvailability    map[int64]bool       `json:"product_availability"`
	IngredientAvailability map[int64]bool       `json:"ingredient_availability"`
}

// IsProductAvailable is true unless the product is explicitly flagged false.
func (b *StoreBranch) IsProductAvailable(productID int64) bool {
	available, ok := b.ProductAvailability[productID]
	return !ok || available
}

// IsIngredientAvailable is true unless the ingredient is explicitly flagged false.
func (b *StoreBranch) IsIngredientAvailable(ingredientID int64) bool {
	available, ok := b.IngredientAvailability[ingredientID]
	return !ok || available
}

// AddProduct lists the product once and sets its flag.
func (b *StoreBranch) AddProduct(productID int64, isActive bool) {
	if !ectolinq.Contains(b.Products, productID) {
		b.Products = append(b.Products, productID)
	}
	b.SetProductAvailability(productID, isActive)
}

// AddIngredient lists the ingredient once and sets its flag.
func (b *StoreBranch) AddIngredient(ingredientID int64, isActive bool) {
	if !ectolinq.Contains(b.Ingredients, ingredientID) {
		b.Ingredients = append(b.Ingredients, ingredientID)
	}
	b.SetIngredientAvailability(ingredientID, isActive)
}

// RemoveProduct drops the product and its flag. Nested items are left in place.
func (b *StoreBranch) RemoveProduct(productID int64) bool {
	_, flagged := b.ProductAvailability[productID]
	delete(b.ProductAvailability, productID)

	before := len(b.Products)
	b.Products = ectolinq.Filter(b.Products, func(id int64) bool { return id != productID })
	return flagged || len(b.Products) != before
}

// RemoveIngredient drops the ingredient and its flag.
func (b *StoreBranch) RemoveIngredient(ingredientID int64) bool {
	_, flagged := b.IngredientAvailability[ingredientID]
	delete(b.IngredientAvailability, ingredientID)

	before := len(b.Ingredients)
	b.Ingredients = ectolinq.Filter(b.Ingredients, func(id int64) bool { return id != ingredientID })
	return flagged || len(b.Ingredients) != before
}

func (b *StoreBranch) SetProductAvailability(productID int64, available bool) {
	if b.ProductAvailability == nil {
		b.ProductAvailability = map[int64]bool{}
	}
	b.ProductAvailability[productID] = available
}

func (b *StoreBranch) SetIngredientAvailability(ingredientID int64, available bool) {
	if b.IngredientAvailability == nil {
		b.IngredientAvailability = map[int64]bool{}
	}
	b.IngredientAvailability[ingredientID] = available
}

// AddActivityTime appends slot to day unless it is already listed. It returns
// whether the branch changed.
func (b *StoreBranch) AddActivityTime(day string, slot string) (bool, error) {
	weekday, canonical, err := parseActivityTime(day, slot)
	if err != nil {
		return false, err
	}

	if ectolinq.Contains(b.ActivityTimes[weekday], canonical) {
		return false, nil
	}
	if b.ActivityTimes == nil {
		b.ActivityTimes = map[Weekday][]string{}
	}
	b.ActivityTimes[weekday] = append(b.ActivityTimes[weekday], canonical)
	return true, nil
}

// RemoveActivityTime removes slot from day. It returns whether the slot was listed.
func (b *StoreBranch) RemoveActivityTime(day string, slot string) (bool, error) {
	weekday, canonical, err := parseActivityTime(day, slot)
	if err != nil {
		return false, err
	}

	slots, ok := b.ActivityTimes[weekday]
	if !ok || !ectolinq.Contains(slots, canonical) {
		return false, nil
	}

	slots = ectolinq.Filter(slots, func(s string) bool { return s != canonical })
	if len(slots) == 0 {
		delete(b.ActivityTimes, weekday)
	} else {
		b.ActivityTimes[weekday] = slots
	}
	return true, nil
}

// IsOpenAt reports whether the branch is open and t falls inside one of its
// activity slots. Slots running past midnight cover the early hours of the next day.
func (b *StoreBranch) IsOpenAt(t time.Time) bool {
	if !b.IsOpen {
		return false
	}

	minute := t.Hour()*60 + t.Minute()
	today := WeekdayOf(t.Weekday())
	yesterday := WeekdayOf((t.Weekday() + 6) % 7)

	for _, raw := range b.ActivityTimes[today] {
		if slot, err := ParseTimeSlot(raw); err == nil && slot.OpenAt(minute) {
			return true
		}
	}
	for _, raw := range b.ActivityTimes[yesterday] {
		if slot, err := ParseTimeSlot(raw); err == nil && slot.OpenNextDayAt(minute) {
			return true
		}
	}
	return false
}

func parseActivityTime(day string, slot string) (Weekday, string, error) {
	weekday, err := ParseWeekday(day)
	if err != nil {
		return "", "", err
	}
	parsed, err := ParseTimeSlot(slot)
	if err != nil {
		return "", "", err
	}
	return weekday, parsed.String(), nil
}

// NormalizeActivityTimes validates every day and slot, canonicalizes the keys
// and drops duplicate slots.
func NormalizeActivityTimes(times map[string][]string) (map[Weekday][]string, error) {
	normalized := map[Weekday][]string{}
	for day, slots := range times {
		for _, slot := range slots {
			weekday, canonical, err := parseActivityTime(day, slot)
			if err != nil {
				return nil, err
			}
			if !ectolinq.Contains(normalized[weekday], canonical) {
				normalized[weekday] = append(normalized[weekday], canonical)
			}
		}
		if len(slots) == 0 {
			weekday, err := ParseWeekday(day)
			if err != nil {
				return nil, err
			}
			if _, ok := normalized[weekday]; !ok {
				normalized[weekday] = []string{}
			}
		}
	}
	return normalized, nil
}

type CreateStoreBranchRequest struct {
	Name              string              `json:"name" validate:"required"`
	Phone             string              `json:"phone"`
	City              string              `json:"city"`
	Address           string              `json:"address"`
	IsOpen            bool                `json:"is_open"`
	ActivityTimes     map[string][]string `json:"activity_times"`
	KosherType        string              `json:"kosher_type"`
	AccessibilityList []string            `json:"accessibility_list" validate:"dive,required"`
}

func (r CreateStoreBranchRequest) Validate() error {
	if err := Validate(r); err != nil {
		return err
	}
	if err := ValidateName("name", r.Name); err != nil {
		return err
	}
	_, err := NormalizeActivityTimes(r.ActivityTimes)
	return err
}

type UpdateStoreBranchRequest struct {
	Name              *string              `json:"name,omitempty"`
	Phone             *string              `json:"phone,omitempty"`
	City              *string              `json:"city,omitempty"`
	Address           *string              `json:"address,omitempty"`
	IsOpen            *bool                `json:"is_open,omitempty"`
	ActivityTimes     *map[string][]string `json:"activity_times,omitempty"`
	KosherType        *string              `json:"kosher_type,omitempty"`
	AccessibilityList *[]string            `json:"accessibility_list,omitempty"`
}

func (r UpdateStoreBranchRequest) Validate() error {
	if r.Name != nil {
		if err := ValidateName("name", *r.Name); err != nil {
			return err
		}
	}
	if r.ActivityTimes != nil {
		if _, err := NormalizeActivityTimes(*r.ActivityTimes); err != nil {
			return err
		}
	}
	if r.AccessibilityList != nil {
		return ValidateVar("accessibility_list", *r.AccessibilityList, "dive,required")
	}
	return nil
}
