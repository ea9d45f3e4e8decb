package seed

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Fixture is a menu described with symbolic keys instead of record ids.
type Fixture struct {
	Ingredients   []IngredientFixture   `yaml:"ingredients"`
	Products      []ProductFixture      `yaml:"products"`
	ProductGroups []ProductGroupFixture `yaml:"product_groups"`
	Branches      []BranchFixture       `yaml:"branches"`
}

type IngredientFixture struct {
	Key   string `yaml:"key"`
	Name  string `yaml:"name"`
	Price string `yaml:"price"`
}

type ProductFixture struct {
	Key             string   `yaml:"key"`
	Name            string   `yaml:"name"`
	Description     string   `yaml:"description"`
	Price           string   `yaml:"price"`
	DiscountedPrice string   `yaml:"discounted_price"`
	Category        string   `yaml:"category"`
	Tags            []string `yaml:"tags"`
	// Groups lists product group keys.
	Groups []string `yaml:"groups"`
}

type ProductGroupFixture struct {
	Key   string             `yaml:"key"`
	Name  string             `yaml:"name"`
	Type  string             `yaml:"type"`
	Items []GroupItemFixture `yaml:"items"`
}

// GroupItemFixture points at exactly one of Product or Ingredient by key.
type GroupItemFixture struct {
	Product       string `yaml:"product"`
	Ingredient    string `yaml:"ingredient"`
	OverridePrice string `yaml:"override_price"`
}

type BranchFixture struct {
	Key               string              `yaml:"key"`
	Name              string              `yaml:"name"`
	Phone             string              `yaml:"phone"`
	City              string              `yaml:"city"`
	Address           string              `yaml:"address"`
	IsOpen            bool                `yaml:"is_open"`
	KosherType        string              `yaml:"kosher_type"`
	AccessibilityList []string            `yaml:"accessibility_list"`
	ActivityTimes     map[string][]string `yaml:"activity_times"`
	// Products are added with their nested items. Inactive ones are flagged unavailable.
	Products         []string `yaml:"products"`
	InactiveProducts []string `yaml:"inactive_products"`
	Ingredients      []string `yaml:"ingredients"`
}

// Parse decodes a fixture document.
func Parse(data []byte) (*Fixture, error) {
	var fixture Fixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse seed fixture: %w", err)
	}
	if err := fixture.validate(); err != nil {
		return nil, err
	}
	return &fixture, nil
}

// ReadFile parses the fixture at path.
func ReadFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed fixture %s: %w", path, err)
	}
	return Parse(data)
}

func (f *Fixture) validate() error {
	keys := map[string]string{}
	claim := func(kind, key string) error {
		if key == "" {
			return fmt.Errorf("%s without a key", kind)
		}
		if other, ok := keys[kind+":"+key]; ok {
			return fmt.Errorf("duplicate %s key %q (already used by %s)", kind, key, other)
		}
		keys[kind+":"+key] = kind
		return nil
	}

	for _, i := range f.Ingredients {
		if err := claim("ingredient", i.Key); err != nil {
			return err
		}
	}
	for _, p := range f.Products {
		if err := claim("product", p.Key); err != nil {
			return err
		}
	}
	for _, g := range f.ProductGroups {
		if err := claim("product group", g.Key); err != nil {
			return err
		}
		for _, item := range g.Items {
			if (item.Product == "") == (item.Ingredient == "") {
				return fmt.Errorf("product group %q: each item needs exactly one of product or ingredient", g.Key)
			}
		}
	}
	for _, b := range f.Branches {
		if err := claim("branch", b.Key); err != nil {
			return err
		}
	}
	return nil
}

func parsePrice(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	price, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", field, value, err)
	}
	return price, nil
}

func parseOptionalPrice(field, value string) (*decimal.Decimal, error) {
	if value == "" {
		return nil, nil
	}
	price, err := parsePrice(field, value)
	if err != nil {
		return nil, err
	}
	return &price, nil
}
