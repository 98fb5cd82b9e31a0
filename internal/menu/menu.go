// Package menu holds the restaurant's static menu. It is compiled into the
// binary and decoded once; callers only ever get copies.
package menu

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"sakura-backend/internal/models"
)

//go:embed menu.yaml
var defaultMenu []byte

type Catalog struct {
	items []models.MenuItem
}

// Default decodes the embedded menu.
func Default() (*Catalog, error) {
	return Parse(defaultMenu)
}

// Parse decodes a YAML list of menu items and checks it for duplicate ids
// and unknown categories.
func Parse(data []byte) (*Catalog, error) {
	var items []models.MenuItem
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse menu: %w", err)
	}

	seen := make(map[int]bool, len(items))
	for _, it := range items {
		if seen[it.ID] {
			return nil, fmt.Errorf("duplicate menu id %d", it.ID)
		}
		seen[it.ID] = true
		if !validCategory(it.Category) {
			return nil, fmt.Errorf("menu item %d: unknown category %q", it.ID, it.Category)
		}
		if it.Price <= 0 {
			return nil, fmt.Errorf("menu item %d: price must be positive", it.ID)
		}
	}
	return &Catalog{items: items}, nil
}

// Items returns a copy of the menu in its fixed order.
func (c *Catalog) Items() []models.MenuItem {
	out := make([]models.MenuItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Catalog) Len() int { return len(c.items) }

func validCategory(cat models.MenuCategory) bool {
	switch cat {
	case models.CategoryRolls, models.CategoryNoodles, models.CategorySoups,
		models.CategorySashimi, models.CategorySets, models.CategoryDrinks:
		return true
	}
	return false
}
