package models

type MenuCategory string

const (
	CategoryRolls   MenuCategory = "rolls"
	CategoryNoodles MenuCategory = "noodles"
	CategorySoups   MenuCategory = "soups"
	CategorySashimi MenuCategory = "sashimi"
	CategorySets    MenuCategory = "sets"
	CategoryDrinks  MenuCategory = "drinks"
)

type MenuItem struct {
	ID          int          `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description" yaml:"description"`
	Price       int          `json:"price" yaml:"price"`
	Category    MenuCategory `json:"category" yaml:"category"`
	Image       string       `json:"image" yaml:"image"`
}

type MenuResponse struct {
	Menu []MenuItem `json:"menu"`
}
