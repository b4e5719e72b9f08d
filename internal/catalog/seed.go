package catalog

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/drstein77/shopsphere/internal/models"
)

//go:embed seed/*.json
var seedFS embed.FS

// Categories lists the category tokens offered by the storefront
func Categories() []string {
	return []string{AllCategories, "electronics", "accessories", "clothing", "home"}
}

// DemoProducts returns the built-in catalog used when no database is configured.
func DemoProducts() ([]models.CatalogItem, error) {
	return loadSeed("seed/products.json")
}

// FeaturedProducts returns the curated showcase items.
func FeaturedProducts() ([]models.CatalogItem, error) {
	return loadSeed("seed/featured.json")
}

func loadSeed(name string) ([]models.CatalogItem, error) {
	data, err := seedFS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("seedFS.ReadFile: %w", err)
	}

	var items []models.CatalogItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}

	return items, nil
}
