// Package models defines the data exchanged with the identity and catalog
// APIs.
package models

import "fmt"

// Category is a catalog listing path.
type Category string

const (
	CategorySmartphones Category = "smartphones"
	CategoryChromebooks Category = "chromebooks-laptops"
	CategoryWindows     Category = "windows-laptops"
	CategoryMacBooks    Category = "macbooks-laptops"
)

// Categories lists every listing the catalog API serves.
var Categories = []Category{CategorySmartphones, CategoryChromebooks, CategoryWindows, CategoryMacBooks}

// ParseCategory accepts a listing path or its short name
// ("smartphones", "chromebooks", "windows", "macbooks").
func ParseCategory(s string) (Category, error) {
	switch s {
	case "smartphones", "phones":
		return CategorySmartphones, nil
	case "chromebooks", string(CategoryChromebooks):
		return CategoryChromebooks, nil
	case "windows", string(CategoryWindows):
		return CategoryWindows, nil
	case "macbooks", string(CategoryMacBooks):
		return CategoryMacBooks, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Offer is one retailer price for a product.
type Offer struct {
	Price         float64 `json:"price"`
	OriginalPrice float64 `json:"originalPrice"`
	Retailer      string  `json:"retailer,omitempty"`
	URL           string  `json:"url,omitempty"`
}

// Product is a catalog record. Specs is grouped: Specs["Os"]["OperatingSystem"].
type Product struct {
	ID       string                    `json:"product_id"`
	Name     string                    `json:"name,omitempty"`
	Brand    string                    `json:"brand"`
	Model    string                    `json:"model"`
	ImageURL string                    `json:"imageUrl"`
	Specs    map[string]map[string]any `json:"specs,omitempty"`
	Offers   []Offer                   `json:"offers"`
}

// Spec returns a spec value as text, or "" when the group or key is absent.
func (p Product) Spec(group, key string) string {
	g, ok := p.Specs[group]
	if !ok {
		return ""
	}
	v, ok := g[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
