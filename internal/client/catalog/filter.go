// Package catalog browses product listings: filtering, best-offer pricing
// and pagination over what the catalog API returned.
package catalog

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/techstore/internal/client/models"
)

// Filter selects products. Empty fields match everything.
//
// PriceRanges entries are "min-max" (inclusive) or "min+", compared with the
// first offer's price.
type Filter struct {
	Brands      []string
	OS          []string
	PriceRanges []string
	Search      string
}

func (f Filter) Empty() bool {
	return len(f.Brands) == 0 && len(f.OS) == 0 && len(f.PriceRanges) == 0 && strings.TrimSpace(f.Search) == ""
}

// Apply returns the products matching f, in their original order.
func Apply(products []models.Product, f Filter) []models.Product {
	brands := make([]string, len(f.Brands))
	for i, b := range f.Brands {
		brands[i] = strings.ToLower(b)
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if len(brands) > 0 && !slices.Contains(brands, strings.ToLower(p.Brand)) {
			continue
		}
		if len(f.OS) > 0 && !matchesOS(p, f.OS) {
			continue
		}
		if len(f.PriceRanges) > 0 && !matchesPrice(p, f.PriceRanges) {
			continue
		}
		if search != "" && !matchesSearch(p, search) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func operatingSystem(p models.Product) string {
	return strings.ToLower(p.Spec("Os", "OperatingSystem"))
}

func matchesOS(p models.Product, selected []string) bool {
	os := operatingSystem(p)
	for _, s := range selected {
		if strings.Contains(os, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

func matchesPrice(p models.Product, ranges []string) bool {
	var price float64
	if len(p.Offers) > 0 {
		price = p.Offers[0].Price
	}
	for _, r := range ranges {
		if inRange(price, r) {
			return true
		}
	}
	return false
}

func inRange(price float64, r string) bool {
	r = strings.TrimSpace(r)
	if from, ok := strings.CutSuffix(r, "+"); ok {
		lo, err := strconv.ParseFloat(from, 64)
		return err == nil && price >= lo
	}
	from, to, ok := strings.Cut(r, "-")
	if !ok {
		return false
	}
	lo, err1 := strconv.ParseFloat(from, 64)
	hi, err2 := strconv.ParseFloat(to, 64)
	if err1 != nil || err2 != nil {
		return false
	}
	return price >= lo && price <= hi
}

func matchesSearch(p models.Product, term string) bool {
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Brand), term) ||
		strings.Contains(strings.ToLower(p.Model), term) ||
		strings.Contains(operatingSystem(p), term)
}

// Brands lists the distinct lower-cased brands, sorted.
func Brands(products []models.Product) []string {
	var out []string
	for _, p := range products {
		b := strings.ToLower(p.Brand)
		if b != "" && !slices.Contains(out, b) {
			out = append(out, b)
		}
	}
	slices.Sort(out)
	return out
}

// BestOffer is the lowest-priced offer; the first one wins a tie. No offers
// gives the zero Offer.
func BestOffer(offers []models.Offer) models.Offer {
	if len(offers) == 0 {
		return models.Offer{}
	}
	best := offers[0]
	for _, o := range offers[1:] {
		if o.Price < best.Price {
			best = o
		}
	}
	return best
}

// Discount is the rounded percentage off the original price, 0 when there
// is no original price.
func Discount(o models.Offer) int {
	if o.OriginalPrice <= 0 {
		return 0
	}
	return int(math.Round((o.OriginalPrice - o.Price) / o.OriginalPrice * 100))
}
