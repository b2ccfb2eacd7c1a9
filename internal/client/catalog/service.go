package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/techstore/internal/client/api"
	"github.com/dmitrijs2005/techstore/internal/client/models"
	"github.com/dmitrijs2005/techstore/internal/logging"
)

// View is what the product grid shows.
type View struct {
	Category models.Category
	Items    []models.Product
	Page     Page
	Window   []int
	Filter   Filter
}

// Service holds the loaded listing, the active filter and the current page.
type Service struct {
	api     api.CatalogAPI
	log     logging.Logger
	perPage int

	mu       sync.Mutex
	category models.Category
	products []models.Product
	brands   []string
	filter   Filter
	filtered []models.Product
	page     int
}

func NewService(catalog api.CatalogAPI, log logging.Logger) *Service {
	if log == nil {
		log = logging.Nop()
	}
	return &Service{api: catalog, log: log.With("component", "catalog"), perPage: DefaultPerPage, page: 1}
}

// Load replaces the listing with category. The filter is kept; the page
// goes back to 1. On failure the previous listing stays.
func (s *Service) Load(ctx context.Context, category models.Category) error {
	products, err := s.api.Products(ctx, category)
	if err != nil {
		s.log.Error(ctx, "catalog load failed", "category", category, "error", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.category = category
	s.products = products
	s.brands = Brands(products)
	s.filtered = Apply(products, s.filter)
	s.page = 1
	return nil
}

// Brands are the brands present in the loaded listing.
func (s *Service) Brands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.brands...)
}

func (s *Service) SetFilter(f Filter) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
	s.filtered = Apply(s.products, f)
	s.page = 1
	return s.viewLocked()
}

// SetPage moves to page n. Out-of-range pages are ignored and reported false.
func (s *Service) SetPage(n int) (View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pages := Paginate(len(s.filtered), 1, s.perPage).Pages
	if n < 1 || n > pages {
		return s.viewLocked(), false
	}
	s.page = n
	return s.viewLocked(), true
}

func (s *Service) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Service) viewLocked() View {
	pg := Paginate(len(s.filtered), s.page, s.perPage)
	return View{
		Category: s.category,
		Items:    append([]models.Product(nil), s.filtered[pg.Start:pg.End]...),
		Page:     pg,
		Window:   PageWindow(pg.Number, pg.Pages, DefaultVisiblePages),
		Filter:   s.filter,
	}
}

// LoadErrorMessage explains a failed Load to the user.
func LoadErrorMessage(category models.Category, err error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Failed to load %s data. ", noun(category))

	var apiErr *api.APIError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		b.WriteString("Request timed out. Please check your internet connection.")
	case errors.Is(err, api.ErrNetwork):
		b.WriteString("Network error. Please check your internet connection.")
	case errors.As(err, &apiErr):
		b.WriteString("Server error: " + apiErr.Error())
	case errors.Is(err, api.ErrInvalidPayload):
		b.WriteString(api.ErrInvalidPayload.Error())
	default:
		b.WriteString(err.Error())
	}
	return b.String()
}

func noun(c models.Category) string {
	if c == models.CategorySmartphones {
		return "smartphone"
	}
	return "laptop"
}
