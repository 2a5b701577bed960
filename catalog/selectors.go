package catalog

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/andybalholm/cascadia"
)

// Selectors is the markup contract of the target listing pages. Every
// selector the engine evaluates lives here, so a markup change on the
// site is a one-struct fix.
type Selectors struct {
	ProductCards string // card elements inside the catalog grid
	Price        string
	PriceBrief   string // alternative price shape used by some cards
	Title        string
	Image        string
	Brand        string
	Sizes        string
	NextPage     string

	// NextPageHiddenAttr is read on the NextPage control; the value
	// "false" means another page follows.
	NextPageHiddenAttr string
}

// DefaultSelectors returns the selectors of the live catalog.
func DefaultSelectors() Selectors {
	return Selectors{
		ProductCards:       `[data-testid="productArea"] li[data-testid="productCard"]`,
		Price:              `[data-component="Price"]`,
		PriceBrief:         `[data-component="PriceBrief"]`,
		Title:              `[data-component="ProductCardDescription"]`,
		Image:              `[data-component="ProductCardImagePrimary"]`,
		Brand:              `[data-component="ProductCardBrandName"]`,
		Sizes:              `[data-component="ProductCardSizesAvailable"]`,
		NextPage:           `[data-testid="page-next"]`,
		NextPageHiddenAttr: "aria-hidden",
	}
}

// Validate parses every selector so a typo fails at startup instead of
// silently matching nothing mid-crawl.
func (s Selectors) Validate() error {
	fields := []struct {
		name, selector string
	}{
		{"product cards", s.ProductCards},
		{"price", s.Price},
		{"brief price", s.PriceBrief},
		{"title", s.Title},
		{"image", s.Image},
		{"brand", s.Brand},
		{"sizes", s.Sizes},
		{"next page", s.NextPage},
	}
	for _, f := range fields {
		if f.selector == "" {
			return fmt.Errorf("%s selector is empty", f.name)
		}
		if _, err := cascadia.Parse(f.selector); err != nil {
			return fmt.Errorf("%s selector %q: %w", f.name, f.selector, err)
		}
	}
	if s.NextPageHiddenAttr == "" {
		return fmt.Errorf("next page hidden attribute is empty")
	}
	return nil
}

// Listing builds listing page URLs.
type Listing struct {
	BaseURL      string
	PathTemplate string // "{category}" is replaced by the category id
	ViewSize     int
	Sort         int
	Scale        int
}

// DefaultListing returns the listing of the live catalog.
func DefaultListing() Listing {
	return Listing{
		BaseURL:      "https://www.farfetch.com",
		PathTemplate: "/en-EN/shopping/{category}/ekademe/items.aspx",
		ViewSize:     96,
		Sort:         3,
		Scale:        282,
	}
}

// URL returns the listing URL of page index (1-based) of category.
func (l Listing) URL(category string, index int) string {
	path := strings.ReplaceAll(l.PathTemplate, "{category}", url.PathEscape(category))

	q := url.Values{}
	q.Set("page", strconv.Itoa(index))
	q.Set("view", strconv.Itoa(l.ViewSize))
	q.Set("sort", strconv.Itoa(l.Sort))
	q.Set("scale", strconv.Itoa(l.Scale))

	return strings.TrimRight(l.BaseURL, "/") + path + "?" + q.Encode()
}
