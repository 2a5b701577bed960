package catalog_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/use-agent/shopcrawl/catalog"
	"github.com/use-agent/shopcrawl/htmldom"
	"github.com/use-agent/shopcrawl/models"
)

var testListing = catalog.Listing{
	BaseURL:      "https://shop.test",
	PathTemplate: "/{category}/items.aspx",
	ViewSize:     96,
	Sort:         3,
	Scale:        282,
}

type card struct {
	price      string
	briefPrice bool // render price with the PriceBrief component
	title      string
	image      string
	brand      string
	sizes      string
	noBrand    bool
}

func cardFor(brand, title string) card {
	return card{price: "$100", title: title, image: "/img/" + title + ".jpg", brand: brand, sizes: "S, M"}
}

func (c card) record() models.ProductRecord {
	return models.ProductRecord{
		Price: c.price,
		Title: c.title,
		Image: "https://shop.test" + c.image,
		Brand: c.brand,
		Sizes: c.sizes,
	}
}

func (c card) html() string {
	var b strings.Builder
	b.WriteString(`<li data-testid="productCard">`)
	if c.briefPrice {
		fmt.Fprintf(&b, `<div data-component="PriceBrief">%s</div>`, c.price)
	} else {
		fmt.Fprintf(&b, `<div data-component="Price">%s</div>`, c.price)
	}
	fmt.Fprintf(&b, `<p data-component="ProductCardDescription">%s</p>`, c.title)
	fmt.Fprintf(&b, `<img data-component="ProductCardImagePrimary" src="%s">`, c.image)
	if !c.noBrand {
		fmt.Fprintf(&b, `<p data-component="ProductCardBrandName">%s</p>`, c.brand)
	}
	fmt.Fprintf(&b, `<p data-component="ProductCardSizesAvailable">%s</p>`, c.sizes)
	b.WriteString(`</li>`)
	return b.String()
}

// listingHTML renders one listing page. next is the aria-hidden value of
// the next-page control; "-" omits the attribute and "" omits the control.
func listingHTML(cards []card, next string) string {
	var b strings.Builder
	b.WriteString(`<html><body><ul data-testid="productArea">`)
	for _, c := range cards {
		b.WriteString(c.html())
	}
	b.WriteString(`</ul>`)
	switch next {
	case "":
	case "-":
		b.WriteString(`<a data-testid="page-next">Next</a>`)
	default:
		fmt.Fprintf(&b, `<a data-testid="page-next" aria-hidden="%s">Next</a>`, next)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

// addCategory registers pages of category on site; every page but the last
// announces a following page.
func addCategory(site *htmldom.Site, category string, pages ...[]card) {
	for i, cards := range pages {
		next := "false"
		if i == len(pages)-1 {
			next = "true"
		}
		site.Add(testListing.URL(category, i+1), listingHTML(cards, next))
	}
}

func records(cards ...card) []models.ProductRecord {
	out := make([]models.ProductRecord, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.record())
	}
	return out
}

func newTestPaginator(t *testing.T, observer catalog.Observer) *catalog.Paginator {
	t.Helper()
	p, err := catalog.NewPaginator(catalog.PaginatorConfig{
		Listing: testListing,
		Scroll: catalog.ScrollOptions{
			Step:    500,
			Delay:   time.Millisecond,
			Timeout: 5 * time.Second,
		},
		NavigationTimeout: 5 * time.Second,
	}, observer)
	require.NoError(t, err)
	return p
}

// recordingObserver captures observer calls.
type recordingObserver struct {
	mu       sync.Mutex
	visited  map[string][]int
	repeated []string
	runs     []error
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{visited: make(map[string][]int)}
}

func (o *recordingObserver) PageVisited(category string, products int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.visited[category] = append(o.visited[category], products)
}

func (o *recordingObserver) PageRepeated(category string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.repeated = append(o.repeated, category)
}

func (o *recordingObserver) RunFinished(err error, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs = append(o.runs, err)
}
