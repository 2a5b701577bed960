package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/shopcrawl/catalog"
	"github.com/use-agent/shopcrawl/htmldom"
	"github.com/use-agent/shopcrawl/models"
)

func traverse(t *testing.T, p *catalog.Paginator, site *htmldom.Site, category string) ([]models.ProductRecord, error) {
	t.Helper()
	page, err := site.OpenPage(context.Background())
	require.NoError(t, err)
	return p.TraverseCategory(context.Background(), category, page)
}

func TestTraverseCategory_TwoPages(t *testing.T) {
	page1 := []card{cardFor("A", "m1"), cardFor("B", "m2"), cardFor("A", "m3")}
	page2 := []card{cardFor("C", "m4"), cardFor("B", "m5")}
	site := htmldom.NewSite()
	addCategory(site, "men", page1, page2)
	obs := newRecordingObserver()

	items, err := traverse(t, newTestPaginator(t, obs), site, "men")
	require.NoError(t, err)

	assert.Equal(t, append(records(page1...), records(page2...)...), items)
	assert.Equal(t, []string{
		testListing.URL("men", 1),
		testListing.URL("men", 2),
	}, site.Navigations())
	assert.Equal(t, []int{3, 2}, obs.visited["men"])
	assert.Empty(t, obs.repeated)
}

func TestTraverseCategory_SinglePageIncludesItems(t *testing.T) {
	only := []card{cardFor("A", "w1")}
	site := htmldom.NewSite()
	addCategory(site, "women", only)

	items, err := traverse(t, newTestPaginator(t, nil), site, "women")
	require.NoError(t, err)
	assert.Equal(t, records(only...), items)
	assert.Len(t, site.Navigations(), 1)
}

func TestTraverseCategory_NavigationsMatchPageCount(t *testing.T) {
	site := htmldom.NewSite()
	pages := make([][]card, 5)
	for i := range pages {
		pages[i] = []card{cardFor("A", "p"+string(rune('a'+i)))}
	}
	addCategory(site, "men", pages...)

	items, err := traverse(t, newTestPaginator(t, nil), site, "men")
	require.NoError(t, err)
	assert.Len(t, items, 5)
	assert.Len(t, site.Navigations(), 5)
}

func TestTraverseCategory_HiddenAttributeSemantics(t *testing.T) {
	tests := []struct {
		name  string
		next  string
		pages int
	}{
		{"explicit false continues", "false", 2},
		{"true stops", "true", 1},
		{"absent attribute stops", "-", 1},
		{"other value stops", "FALSE", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site := htmldom.NewSite()
			site.Add(testListing.URL("men", 1), listingHTML([]card{cardFor("A", "m1")}, tt.next))
			site.Add(testListing.URL("men", 2), listingHTML([]card{cardFor("B", "m2")}, "true"))

			items, err := traverse(t, newTestPaginator(t, nil), site, "men")
			require.NoError(t, err)
			assert.Len(t, items, tt.pages)
			assert.Len(t, site.Navigations(), tt.pages)
		})
	}
}

func TestTraverseCategory_MissingNextControl(t *testing.T) {
	site := htmldom.NewSite()
	site.Add(testListing.URL("men", 1), listingHTML([]card{cardFor("A", "m1")}, ""))

	items, err := traverse(t, newTestPaginator(t, nil), site, "men")
	require.Error(t, err)
	assert.Nil(t, items)
	assert.Equal(t, models.ErrCodeElementNotFound, models.CodeOf(err))
}

func TestTraverseCategory_ExtractionFailureAbortsCategory(t *testing.T) {
	broken := cardFor("B", "m3")
	broken.noBrand = true
	site := htmldom.NewSite()
	addCategory(site, "men", []card{cardFor("A", "m1")}, []card{broken})

	items, err := traverse(t, newTestPaginator(t, nil), site, "men")
	require.Error(t, err)
	assert.Nil(t, items)
	assert.Equal(t, models.ErrCodeElementNotFound, models.CodeOf(err))
}

func TestTraverseCategory_NavigationFailure(t *testing.T) {
	site := htmldom.NewSite()

	_, err := traverse(t, newTestPaginator(t, nil), site, "men")
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeNavigation, models.CodeOf(err))
}

func TestTraverseCategory_PageLimit(t *testing.T) {
	site := htmldom.NewSite()
	addCategory(site, "men",
		[]card{cardFor("A", "m1")},
		[]card{cardFor("A", "m2")},
		[]card{cardFor("A", "m3")},
	)
	p, err := catalog.NewPaginator(catalog.PaginatorConfig{
		Listing:  testListing,
		Scroll:   catalog.ScrollOptions{Step: 500, Delay: time.Millisecond, Timeout: time.Second},
		MaxPages: 2,
	}, nil)
	require.NoError(t, err)

	_, err = traverse(t, p, site, "men")
	require.Error(t, err)
	assert.Equal(t, models.ErrCodePageLimit, models.CodeOf(err))
	assert.Len(t, site.Navigations(), 2)
}

func TestTraverseCategory_RepeatedPageIsReported(t *testing.T) {
	same := []card{cardFor("A", "m1"), cardFor("B", "m2")}
	site := htmldom.NewSite()
	addCategory(site, "men", same, same)
	obs := newRecordingObserver()

	items, err := traverse(t, newTestPaginator(t, obs), site, "men")
	require.NoError(t, err)
	assert.Len(t, items, 4)
	assert.Equal(t, []string{"men"}, obs.repeated)
}

func TestNewPaginator_InvalidSelector(t *testing.T) {
	sel := catalog.DefaultSelectors()
	sel.Brand = "p[data-component="

	_, err := catalog.NewPaginator(catalog.PaginatorConfig{Selectors: sel}, nil)
	assert.Error(t, err)
}
