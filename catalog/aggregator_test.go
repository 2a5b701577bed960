package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/shopcrawl/catalog"
	"github.com/use-agent/shopcrawl/htmldom"
	"github.com/use-agent/shopcrawl/models"
)

func menWomenSite() *htmldom.Site {
	site := htmldom.NewSite()
	addCategory(site, "men", []card{cardFor("A", "m1")}, []card{cardFor("B", "m2")})
	addCategory(site, "women", []card{cardFor("A", "w1")})
	return site
}

func TestAggregate_OrderAndBrands(t *testing.T) {
	for _, parallelism := range []int{1, 2} {
		t.Run("parallelism "+string(rune('0'+parallelism)), func(t *testing.T) {
			site := menWomenSite()
			agg := catalog.NewAggregator(newTestPaginator(t, nil), parallelism)

			result, err := agg.Aggregate(context.Background(), site, []string{"men", "women"})
			require.NoError(t, err)

			titles := make([]string, 0, len(result.ProductList))
			for _, p := range result.ProductList {
				titles = append(titles, p.Title)
			}
			assert.Equal(t, []string{"m1", "m2", "w1"}, titles)
			assert.Equal(t, []string{"A", "B"}, result.Brands)
			assert.Len(t, site.Navigations(), 3)
		})
	}
}

func TestAggregate_SequentialReusesOnePage(t *testing.T) {
	site := menWomenSite()
	agg := catalog.NewAggregator(newTestPaginator(t, nil), 1)

	_, err := agg.Aggregate(context.Background(), site, []string{"men", "women"})
	require.NoError(t, err)
	assert.Equal(t, 1, site.PagesOpened())
}

func TestAggregate_ParallelPagePerCategory(t *testing.T) {
	site := menWomenSite()
	agg := catalog.NewAggregator(newTestPaginator(t, nil), 4)

	_, err := agg.Aggregate(context.Background(), site, []string{"men", "women"})
	require.NoError(t, err)
	assert.Equal(t, 2, site.PagesOpened())
}

func TestAggregate_NoCategories(t *testing.T) {
	agg := catalog.NewAggregator(newTestPaginator(t, nil), 1)

	result, err := agg.Aggregate(context.Background(), htmldom.NewSite(), nil)
	require.NoError(t, err)
	assert.NotNil(t, result.Brands)
	assert.NotNil(t, result.ProductList)
	assert.Empty(t, result.ProductList)
}

func TestAggregate_FailingCategoryFailsAll(t *testing.T) {
	for _, parallelism := range []int{1, 2} {
		site := htmldom.NewSite()
		addCategory(site, "men", []card{cardFor("A", "m1")})
		// women has no documents: navigation fails.

		agg := catalog.NewAggregator(newTestPaginator(t, nil), parallelism)
		result, err := agg.Aggregate(context.Background(), site, []string{"men", "women"})
		require.Error(t, err)
		assert.Nil(t, result)
		assert.Equal(t, models.ErrCodeNavigation, models.CodeOf(err))
	}
}

func TestAggregate_BrandsExactMatch(t *testing.T) {
	site := htmldom.NewSite()
	addCategory(site, "men", []card{cardFor("Gucci", "m1"), cardFor("GUCCI", "m2"), cardFor("Gucci", "m3")})
	agg := catalog.NewAggregator(newTestPaginator(t, nil), 1)

	result, err := agg.Aggregate(context.Background(), site, []string{"men"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Gucci", "GUCCI"}, result.Brands)
}
