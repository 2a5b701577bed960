package catalog

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/use-agent/shopcrawl/models"
)

// Aggregator runs the Paginator over a list of categories and merges the
// results.
type Aggregator struct {
	paginator   *Paginator
	parallelism int
}

// NewAggregator creates an Aggregator. With parallelism 1 every category is
// walked on the same page, one after the other; above 1, up to parallelism
// categories run at once, each on its own page of the session.
func NewAggregator(paginator *Paginator, parallelism int) *Aggregator {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Aggregator{paginator: paginator, parallelism: parallelism}
}

// Aggregate traverses every category of categories using pages of sess.
// The product list keeps the caller's category order whatever the
// parallelism. It is all-or-nothing: the first failing category fails the
// whole aggregation.
func (a *Aggregator) Aggregate(ctx context.Context, sess Session, categories []string) (*models.CatalogResult, error) {
	var (
		perCategory [][]models.ProductRecord
		err         error
	)
	if a.parallelism == 1 || len(categories) < 2 {
		perCategory, err = a.sequential(ctx, sess, categories)
	} else {
		perCategory, err = a.parallel(ctx, sess, categories)
	}
	if err != nil {
		return nil, err
	}

	products := []models.ProductRecord{}
	for _, items := range perCategory {
		products = append(products, items...)
	}
	return &models.CatalogResult{
		Brands:      collectBrands(products),
		ProductList: products,
	}, nil
}

func (a *Aggregator) sequential(ctx context.Context, sess Session, categories []string) ([][]models.ProductRecord, error) {
	if len(categories) == 0 {
		return nil, nil
	}
	page, err := sess.OpenPage(ctx)
	if err != nil {
		return nil, categorizeError(ctx, err, models.ErrCodeRequestTimeout, models.ErrCodeBrowserCrash, "failed to open page")
	}

	results := make([][]models.ProductRecord, 0, len(categories))
	for _, category := range categories {
		items, err := a.paginator.TraverseCategory(ctx, category, page)
		if err != nil {
			return nil, err
		}
		results = append(results, items)
	}
	return results, nil
}

func (a *Aggregator) parallel(ctx context.Context, sess Session, categories []string) ([][]models.ProductRecord, error) {
	results := make([][]models.ProductRecord, len(categories))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.parallelism)
	for i, category := range categories {
		g.Go(func() error {
			page, err := sess.OpenPage(gctx)
			if err != nil {
				return categorizeError(gctx, err, models.ErrCodeRequestTimeout, models.ErrCodeBrowserCrash, "failed to open page")
			}
			items, err := a.paginator.TraverseCategory(gctx, category, page)
			if err != nil {
				return err
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// collectBrands returns the distinct brands of products in first-occurrence
// order. Brands compare by exact string equality.
func collectBrands(products []models.ProductRecord) []string {
	seen := make(map[string]struct{}, len(products))
	brands := []string{}
	for _, p := range products {
		if _, ok := seen[p.Brand]; ok {
			continue
		}
		seen[p.Brand] = struct{}{}
		brands = append(brands, p.Brand)
	}
	return brands
}
