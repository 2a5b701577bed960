package catalog

import (
	"context"
	"fmt"

	"github.com/use-agent/shopcrawl/models"
)

// Extractor reads the product cards of a fully loaded listing page.
type Extractor struct {
	sel Selectors
}

// NewExtractor creates an Extractor for the given markup contract.
func NewExtractor(sel Selectors) *Extractor {
	return &Extractor{sel: sel}
}

// ExtractItems returns one record per product card, in card order. A card
// missing any required element fails the whole page: no partial record is
// ever emitted.
func (e *Extractor) ExtractItems(ctx context.Context, page Page) ([]models.ProductRecord, error) {
	cards, err := page.FindAll(ctx, e.sel.ProductCards)
	if err != nil {
		return nil, categorizeError(ctx, err, models.ErrCodeRequestTimeout, models.ErrCodeExtraction, "failed to query product cards")
	}

	items := make([]models.ProductRecord, 0, len(cards))
	for i, card := range cards {
		if err := ctx.Err(); err != nil {
			return nil, categorizeError(ctx, err, models.ErrCodeRequestTimeout, models.ErrCodeExtraction, "extraction interrupted")
		}

		item, err := e.extractCard(card)
		if err != nil {
			ce := categorizeError(ctx, err, models.ErrCodeRequestTimeout, models.ErrCodeExtraction, "failed to read product card")
			return nil, models.NewCatalogError(ce.Code, fmt.Sprintf("card %d: %s", i+1, ce.Message), ce.Err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (e *Extractor) extractCard(card Element) (models.ProductRecord, error) {
	var item models.ProductRecord

	priceEl, ok, err := card.Find(e.sel.Price)
	if err != nil {
		return item, err
	}
	if !ok {
		priceEl, ok, err = card.Find(e.sel.PriceBrief)
		if err != nil {
			return item, err
		}
		if !ok {
			return item, elementNotFound("price", e.sel.Price+" / "+e.sel.PriceBrief)
		}
	}

	titleEl, err := requireElement(card, "title", e.sel.Title)
	if err != nil {
		return item, err
	}
	imageEl, err := requireElement(card, "image", e.sel.Image)
	if err != nil {
		return item, err
	}
	brandEl, err := requireElement(card, "brand", e.sel.Brand)
	if err != nil {
		return item, err
	}
	sizesEl, err := requireElement(card, "sizes", e.sel.Sizes)
	if err != nil {
		return item, err
	}

	if item.Price, err = priceEl.Text(); err != nil {
		return item, err
	}
	if item.Title, err = titleEl.Text(); err != nil {
		return item, err
	}
	if item.Image, err = imageEl.Property("src"); err != nil {
		return item, err
	}
	if item.Brand, err = brandEl.Text(); err != nil {
		return item, err
	}
	if item.Sizes, err = sizesEl.Text(); err != nil {
		return item, err
	}
	return item, nil
}

func requireElement(card Element, what, selector string) (Element, error) {
	el, ok, err := card.Find(selector)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, elementNotFound(what, selector)
	}
	return el, nil
}
