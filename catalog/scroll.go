package catalog

import (
	"context"
	"time"

	"github.com/use-agent/shopcrawl/models"
)

// ScrollOptions controls how a listing page is scrolled to force its lazy
// product cards into the DOM.
type ScrollOptions struct {
	Step    int           // pixels per step
	Delay   time.Duration // pause after each step
	Timeout time.Duration // upper bound for the page to settle
}

// DefaultScrollOptions mirrors the scroll cadence the catalog needs to
// render every card.
func DefaultScrollOptions() ScrollOptions {
	return ScrollOptions{
		Step:    500,
		Delay:   250 * time.Millisecond,
		Timeout: 60 * time.Second,
	}
}

// scrollToBottom scrolls page in fixed steps until the viewport sits at the
// bottom of the document and the document height has stopped growing
// between two consecutive steps.
func scrollToBottom(ctx context.Context, page Page, opts ScrollOptions) error {
	scrollCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	lastHeight := -1
	for {
		pos, err := page.ScrollBy(scrollCtx, opts.Step)
		if err != nil {
			return categorizeError(ctx, err, models.ErrCodeScrollStallTimeout, models.ErrCodeExtraction, "scroll to bottom failed")
		}
		if pos.Bottom >= pos.Height && pos.Height == lastHeight {
			return nil
		}
		lastHeight = pos.Height

		select {
		case <-scrollCtx.Done():
			return categorizeError(ctx, scrollCtx.Err(), models.ErrCodeScrollStallTimeout, models.ErrCodeExtraction,
				"page did not settle within "+opts.Timeout.String())
		case <-time.After(opts.Delay):
		}
	}
}
