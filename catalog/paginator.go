package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/use-agent/shopcrawl/logctx"
	"github.com/use-agent/shopcrawl/models"
	"github.com/use-agent/shopcrawl/simhash"
)

// State is a step of one category traversal.
type State int

const (
	StateLoading    State = iota // page n requested
	StateExtracting              // page n loaded and scrolled, items being read
	StateAdvancing               // another page follows, moving to n+1
	StateDone                    // terminal
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "LOADING"
	case StateExtracting:
		return "EXTRACTING"
	case StateAdvancing:
		return "ADVANCING"
	case StateDone:
		return "DONE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// PaginatorConfig configures a Paginator. Zero values fall back to the
// defaults of the live catalog.
type PaginatorConfig struct {
	Listing           Listing
	Selectors         Selectors
	Scroll            ScrollOptions
	NavigationTimeout time.Duration // default: 30s
	MaxPages          int           // default: 500
}

// Paginator walks every listing page of a category on one page handle.
type Paginator struct {
	cfg       PaginatorConfig
	extractor *Extractor
	observer  Observer
}

// NewPaginator validates cfg and creates a Paginator. observer may be nil.
func NewPaginator(cfg PaginatorConfig, observer Observer) (*Paginator, error) {
	if cfg.Listing.BaseURL == "" {
		cfg.Listing = DefaultListing()
	}
	if cfg.Selectors == (Selectors{}) {
		cfg.Selectors = DefaultSelectors()
	}
	if err := cfg.Selectors.Validate(); err != nil {
		return nil, fmt.Errorf("paginator: %w", err)
	}
	defaults := DefaultScrollOptions()
	if cfg.Scroll.Step <= 0 {
		cfg.Scroll.Step = defaults.Step
	}
	if cfg.Scroll.Delay <= 0 {
		cfg.Scroll.Delay = defaults.Delay
	}
	if cfg.Scroll.Timeout <= 0 {
		cfg.Scroll.Timeout = defaults.Timeout
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 30 * time.Second
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 500
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Paginator{
		cfg:       cfg,
		extractor: NewExtractor(cfg.Selectors),
		observer:  observer,
	}, nil
}

// traversal is the state of one category walk.
type traversal struct {
	category    string
	page        Page
	state       State
	index       int // 1-based page index
	navigations int
	items       []models.ProductRecord
	lastPrint   uint64
}

func newTraversal(category string, page Page) *traversal {
	return &traversal{
		category: category,
		page:     page,
		state:    StateLoading,
		index:    1,
		items:    []models.ProductRecord{},
	}
}

// TraverseCategory visits every listing page of category in order and
// returns their products, page order first and card order second. Any
// failure aborts the whole category; no partial list is returned.
//
// Each page is extracted before its next-page control is read, so the last
// page contributes its items exactly like every other page.
func (p *Paginator) TraverseCategory(ctx context.Context, category string, page Page) ([]models.ProductRecord, error) {
	t := newTraversal(category, page)
	for t.state != StateDone {
		if err := p.step(ctx, t); err != nil {
			logctx.From(ctx).Warn("category traversal aborted",
				"category", category,
				"page", t.index,
				"state", t.state.String(),
				"error", err,
			)
			return nil, err
		}
	}

	logctx.From(ctx).Info("category traversed",
		"category", category,
		"pages", t.navigations,
		"products", len(t.items),
	)
	return t.items, nil
}

// step performs exactly one state transition.
func (p *Paginator) step(ctx context.Context, t *traversal) error {
	switch t.state {
	case StateLoading:
		if t.index > p.cfg.MaxPages {
			return models.NewCatalogError(
				models.ErrCodePageLimit,
				fmt.Sprintf("category %q has more than %d pages", t.category, p.cfg.MaxPages),
				nil,
			)
		}
		if err := p.load(ctx, t); err != nil {
			return err
		}
		t.state = StateExtracting

	case StateExtracting:
		pageItems, err := p.extractor.ExtractItems(ctx, t.page)
		if err != nil {
			return err
		}
		p.checkRepeated(ctx, t, pageItems)
		t.items = append(t.items, pageItems...)
		p.observer.PageVisited(t.category, len(pageItems))

		hasNext, err := p.hasNextPage(ctx, t.page)
		if err != nil {
			return err
		}
		if hasNext {
			t.state = StateAdvancing
		} else {
			t.state = StateDone
		}

	case StateAdvancing:
		t.index++
		t.state = StateLoading

	default:
		return models.NewCatalogError(models.ErrCodeInternal, "step called in state "+t.state.String(), nil)
	}
	return nil
}

// load navigates to the current page and scrolls it until every lazy card
// has been rendered.
func (p *Paginator) load(ctx context.Context, t *traversal) error {
	target := p.cfg.Listing.URL(t.category, t.index)
	logctx.From(ctx).Debug("loading listing page", "category", t.category, "page", t.index, "url", target)

	navCtx, cancel := context.WithTimeout(ctx, p.cfg.NavigationTimeout)
	defer cancel()

	t.navigations++
	if err := t.page.Navigate(navCtx, target); err != nil {
		return categorizeError(ctx, err, models.ErrCodeNavigationTimeout, models.ErrCodeNavigation,
			"navigation to "+target+" failed")
	}
	return scrollToBottom(ctx, t.page, p.cfg.Scroll)
}

// hasNextPage reports whether the next-page control announces another page.
// Only the exact value "false" of the hidden attribute counts as visible.
func (p *Paginator) hasNextPage(ctx context.Context, page Page) (bool, error) {
	sel := p.cfg.Selectors
	control, ok, err := page.Find(ctx, sel.NextPage)
	if err != nil {
		return false, categorizeError(ctx, err, models.ErrCodeRequestTimeout, models.ErrCodeExtraction, "failed to query next-page control")
	}
	if !ok {
		return false, elementNotFound("next-page control", sel.NextPage)
	}

	hidden, present, err := control.Attribute(sel.NextPageHiddenAttr)
	if err != nil {
		return false, categorizeError(ctx, err, models.ErrCodeRequestTimeout, models.ErrCodeExtraction, "failed to read next-page control")
	}
	return present && hidden == "false", nil
}

// checkRepeated warns when a page carries exactly the cards of the page
// before it, which means the site ignored the page index. The items are
// kept either way.
func (p *Paginator) checkRepeated(ctx context.Context, t *traversal, pageItems []models.ProductRecord) {
	fp := simhash.FingerprintProducts(pageItems)
	if fp != 0 && t.index > 1 && simhash.Similar(fp, t.lastPrint, 0) {
		logctx.From(ctx).Warn("listing page repeats the previous page",
			"category", t.category,
			"page", t.index,
			"products", len(pageItems),
		)
		p.observer.PageRepeated(t.category)
	}
	t.lastPrint = fp
}
