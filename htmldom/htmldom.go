// Package htmldom implements catalog.Page and catalog.Session over static
// HTML documents parsed with goquery. Every page is fully rendered from the
// start, so scrolling settles immediately.
package htmldom

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/use-agent/shopcrawl/catalog"
)

// documentHeight is the fixed scroll height reported for every document.
const documentHeight = 1080

// Site is a set of HTML documents keyed by absolute URL. It records every
// navigation and can be used as a catalog.Session.
type Site struct {
	mu          sync.Mutex
	documents   map[string]string
	navigations []string
	pages       int
	closed      bool
}

// NewSite creates an empty Site.
func NewSite() *Site {
	return &Site{documents: make(map[string]string)}
}

// Add registers the HTML served at rawURL.
func (s *Site) Add(rawURL, htmlDoc string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[rawURL] = htmlDoc
}

// Navigations returns the URLs navigated to so far, in order.
func (s *Site) Navigations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.navigations...)
}

// PagesOpened returns how many pages were opened on the site.
func (s *Site) PagesOpened() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages
}

// Closed reports whether Close has been called.
func (s *Site) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// OpenPage implements catalog.Session.
func (s *Site) OpenPage(ctx context.Context) (catalog.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("htmldom: site is closed")
	}
	s.pages++
	return &Page{site: s}, nil
}

// Close implements catalog.Session.
func (s *Site) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Factory returns a catalog.SessionFactory handing out this site.
func (s *Site) Factory() catalog.SessionFactory {
	return func(context.Context) (catalog.Session, error) {
		return s, nil
	}
}

func (s *Site) load(rawURL string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navigations = append(s.navigations, rawURL)
	doc, ok := s.documents[rawURL]
	return doc, ok
}

// Page is one tab on a Site.
type Page struct {
	site *Site
	doc  *goquery.Document
	base *url.URL
}

// Navigate parses the document registered for rawURL.
func (p *Page) Navigate(ctx context.Context, rawURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, ok := p.site.load(rawURL)
	if !ok {
		return fmt.Errorf("htmldom: no document for %s", rawURL)
	}
	base, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("htmldom: parse url: %w", err)
	}
	node, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("htmldom: parse document: %w", err)
	}
	p.doc = goquery.NewDocumentFromNode(node)
	p.base = base
	return nil
}

// ScrollBy reports the viewport at the bottom of a fully rendered document.
func (p *Page) ScrollBy(ctx context.Context, dy int) (catalog.ScrollPosition, error) {
	if err := ctx.Err(); err != nil {
		return catalog.ScrollPosition{}, err
	}
	return catalog.ScrollPosition{Bottom: documentHeight, Height: documentHeight}, nil
}

// FindAll returns the elements matching selector in document order.
func (p *Page) FindAll(ctx context.Context, selector string) ([]catalog.Element, error) {
	if err := p.ready(ctx); err != nil {
		return nil, err
	}
	var els []catalog.Element
	p.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		els = append(els, &Element{sel: s, base: p.base})
	})
	return els, nil
}

// Find returns the first element matching selector.
func (p *Page) Find(ctx context.Context, selector string) (catalog.Element, bool, error) {
	if err := p.ready(ctx); err != nil {
		return nil, false, err
	}
	s := p.doc.Find(selector).First()
	if s.Length() == 0 {
		return nil, false, nil
	}
	return &Element{sel: s, base: p.base}, true, nil
}

func (p *Page) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.doc == nil {
		return fmt.Errorf("htmldom: no document loaded")
	}
	return nil
}

// Element wraps a single-node goquery selection.
type Element struct {
	sel  *goquery.Selection
	base *url.URL
}

// Find returns the first descendant matching selector.
func (e *Element) Find(selector string) (catalog.Element, bool, error) {
	s := e.sel.Find(selector).First()
	if s.Length() == 0 {
		return nil, false, nil
	}
	return &Element{sel: s, base: e.base}, true, nil
}

// Text returns the concatenated text of the node, like textContent.
func (e *Element) Text() (string, error) {
	return e.sel.Text(), nil
}

// Property emulates the DOM properties the catalog reads: textContent and
// URL-valued properties (src, href) resolved against the document URL.
// Anything else falls back to the attribute of the same name.
func (e *Element) Property(name string) (string, error) {
	switch name {
	case "textContent":
		return e.sel.Text(), nil
	case "src", "href":
		raw, ok := e.sel.Attr(name)
		if !ok {
			return "", nil
		}
		if e.base == nil {
			return raw, nil
		}
		resolved, err := e.base.Parse(raw)
		if err != nil {
			return raw, nil
		}
		return resolved.String(), nil
	default:
		v, _ := e.sel.Attr(name)
		return v, nil
	}
}

// Attribute returns the attribute value and whether it is present.
func (e *Element) Attribute(name string) (string, bool, error) {
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}
