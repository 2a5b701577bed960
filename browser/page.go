package browser

import (
	"context"

	"github.com/go-rod/rod"

	"github.com/use-agent/shopcrawl/catalog"
)

// scrollJS scrolls the window by dy pixels and reports where the viewport
// ended up.
const scrollJS = `(dy) => {
	window.scrollBy(0, dy);
	const doc = document.documentElement;
	return {
		bottom: Math.ceil(window.scrollY + window.innerHeight),
		height: Math.max(doc.scrollHeight, document.body ? document.body.scrollHeight : 0),
	};
}`

// Page adapts a Rod page to catalog.Page. Every call binds the caller's
// context, so cancellation reaches the pending CDP request.
type Page struct {
	page *rod.Page
}

// Navigate loads rawURL and waits for the load event.
func (p *Page) Navigate(ctx context.Context, rawURL string) error {
	page := p.page.Context(ctx)
	if err := page.Navigate(rawURL); err != nil {
		return err
	}
	return page.WaitLoad()
}

// ScrollBy scrolls the window by dy pixels.
func (p *Page) ScrollBy(ctx context.Context, dy int) (catalog.ScrollPosition, error) {
	res, err := p.page.Context(ctx).Eval(scrollJS, dy)
	if err != nil {
		return catalog.ScrollPosition{}, err
	}
	return catalog.ScrollPosition{
		Bottom: res.Value.Get("bottom").Int(),
		Height: res.Value.Get("height").Int(),
	}, nil
}

// FindAll returns every element matching selector without waiting for one
// to appear.
func (p *Page) FindAll(ctx context.Context, selector string) ([]catalog.Element, error) {
	els, err := p.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &Element{el: el})
	}
	return out, nil
}

// Find returns the first element matching selector.
func (p *Page) Find(ctx context.Context, selector string) (catalog.Element, bool, error) {
	ok, el, err := p.page.Context(ctx).Has(selector)
	if err != nil || !ok {
		return nil, false, err
	}
	return &Element{el: el}, true, nil
}

// Element adapts a Rod element to catalog.Element. It keeps the context of
// the page call that produced it.
type Element struct {
	el *rod.Element
}

func (e *Element) Find(selector string) (catalog.Element, bool, error) {
	ok, el, err := e.el.Has(selector)
	if err != nil || !ok {
		return nil, false, err
	}
	return &Element{el: el}, true, nil
}

// Text reads textContent rather than innerText, so hidden descendants and
// unrendered whitespace are kept.
func (e *Element) Text() (string, error) {
	return e.Property("textContent")
}

func (e *Element) Property(name string) (string, error) {
	v, err := e.el.Property(name)
	if err != nil {
		return "", err
	}
	return v.Str(), nil
}

func (e *Element) Attribute(name string) (string, bool, error) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", false, err
	}
	return *v, true, nil
}
