// Package catalog implements the catalog traversal engine: it walks every
// listing page of a category through a browser page, extracts the product
// cards of each page and aggregates the categories into one result.
//
// The engine never talks to a browser directly. It drives the narrow Page,
// Element and Session interfaces below; package browser implements them on
// top of go-rod and package htmldom on top of static HTML documents.
package catalog

import "context"

// Element is one node of a rendered page. Reads are bound to the context
// the element was found with.
type Element interface {
	// Find returns the first descendant matching selector. ok is false
	// when nothing matches.
	Find(selector string) (el Element, ok bool, err error)

	// Text returns the node's textContent.
	Text() (string, error)

	// Property reads a DOM property, e.g. the resolved "src" of an image.
	Property(name string) (string, error)

	// Attribute returns the attribute value and whether it is present.
	Attribute(name string) (value string, ok bool, err error)
}

// ScrollPosition describes the viewport after a scroll step.
type ScrollPosition struct {
	// Bottom is the document offset of the viewport's lower edge.
	Bottom int

	// Height is the scrollable height of the document.
	Height int
}

// Page is a single live browsing tab. Calls against one Page must not be
// issued concurrently.
type Page interface {
	// Navigate loads url and returns once the page has finished loading.
	Navigate(ctx context.Context, url string) error

	// ScrollBy scrolls the viewport down by dy pixels.
	ScrollBy(ctx context.Context, dy int) (ScrollPosition, error)

	// FindAll returns every element matching selector in document order.
	FindAll(ctx context.Context, selector string) ([]Element, error)

	// Find returns the first element matching selector.
	Find(ctx context.Context, selector string) (el Element, ok bool, err error)
}

// Session is one browsing context owned by a single aggregation run.
type Session interface {
	// OpenPage creates a new tab in the session.
	OpenPage(ctx context.Context) (Page, error)

	// Close releases the session and every page opened from it.
	Close() error
}

// SessionFactory opens a fresh Session.
type SessionFactory func(ctx context.Context) (Session, error)
