package catalog

import "time"

// Observer receives traversal events. Package metrics implements it with
// Prometheus collectors.
type Observer interface {
	PageVisited(category string, products int)
	PageRepeated(category string)
	RunFinished(err error, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) PageVisited(string, int)          {}
func (nopObserver) PageRepeated(string)              {}
func (nopObserver) RunFinished(error, time.Duration) {}
