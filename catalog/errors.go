package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/use-agent/shopcrawl/models"
)

// categorizeError wraps a raw browser error into a CatalogError so the API
// layer can map it to an HTTP status. ctx is the request context: once it
// is done, every failure is reported as a request timeout regardless of
// which operation tripped over it. timeoutCode is used when only the
// operation's own deadline expired.
func categorizeError(ctx context.Context, err error, timeoutCode, code, msg string) *models.CatalogError {
	var ce *models.CatalogError
	if errors.As(err, &ce) {
		return ce
	}

	switch {
	case ctx.Err() != nil:
		return models.NewCatalogError(models.ErrCodeRequestTimeout, "request deadline exceeded: "+msg, err)
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewCatalogError(timeoutCode, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewCatalogError(models.ErrCodeRequestTimeout, "request canceled", err)
	default:
		return models.NewCatalogError(code, msg, err)
	}
}

func elementNotFound(what, selector string) *models.CatalogError {
	return models.NewCatalogError(
		models.ErrCodeElementNotFound,
		fmt.Sprintf("%s element %s not found", what, selector),
		nil,
	)
}
