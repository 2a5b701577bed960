package handler

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/shopcrawl/logctx"
	"github.com/use-agent/shopcrawl/models"
)

// CatalogRunner runs one catalog aggregation. *catalog.Service implements it.
type CatalogRunner interface {
	Run(ctx context.Context, categories []string) (*models.CatalogResult, error)
}

// Catalog returns a handler for GET /api. It aggregates the fixed
// category set, in order.
func Catalog(runner CatalogRunner, categories []string) gin.HandlerFunc {
	categories = slices.Clone(categories)
	return func(c *gin.Context) {
		runCatalog(c, runner, categories)
	}
}

// CategoryCatalog returns a handler for GET /api/:category. Only the
// categories in allowed can be requested.
//
// Flow:
//  1. Check the category against the allow-list (404 otherwise).
//  2. Aggregate the single category.
func CategoryCatalog(runner CatalogRunner, allowed []string) gin.HandlerFunc {
	allowed = slices.Clone(allowed)
	return func(c *gin.Context) {
		category := c.Param("category")
		if !slices.Contains(allowed, category) {
			respondError(c, models.NewCatalogError(
				models.ErrCodeUnknownCategory,
				"unknown category: "+category,
				nil,
			))
			return
		}
		runCatalog(c, runner, []string{category})
	}
}

func runCatalog(c *gin.Context, runner CatalogRunner, categories []string) {
	result, err := runner.Run(c.Request.Context(), categories)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// respondError maps a CatalogError to the correct HTTP status code and
// writes a structured JSON error response.
func respondError(c *gin.Context, err error) {
	var catalogErr *models.CatalogError
	if !errors.As(err, &catalogErr) {
		catalogErr = models.NewCatalogError(models.ErrCodeInternal, err.Error(), err)
	}

	status := mapErrorToStatus(catalogErr)
	if status >= http.StatusInternalServerError {
		logctx.From(c.Request.Context()).Error("catalog request failed",
			"code", catalogErr.Code,
			"status", status,
			"error", err,
		)
	}
	c.JSON(status, models.ErrorResponse{Error: catalogErr.ToDetail()})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.CatalogError) int {
	switch e.Code {
	case models.ErrCodeNavigationTimeout,
		models.ErrCodeScrollStallTimeout,
		models.ErrCodeRequestTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeElementNotFound,
		models.ErrCodeExtraction,
		models.ErrCodeNavigation,
		models.ErrCodePageLimit:
		return http.StatusBadGateway // 502
	case models.ErrCodeBrowserCrash:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeUnknownCategory:
		return http.StatusNotFound // 404
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	default:
		return http.StatusInternalServerError // 500
	}
}
