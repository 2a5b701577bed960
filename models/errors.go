package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeElementNotFound    = "ELEMENT_NOT_FOUND"
	ErrCodeExtraction         = "EXTRACTION_FAILED"
	ErrCodeNavigation         = "NAVIGATION_FAILED"
	ErrCodeNavigationTimeout  = "NAVIGATION_TIMEOUT"
	ErrCodeScrollStallTimeout = "SCROLL_STALL_TIMEOUT"
	ErrCodeRequestTimeout     = "REQUEST_TIMEOUT"
	ErrCodePageLimit          = "PAGE_LIMIT_EXCEEDED"
	ErrCodeBrowserCrash       = "BROWSER_CRASH"
	ErrCodeUnknownCategory    = "UNKNOWN_CATEGORY"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CatalogError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type CatalogError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *CatalogError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CatalogError) Unwrap() error {
	return e.Err
}

// NewCatalogError creates a new CatalogError.
func NewCatalogError(code, message string, err error) *CatalogError {
	return &CatalogError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *CatalogError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// CodeOf returns the code of the first CatalogError in err's chain,
// or ErrCodeInternal when there is none.
func CodeOf(err error) string {
	var ce *CatalogError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrCodeInternal
}
