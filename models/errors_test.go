package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogError(t *testing.T) {
	cause := errors.New("target closed")
	err := NewCatalogError(ErrCodeBrowserCrash, "page crashed", cause)

	assert.Equal(t, "BROWSER_CRASH: page crashed: target closed", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, &ErrorDetail{Code: ErrCodeBrowserCrash, Message: "page crashed"}, err.ToDetail())

	bare := NewCatalogError(ErrCodePageLimit, "too many pages", nil)
	assert.Equal(t, "PAGE_LIMIT_EXCEEDED: too many pages", bare.Error())
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("category men: %w", NewCatalogError(ErrCodeElementNotFound, "brand", nil))

	assert.Equal(t, ErrCodeElementNotFound, CodeOf(wrapped))
	assert.Equal(t, ErrCodeInternal, CodeOf(errors.New("plain")))
}
