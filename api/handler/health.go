package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health returns a handler for GET /healthz. It is a liveness probe only and
// never touches the browser.
func Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Status(http.StatusOK)
	}
}
