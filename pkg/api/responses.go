package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/communityforge/notify/pkg/notify"
)

// RespondError sends the uniform failure envelope with the given status.
func RespondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   message,
	})
}

// RespondResult sends a dispatch result with the status derived from its
// error classification. Success and failure share the same envelope shape.
func RespondResult(c *gin.Context, result *notify.Result) {
	if result.Success {
		c.JSON(http.StatusOK, result)
		return
	}
	c.JSON(result.ErrorKind.HTTPStatus(), result)
}
