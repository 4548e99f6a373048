package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fanverse-service/internal/apperrors"
)

// respondData writes the success envelope.
func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// respondError maps an error through the failure taxonomy and writes the
// error envelope. Internal detail is suppressed outside debug mode.
func respondError(c *gin.Context, err error) {
	suppress := gin.Mode() == gin.ReleaseMode
	c.JSON(apperrors.Status(err), gin.H{
		"success": false,
		"error":   apperrors.Message(err, suppress),
	})
}

// respondOK writes a bare success envelope with an optional message.
func respondOK(c *gin.Context, message string) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	c.JSON(http.StatusOK, body)
}
