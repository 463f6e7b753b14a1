package utils

import (
	"github.com/gin-gonic/gin"
)

// RespondSuccess writes the standard success envelope
func RespondSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// RespondError writes the standard error envelope and aborts the chain
func RespondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// RespondValidationError reports a binding failure with its details
func RespondValidationError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

// RespondWarning reports a refused request the user can act on, such as a
// repeated submission. Nothing was changed.
func RespondWarning(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":     code,
			"message":  message,
			"severity": "warning",
		},
	})
}
