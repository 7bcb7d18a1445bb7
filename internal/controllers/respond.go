package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"

	"handa/internal/registration"
)

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// respondFailure maps registration failures onto the JSON envelope; anything
// else is logged and reported as an unexpected server error.
func respondFailure(c *gin.Context, err error) {
	if f, ok := registration.AsFailure(err); ok {
		body := gin.H{"success": false, "message": f.Message}
		if len(f.Fields) > 0 {
			body["errors"] = f.Fields
		}
		c.JSON(f.StatusCode(), body)
		return
	}
	logrus.WithError(err).WithField("path", c.FullPath()).Error("unexpected error")
	respondError(c, http.StatusInternalServerError, "unexpected server error")
}

// claimUint reads a numeric JWT claim stored on the context. Claims decode as
// float64.
func claimUint(c *gin.Context, key string) uint {
	if v, ok := c.Get(key); ok {
		if f, ok := v.(float64); ok {
			return uint(f)
		}
	}
	return 0
}
