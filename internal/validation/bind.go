package validation

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BindJSON binds the JSON body into out. Field rules are enforced later by the
// services; this only rejects bodies that cannot be decoded. On failure it
// writes a 400 response and returns the error so the handler can short-circuit.
func BindJSON(c *gin.Context, out interface{}) error {
	if err := c.ShouldBindJSON(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": "invalid request body: " + err.Error(),
		})
		return err
	}
	return nil
}
