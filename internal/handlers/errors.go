package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/imrishuroy/go-catalog-orders/internal/storage"
	"github.com/imrishuroy/go-catalog-orders/internal/validation"
)

// writeError maps a service error to its HTTP response. Validation failures
// echo the offending fields; anything else is a 500 carrying the error text.
func writeError(c *gin.Context, logger *log.Entry, err error) {
	var ve *validation.Error
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "validation failed", "fields": ve.Fields})
		return
	}

	entry := requestLogger(c, logger).WithError(err)
	if storage.IsStorageError(err) {
		entry.Error("store operation failed")
	} else {
		entry.Error("request failed")
	}
	c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
}

// badQuery answers a query string that could not be decoded.
func badQuery(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid query parameters: " + err.Error()})
}
