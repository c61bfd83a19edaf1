package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/fleet-health/pkg/database/queries"
	"github.com/OldStager01/fleet-health/pkg/models"
)

// writeError maps domain errors onto HTTP status codes. Validation problems
// are the caller's fault, missing data is reported as such, everything else
// is a server error with the detail kept out of the response.
func writeError(c *gin.Context, err error) {
	switch {
	case models.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case models.IsInsufficientData(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case err == queries.ErrServerNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "server not found"})
	case err == queries.ErrConditionNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "alert condition not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
