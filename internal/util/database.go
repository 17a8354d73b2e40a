package util

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HandleDBError maps database errors to the failure envelope.
// Returns true if the error was handled and a response was sent.
func HandleDBError(c *gin.Context, err error, resourceName string) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		RespondNotFound(c, resourceName)
		return true
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		RespondConflict(c, resourceName)
		return true
	}

	RespondInternalError(c, "Failed to access "+resourceName)
	return true
}
