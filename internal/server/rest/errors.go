package rest

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/Akshaj-Bisht/droply/internal/shared"
	"github.com/gin-gonic/gin"
)

// tokenPattern matches the external session token format. Anything else is a
// malformed request, not a miss.
var tokenPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

// abortWithError maps service sentinels to HTTP status codes. Unrecognized
// errors become opaque 500s; their detail belongs in the log, not the body.
func abortWithError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, shared.ErrorValidation):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, shared.ErrorNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, shared.ErrorSessionExpired):
		ctx.JSON(http.StatusGone, gin.H{"error": "session expired"})
	case errors.Is(err, shared.ErrorUnauthorized):
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, shared.ErrorRateLimited):
		ctx.JSON(http.StatusTooManyRequests, gin.H{"error": "storage provider rate limit"})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
