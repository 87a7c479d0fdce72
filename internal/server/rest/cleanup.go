package rest

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/Akshaj-Bisht/droply/internal/logging"
	sc "github.com/Akshaj-Bisht/droply/internal/server/config"
	"github.com/Akshaj-Bisht/droply/internal/shared"
	"github.com/gin-gonic/gin"
)

// CleanupController exposes the expiry-sweep trigger for an external cron.
type CleanupController struct {
	sweeper Sweeper
	config  *sc.Config
	logger  logging.Logger
}

func NewCleanupController(sweeper Sweeper, config *sc.Config, logger logging.Logger) *CleanupController {
	return &CleanupController{
		sweeper: sweeper,
		config:  config,
		logger:  logger.With("module", "rest"),
	}
}

func (c *CleanupController) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/cleanup", c.TriggerCleanup)
	router.POST("/cleanup", c.TriggerCleanup)
}

// TriggerCleanup runs one expiry sweep. Callers authenticate with the shared
// secret, either as a Bearer token or a ?secret= query parameter.
func (c *CleanupController) TriggerCleanup(ctx *gin.Context) {
	if !c.authorized(ctx) {
		abortWithError(ctx, shared.ErrorUnauthorized)
		return
	}

	removed, err := c.sweeper.Sweep(ctx.Request.Context())
	if err != nil {
		c.logger.Error(ctx.Request.Context(), "sweep failed", "error", err.Error())
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"deleted": removed})
}

func (c *CleanupController) authorized(ctx *gin.Context) bool {
	secret := strings.TrimPrefix(ctx.GetHeader("Authorization"), "Bearer ")
	if secret == "" || secret == ctx.GetHeader("Authorization") {
		secret = ctx.Query("secret")
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(c.config.CleanupSecret)) == 1
}
