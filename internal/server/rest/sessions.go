package rest

import (
	"net/http"

	"github.com/Akshaj-Bisht/droply/internal/logging"
	"github.com/Akshaj-Bisht/droply/internal/server/services"
	"github.com/gin-gonic/gin"
)

// SessionController serves session creation and lookup.
type SessionController struct {
	sessions SessionProvider
	logger   logging.Logger
}

func NewSessionController(sessions SessionProvider, logger logging.Logger) *SessionController {
	return &SessionController{
		sessions: sessions,
		logger:   logger.With("module", "rest"),
	}
}

func (c *SessionController) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/sessions", c.CreateSession)
	router.GET("/sessions/:token", c.GetSession)
}

type createSessionRequest struct {
	Files []services.FileInput `json:"files" binding:"required"`
}

// CreateSession persists a session over already-uploaded blobs and returns
// its share token.
func (c *SessionController) CreateSession(ctx *gin.Context) {
	var request createSessionRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := c.sessions.Create(ctx.Request.Context(), request.Files)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"token": token})
}

// GetSession returns the session and its file listing. Expired sessions
// answer 410 so clients can distinguish "gone forever" from a typo.
func (c *SessionController) GetSession(ctx *gin.Context) {
	token := ctx.Param("token")
	if !tokenPattern.MatchString(token) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid session token"})
		return
	}

	session, err := c.sessions.Get(ctx.Request.Context(), token)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, session)
}
