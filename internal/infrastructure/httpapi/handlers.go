package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"LaCarte/internal/domain"
	"LaCarte/internal/infrastructure/storage"
	"LaCarte/internal/ports"
)

// PageLoader is the server-tier gate.
type PageLoader interface {
	Load(ctx context.Context, session ports.KVStore, force bool) (domain.PageLoad, error)
}

// PieceFetcher runs the ungated pipeline.
type PieceFetcher interface {
	Pieces(ctx context.Context) ([]domain.EnrichedPiece, error)
}

type embeddingsRequest struct {
	Tags [][]string `json:"tags" binding:"required"`
}

type handlers struct {
	deps Deps
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// load serves the page data behind the session cookie gate.
func (h *handlers) load(c *gin.Context) {
	force, _ := strconv.ParseBool(c.Query("refresh"))
	session := storage.NewGinCookieStore(c, "/", 0)

	page, err := h.deps.Loader.Load(c.Request.Context(), session, force)
	if err != nil {
		h.fail(c, err, "failed to load pieces")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *handlers) pieces(c *gin.Context) {
	pieces, err := h.deps.Pipeline.Pieces(c.Request.Context())
	if err != nil {
		h.fail(c, err, "failed to fetch Reddit data")
		return
	}
	c.JSON(http.StatusOK, gin.H{"pieces": pieces})
}

func (h *handlers) user(c *gin.Context) {
	raw, err := h.deps.Account.Me(c.Request.Context())
	if err != nil {
		h.deps.Logger.Error("fetch reddit account", "error", err, requestIDKey, c.GetString(requestIDKey))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch Reddit data"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

func (h *handlers) embeddings(c *gin.Context) {
	var req embeddingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"tags\": [[...], ...]}"})
		return
	}
	projections := h.deps.Projector.ProjectBatch(c.Request.Context(), req.Tags)
	c.JSON(http.StatusOK, gin.H{"projections": projections})
}

// fail reports an upstream failure as 502 and anything else as 500.
func (h *handlers) fail(c *gin.Context, err error, msg string) {
	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrUpstream) {
		status = http.StatusBadGateway
	}
	h.deps.Logger.Error(msg, "error", err, "status", status, requestIDKey, c.GetString(requestIDKey))
	c.JSON(status, gin.H{"error": msg + ": " + err.Error()})
}
