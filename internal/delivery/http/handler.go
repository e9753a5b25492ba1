package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ecofinder/backend/internal/domain"
	"github.com/ecofinder/backend/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	sessions *usecase.SessionRegistry
	logger   logrus.FieldLogger
}

// NewHandler creates a new HTTP handler
func NewHandler(sessions *usecase.SessionRegistry, logger logrus.FieldLogger) *Handler {
	return &Handler{
		sessions: sessions,
		logger:   logger,
	}
}

// SessionResponse is a discovery session snapshot with its id
type SessionResponse struct {
	ID string `json:"id"`
	usecase.Snapshot
}

// QueryRequest is the body of a query update
type QueryRequest struct {
	Query *string `json:"query" binding:"required"`
}

// CategoryRequest is the body of a category selection
type CategoryRequest struct {
	Category string `json:"category" binding:"required"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  "ecofinder-backend",
		"version":  "1.0.0",
		"sessions": h.sessions.Len(),
	})
}

// ListCategories returns the category selectors in display order
func (h *Handler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories": domain.Selectors,
	})
}

// ClassifyScore maps an eco-score onto its tier, label and color
func (h *Handler) ClassifyScore(c *gin.Context) {
	score, err := strconv.Atoi(c.Param("score"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "score must be an integer"})
		return
	}
	c.JSON(http.StatusOK, usecase.Classify(score))
}

// CreateSession starts a discovery session with the full catalog visible
func (h *Handler) CreateSession(c *gin.Context) {
	id, session := h.sessions.Create()
	c.JSON(http.StatusCreated, SessionResponse{ID: id, Snapshot: session.Snapshot()})
}

// GetSession returns the current view of a session
func (h *Handler) GetSession(c *gin.Context) {
	id := c.Param("id")
	session, err := h.sessions.Get(id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SessionResponse{ID: id, Snapshot: session.Snapshot()})
}

// DeleteSession closes a session and cancels its pending provider calls
func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateQuery applies new search text. Long enough queries also start a
// background search, reported through the loading flag.
func (h *Handler) UpdateQuery(c *gin.Context) {
	id := c.Param("id")
	session, err := h.sessions.Get(id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: query is required"})
		return
	}

	session.OnQueryChanged(*req.Query)
	c.JSON(http.StatusOK, SessionResponse{ID: id, Snapshot: session.Snapshot()})
}

// SelectCategory switches the category selector
func (h *Handler) SelectCategory(c *gin.Context) {
	id := c.Param("id")
	session, err := h.sessions.Get(id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: category is required"})
		return
	}

	if err := session.OnCategorySelected(req.Category); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SessionResponse{ID: id, Snapshot: session.Snapshot()})
}

// AnalyzeProduct runs a deep analysis of a product in the session catalog and
// waits for its outcome
func (h *Handler) AnalyzeProduct(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	product, ok := usecase.FindByID(session.Catalog(), c.Param("productId"))
	if !ok {
		h.respondError(c, domain.ErrProductNotFound)
		return
	}

	select {
	case outcome := <-session.OnProductSelected(product):
		switch {
		case errors.Is(outcome.Err, usecase.ErrSessionClosed):
			h.respondError(c, domain.ErrSessionNotFound)
		case outcome.Stale:
			c.JSON(http.StatusConflict, gin.H{
				"error": "Analysis superseded by a newer request",
				"stale": true,
			})
		case outcome.Err != nil:
			c.JSON(http.StatusBadGateway, gin.H{"error": outcome.Message})
		default:
			c.JSON(http.StatusOK, outcome)
		}
	case <-c.Request.Context().Done():
		h.logger.WithField("product_id", product.ID).Debug("Client went away before analysis settled")
		c.Status(http.StatusRequestTimeout)
	}
}

// respondError maps domain errors onto HTTP statuses
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrProviderUnavailable), errors.Is(err, domain.ErrProviderTimeout):
		c.JSON(http.StatusBadGateway, gin.H{"error": usecase.AnalysisFailedMessage})
	default:
		h.logger.WithError(err).Error("Unhandled request error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
