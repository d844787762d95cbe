package projects

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"devhubs/marketplace/marketplace-backend/internal/auth"
	"devhubs/marketplace/marketplace-backend/internal/uploads"
)

// Multipart field names used by the submission form
const (
	galleryField    = "project_images"
	coverPhotoField = "cover_photo"
)

// Handler handles HTTP requests for project listings
type Handler struct {
	registry Registry
	ingestor uploads.Ingestor
	logger   *zap.Logger
}

// NewHandler creates a new projects handler
func NewHandler(registry Registry, ingestor uploads.Ingestor, logger *zap.Logger) *Handler {
	return &Handler{
		registry: registry,
		ingestor: ingestor,
		logger:   logger,
	}
}

// RegisterRoutes registers project routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authRequired gin.HandlerFunc) {
	project := router.Group("/project")
	{
		project.POST("", authRequired, h.submitProject)
		project.GET("", h.listProjects)
		project.GET("/:id", h.getProject)
	}
}

// submitProject handles POST /api/project
func (h *Handler) submitProject(c *gin.Context) {
	requester, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
		return
	}

	var req SubmitProjectRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	// Submissions arrive as multipart form data; the ingestion capability
	// yields metadata only, storage happens elsewhere.
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if form, err := c.MultipartForm(); err == nil {
			req.Images = h.ingestor.IngestAll(form, galleryField)
			if cover := h.ingestor.IngestOne(form, coverPhotoField); cover != nil {
				req.CoverPhoto = cover.URL()
			}
		}
	}

	project, poolSummary, err := h.registry.SubmitProject(c.Request.Context(), req, requester)
	if err != nil {
		h.respondSubmitError(c, err)
		return
	}

	message := "Project listed successfully"
	if project.IsFreeProject {
		message = "Free project created successfully"
	}
	response := gin.H{"message": message, "project": project}
	if poolSummary != nil {
		response["bonusPool"] = poolSummary
	}
	c.JSON(http.StatusCreated, response)
}

// listProjects handles GET /api/project
func (h *Handler) listProjects(c *gin.Context) {
	filter := ListFilter{
		Search:      c.Query("search"),
		TechStack:   c.Query("techStack"),
		Budget:      c.Query("budget"),
		Contributor: c.Query("contributor"),
		Category:    c.Query("category"),
		Page:        h.getIntParam(c, "page", 1),
		Limit:       h.getIntParam(c, "limit", 20),
	}

	results, total, err := h.registry.ListProjects(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list projects", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	message := "Projects fetched successfully"
	if !filter.HasDimensions() {
		message = "All projects fetched successfully"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  message,
		"projects": results,
		"total":    total,
	})
}

// getProject handles GET /api/project/:id
func (h *Handler) getProject(c *gin.Context) {
	project, err := h.registry.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Project not found"})
			return
		}
		h.logger.Error("Failed to get project", zap.Error(err), zap.String("project_id", c.Param("id")))
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Project fetched successfully",
		"project": project,
	})
}

func (h *Handler) respondSubmitError(c *gin.Context, err error) {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"message": validationErr.Message, "fields": validationErr.Fields})
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": err.Error()})
	case errors.Is(err, ErrDuplicateTitle):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, ErrInvalidRequester):
		c.JSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
	default:
		h.logger.Error("Failed to submit project", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
	}
}

// getIntParam gets an integer query parameter with a default value
func (h *Handler) getIntParam(c *gin.Context, key string, defaultVal int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
