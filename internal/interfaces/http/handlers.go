package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/travel-support/internal/application/service"
	"github.com/garyjia/travel-support/internal/domain/entity"
)

// HealthFunc reports whether the service is healthy, with per-component detail
type HealthFunc func() (bool, interface{})

// Handlers contains all HTTP request handlers
type Handlers struct {
	forms     service.FormService
	requests  service.RequestService
	health    HealthFunc
	maxUpload int64
	maxFiles  int
	version   string
	logger    Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	forms service.FormService,
	requests service.RequestService,
	health HealthFunc,
	limits UploadLimits,
	logger Logger,
) *Handlers {
	return &Handlers{
		forms:     forms,
		requests:  requests,
		health:    health,
		maxUpload: limits.MaxFileBytes,
		maxFiles:  limits.MaxFiles,
		version:   Version,
		logger:    logger,
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
	}

	healthy := true
	if h.health != nil {
		healthy, response.Components = h.health()
	}
	if !healthy {
		response.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, Response{Success: false, Data: response, Error: "service unhealthy"})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// ListForms handles GET /api/forms
func (h *Handlers) ListForms(c *gin.Context) {
	schemas := h.forms.Forms()
	out := make([]FormSummary, 0, len(schemas))
	for _, s := range schemas {
		out = append(out, toFormSummary(s))
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: out})
}

// GetForm handles GET /api/forms/:form
func (h *Handlers) GetForm(c *gin.Context) {
	schema, err := h.forms.Schema(c.Param("form"))
	if err != nil {
		h.fail(c, "get form", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toSchemaResponse(schema)})
}

// FindEmployee handles GET /api/employees?field=id|email&value=
func (h *Handlers) FindEmployee(c *gin.Context) {
	var q EmployeeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "field must be id or email and value is required")
		return
	}

	emp, err := h.forms.FindEmployee(c.Request.Context(), entity.LookupKey{
		Field: entity.LookupField(q.Field),
		Value: q.Value,
	})
	if err != nil {
		h.fail(c, "find employee", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: emp})
}
