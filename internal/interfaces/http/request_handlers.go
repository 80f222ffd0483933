package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/garyjia/travel-support/internal/application/port"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ListRequests handles GET /api/requests
func (h *Handlers) ListRequests(c *gin.Context) {
	var q ListRequestsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}
	filter, err := q.filter()
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	page, err := h.requests.List(c.Request.Context(), filter, q.Limit, q.Offset)
	if err != nil {
		h.fail(c, "list requests", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: page})
}

// ExportRequests handles GET /api/requests/export
func (h *Handlers) ExportRequests(c *gin.Context) {
	var q ListRequestsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}
	filter, err := q.filter()
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	data, err := h.requests.Export(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, "export requests", err)
		return
	}

	name := fmt.Sprintf("requests-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// GetRequest handles GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	req, err := h.requests.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get request", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// ListAttachments handles GET /api/requests/:id/attachments
func (h *Handlers) ListAttachments(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	files, err := h.requests.Attachments(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "list attachments", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: files})
}

// DownloadAttachment handles GET /api/requests/:id/attachments/:name
func (h *Handlers) DownloadAttachment(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	file, err := h.requests.ReadAttachment(c.Request.Context(), id, c.Param("name"))
	if err != nil {
		h.fail(c, "download attachment", err)
		return
	}

	contentType := file.MimeType
	if contentType == "" {
		contentType = mimetype.Detect(file.Content).String()
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, file.FileName))
	c.Data(http.StatusOK, contentType, file.Content)
}

func requestID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid request ID")
		return 0, false
	}
	return id, true
}

// filter converts the query to a listing filter. Dates are RFC 3339 timestamps or
// plain days; a plain "until" day is inclusive.
func (q ListRequestsQuery) filter() (port.RequestFilter, error) {
	f := port.RequestFilter{FormKey: q.Form}
	var err error
	if q.Since != "" {
		if f.Since, _, err = parseBound(q.Since); err != nil {
			return f, fmt.Errorf("invalid since: %w", err)
		}
	}
	if q.Until != "" {
		var day bool
		if f.Until, day, err = parseBound(q.Until); err != nil {
			return f, fmt.Errorf("invalid until: %w", err)
		}
		if day {
			f.Until = f.Until.AddDate(0, 0, 1)
		}
	}
	if !f.Since.IsZero() && !f.Until.IsZero() && !f.Since.Before(f.Until) {
		return f, fmt.Errorf("since must be before until")
	}
	return f, nil
}

func parseBound(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("expected RFC 3339 or YYYY-MM-DD, got %q", s)
	}
	return t, true, nil
}
