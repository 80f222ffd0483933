package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/travel-support/internal/application/pipeline"
	"github.com/garyjia/travel-support/internal/application/session"
	"github.com/garyjia/travel-support/internal/domain/entity"
)

// OpenSession handles POST /api/forms/:form/sessions
func (h *Handlers) OpenSession(c *gin.Context) {
	view, err := h.forms.OpenSession(c.Param("form"))
	if err != nil {
		h.fail(c, "open session", err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: view})
}

// GetSession handles GET /api/sessions/:id
func (h *Handlers) GetSession(c *gin.Context) {
	view, err := h.forms.Session(c.Param("id"))
	if err != nil {
		h.fail(c, "get session", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: view})
}

// CloseSession handles DELETE /api/sessions/:id
func (h *Handlers) CloseSession(c *gin.Context) {
	if err := h.forms.CloseSession(c.Param("id")); err != nil {
		h.fail(c, "close session", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// ResetSession handles POST /api/sessions/:id/reset
func (h *Handlers) ResetSession(c *gin.Context) {
	view, err := h.forms.ResetSession(c.Param("id"))
	if err != nil {
		h.fail(c, "reset session", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: view})
}

// UpdateValues handles PUT /api/sessions/:id/values
func (h *Handlers) UpdateValues(c *gin.Context) {
	var req ValuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	view, err := h.forms.UpdateValues(c.Param("id"), req.Values)
	if err != nil {
		h.fail(c, "update values", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: view})
}

// Lookup handles POST /api/sessions/:id/lookups
func (h *Handlers) Lookup(c *gin.Context) {
	var req LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "target, field (id or email) and value are required")
		return
	}

	result, err := h.forms.Lookup(c.Request.Context(), c.Param("id"), req.Target, entity.LookupKey{
		Field: entity.LookupField(req.Field),
		Value: req.Value,
	})
	if err != nil {
		h.fail(c, "lookup", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// StageAttachments handles POST /api/sessions/:id/attachments (multipart "files")
func (h *Handlers) StageAttachments(c *gin.Context) {
	id := c.Param("id")
	files, err := h.readUploads(c)
	if err != nil {
		h.fail(c, "stage attachments", err)
		return
	}
	if len(files) == 0 {
		badRequest(c, "no files uploaded")
		return
	}

	view, err := h.forms.StageAttachments(id, files)
	if err != nil {
		h.fail(c, "stage attachments", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: view})
}

// RemoveAttachment handles DELETE /api/sessions/:id/attachments/:name
func (h *Handlers) RemoveAttachment(c *gin.Context) {
	view, err := h.forms.RemoveAttachment(c.Param("id"), c.Param("name"))
	if err != nil {
		h.fail(c, "remove attachment", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: view})
}

// Submit handles POST /api/sessions/:id/submit
func (h *Handlers) Submit(c *gin.Context) {
	var req ValuesRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}

	outcome, err := h.forms.Submit(c.Request.Context(), c.Param("id"), req.Values)
	if err != nil {
		h.fail(c, "submit", err)
		return
	}
	h.writeOutcome(c, outcome)
}

// SubmitOnce handles POST /api/forms/:form/submissions. The body is either JSON
// {"values": {...}} or multipart with a "values" JSON part and "files".
func (h *Handlers) SubmitOnce(c *gin.Context) {
	var (
		values map[string]any
		files  []entity.StagedAttachment
		err    error
	)

	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		if raw := c.PostForm("values"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &values); err != nil {
				badRequest(c, "values must be a JSON object")
				return
			}
		}
		if files, err = h.readUploads(c); err != nil {
			h.fail(c, "submit", err)
			return
		}
	} else {
		var req ValuesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		values = req.Values
	}

	outcome, err := h.forms.SubmitOnce(c.Request.Context(), c.Param("form"), values, files)
	if err != nil {
		h.fail(c, "submit", err)
		return
	}
	h.writeOutcome(c, outcome)
}

// writeOutcome answers 201 when the record exists, 422 for field errors and 502
// when the record store rejected the record.
func (h *Handlers) writeOutcome(c *gin.Context, outcome *pipeline.Outcome) {
	switch {
	case outcome.Succeeded():
		c.JSON(http.StatusCreated, Response{Success: true, Data: outcome})
	case len(outcome.FieldErrors) > 0:
		c.JSON(http.StatusUnprocessableEntity, Response{Success: false, Data: outcome, Error: outcome.Notification.Message})
	default:
		if outcome.Failure != nil {
			h.logger.Error("Submission failed", "path", c.Request.URL.Path, "error", outcome.Failure)
		}
		c.JSON(http.StatusBadGateway, Response{Success: false, Data: outcome, Error: outcome.Notification.Message})
	}
}

// readUploads reads the "files" parts of a multipart request. A request that is not
// multipart has no files.
func (h *Handlers) readUploads(c *gin.Context) ([]entity.StagedAttachment, error) {
	mf, err := c.MultipartForm()
	if errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", session.ErrInvalidAttachment, err)
	}

	headers := mf.File["files"]
	if h.maxFiles > 0 && len(headers) > h.maxFiles {
		return nil, fmt.Errorf("%w: at most %d files", session.ErrTooManyAttachments, h.maxFiles)
	}

	files := make([]entity.StagedAttachment, 0, len(headers))
	for _, fh := range headers {
		content, err := h.readUpload(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, entity.StagedAttachment{Name: fh.Filename, Content: content})
	}
	return files, nil
}

func (h *Handlers) readUpload(fh *multipart.FileHeader) ([]byte, error) {
	if h.maxUpload > 0 && fh.Size > h.maxUpload {
		return nil, fmt.Errorf("%w: %s", session.ErrAttachmentTooLarge, fh.Filename)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", session.ErrInvalidAttachment, fh.Filename, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", session.ErrInvalidAttachment, fh.Filename, err)
	}
	return content, nil
}
