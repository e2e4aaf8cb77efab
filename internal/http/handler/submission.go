package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"medrisk.app/console/internal/http/dto"
	"medrisk.app/console/internal/schema"
	"medrisk.app/console/internal/service"
)

type SubmissionHandler struct {
	submissions service.SubmissionService
}

func NewSubmissionHandler(submissions service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions}
}

// Submit runs one prediction round-trip. The response is always 200 once the
// input passes validation: backend failures are reported per-call inside the
// body, not as an HTTP error.
func (h *SubmissionHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()

	category, ok := schema.Lookup(c.Param("category"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown category"})
		return
	}

	var req dto.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vec, err := category.BuildVector(req.Features)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if err := category.Validate(vec); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	result := h.submissions.Submit(ctx, service.SubmissionParams{
		SubjectID: req.SubjectID,
		Category:  category.Name,
		Vector:    vec,
	})

	c.JSON(http.StatusOK, dto.ToSubmissionResponse(category.Name, result))
}
