package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"medrisk.app/console/internal/feed"
	"medrisk.app/console/internal/http/dto"
	"medrisk.app/console/internal/model"
	"medrisk.app/console/internal/schema"
	"medrisk.app/console/internal/service"
)

type HistoryHandler struct {
	history service.HistoryService
	hub     *feed.Hub
}

func NewHistoryHandler(history service.HistoryService, hub *feed.Hub) *HistoryHandler {
	return &HistoryHandler{history: history, hub: hub}
}

func subjectID(c *gin.Context) (string, bool) {
	raw := c.Query("subject_id")
	if _, err := uuid.Parse(raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subject_id must be a valid uuid"})
		return "", false
	}
	return raw, true
}

func (h *HistoryHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	subject, ok := subjectID(c)
	if !ok {
		return
	}

	snapshot, err := h.history.Snapshot(ctx, subject)
	if err != nil {
		slog.ErrorContext(ctx, "listing history failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list history"})
		return
	}

	c.JSON(http.StatusOK, dto.ToHistoryResponse(snapshot))
}

// Stats reports per-category entry counts derived from the current snapshot.
func (h *HistoryHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	subject, ok := subjectID(c)
	if !ok {
		return
	}

	snapshot, err := h.history.Snapshot(ctx, subject)
	if err != nil {
		slog.ErrorContext(ctx, "listing history failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list history"})
		return
	}

	counts := service.Aggregate(snapshot)
	resp := dto.StatsResponse{Counts: []dto.CategoryCount{}}
	for _, cat := range schema.Categories() {
		n := counts[cat.Name]
		if n == 0 {
			continue
		}
		resp.Counts = append(resp.Counts, dto.CategoryCount{
			Category: cat.Name,
			Count:    n,
			Color:    schema.CategoryColor(cat.Name),
		})
		resp.Total += n
	}

	c.JSON(http.StatusOK, resp)
}

// Clear wipes the subject's history. A storage failure maps to 502 because
// the log may be left partially cleared and the client should re-check.
func (h *HistoryHandler) Clear(c *gin.Context) {
	ctx := c.Request.Context()

	subject, ok := subjectID(c)
	if !ok {
		return
	}

	deleted, err := h.history.ClearAll(ctx, subject)
	if err != nil {
		var persistErr *model.PersistenceError
		if errors.As(err, &persistErr) {
			slog.ErrorContext(ctx, "clearing history failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "history clear incomplete"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear history"})
		return
	}

	c.JSON(http.StatusOK, dto.ClearResponse{Deleted: deleted})
}

// Stream pushes history snapshots over SSE: the current snapshot first, then
// one event per observed change.
func (h *HistoryHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()

	subject, ok := subjectID(c)
	if !ok {
		return
	}

	sub, err := h.hub.Subscribe(ctx, subject)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history feed unavailable"})
		return
	}
	defer sub.Close()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case snapshot, open := <-sub.Snapshots:
			if !open {
				return false
			}
			c.SSEvent("snapshot", dto.ToHistoryResponse(snapshot))
			return true
		case <-ctx.Done():
			return false
		}
	})
}
