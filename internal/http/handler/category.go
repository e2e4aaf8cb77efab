package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medrisk.app/console/internal/http/dto"
	"medrisk.app/console/internal/schema"
)

type CategoryHandler struct{}

func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

func (h *CategoryHandler) List(c *gin.Context) {
	cats := schema.Categories()
	out := make([]dto.CategoryResponse, 0, len(cats))
	for _, cat := range cats {
		out = append(out, dto.ToCategoryResponse(cat))
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}

// Schema serves the category's input contract as a JSON Schema document.
func (h *CategoryHandler) Schema(c *gin.Context) {
	cat, ok := schema.Lookup(c.Param("category"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown category"})
		return
	}
	c.JSON(http.StatusOK, cat.JSONSchema())
}
