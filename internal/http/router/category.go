package router

import (
	"github.com/gin-gonic/gin"

	"medrisk.app/console/internal/http/handler"
)

func CategoryRouter(rg *gin.RouterGroup, h *handler.CategoryHandler) {
	rg.GET("", h.List)
	rg.GET("/:category/schema", h.Schema)
}
