package router

import (
	"github.com/gin-gonic/gin"

	"medrisk.app/console/internal/http/handler"
)

func HistoryRouter(rg *gin.RouterGroup, h *handler.HistoryHandler) {
	rg.GET("", h.List)
	rg.GET("/stats", h.Stats)
	rg.GET("/stream", h.Stream)
	rg.DELETE("", h.Clear)
}
