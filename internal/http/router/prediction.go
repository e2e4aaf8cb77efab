package router

import (
	"github.com/gin-gonic/gin"

	"medrisk.app/console/internal/http/handler"
)

func PredictionRouter(rg *gin.RouterGroup, h *handler.SubmissionHandler) {
	rg.POST("/:category", h.Submit)
}
