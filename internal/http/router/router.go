package router

import (
	"github.com/gin-gonic/gin"

	"medrisk.app/console/internal/feed"
	"medrisk.app/console/internal/http/handler"
	"medrisk.app/console/internal/service"
)

func SetupRoutes(router *gin.Engine, services *service.Services, hub *feed.Hub) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		categoryHandler := handler.NewCategoryHandler()
		CategoryRouter(v1.Group("/categories"), categoryHandler)

		submissionHandler := handler.NewSubmissionHandler(services.Submissions())
		PredictionRouter(v1.Group("/predictions"), submissionHandler)

		historyHandler := handler.NewHistoryHandler(services.History(), hub)
		HistoryRouter(v1.Group("/history"), historyHandler)
	}
}
