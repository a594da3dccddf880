package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/agentmesh/conversation-api/internal/interfaces/httpserver/handlers"
)

func registerThreadRoutes(router gin.IRoutes, handler *handlers.ThreadHandler) {
	router.GET("/threads", handler.List)
	router.GET("/threads/info", handler.Info)
	router.POST("/threads/:thread_id/close", handler.Close)
}
