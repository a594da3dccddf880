package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/agentmesh/conversation-api/internal/interfaces/httpserver/handlers"
)

func registerMessageRoutes(router gin.IRoutes, handler *handlers.MessageHandler, streamHandler *handlers.StreamHandler) {
	router.POST("/messages", handler.Send)
	router.GET("/messages", handler.List)
	router.GET("/messages/stream", streamHandler.Stream)
}
