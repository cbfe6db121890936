package conversation

import (
	"ChatterAI/controllers"
	"ChatterAI/pkg/services"
	"ChatterAI/pkg/store"

	"github.com/gin-gonic/gin"
)

// Register registers conversation routes (protected)
func Register(g *gin.RouterGroup, st *store.Store, assistant *services.AssistantService) {
	g.GET("/conversations", controllers.ListConversations(st))
	g.POST("/conversations", controllers.CreateConversation(st))
	g.GET("/conversations/:conversation_id", controllers.GetConversation(st))
	g.POST("/conversations/:conversation_id/messages", controllers.CreateMessage(st, assistant))
}
