package routes

import (
	"net/http"

	"ChatterAI/middleware"
	"ChatterAI/pkg/services"
	"ChatterAI/pkg/store"
	"ChatterAI/pkg/token"

	"github.com/gin-gonic/gin"

	authRoutes "ChatterAI/routes/auth"
	convRoutes "ChatterAI/routes/conversation"
)

func RegisterRoutes(r *gin.Engine, st *store.Store, tokens *token.Service, assistant *services.AssistantService) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ChatterAI backend running"})
	})

	api := r.Group("/api")
	authRoutes.Register(api, st, tokens)

	protected := api.Group("/")
	protected.Use(middleware.Auth(tokens))
	convRoutes.Register(protected, st, assistant)
}
