package auth

import (
	"ChatterAI/controllers"
	"ChatterAI/pkg/store"
	"ChatterAI/pkg/token"

	"github.com/gin-gonic/gin"
)

// Register registers public auth routes: /auth/signup, /auth/login
func Register(g *gin.RouterGroup, st *store.Store, tokens *token.Service) {
	g.POST("/auth/signup", controllers.Signup(st, tokens))
	g.POST("/auth/login", controllers.Login(st, tokens))
}
