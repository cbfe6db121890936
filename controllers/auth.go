package controllers

import (
	"errors"
	"net/http"
	"strings"

	"ChatterAI/pkg/store"
	"ChatterAI/pkg/token"

	"github.com/gin-gonic/gin"
)

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Signup handler
func Signup(st *store.Store, tokens *token.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
			return
		}

		username := strings.TrimSpace(body.Username)
		if username == "" || body.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Username and password are required"})
			return
		}

		user, err := st.CreateUser(c.Request.Context(), username, body.Password)
		if err != nil {
			if errors.Is(err, store.ErrUsernameTaken) {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Username already exists"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
			return
		}

		tok, err := tokens.Issue(user.ID, user.Username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": "User created successfully",
			"user":    userResponse{ID: user.ID, Username: user.Username},
			"token":   tok,
		})
	}
}

// Login handler
func Login(st *store.Store, tokens *token.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
			return
		}

		username := strings.TrimSpace(body.Username)
		if username == "" || body.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Username and password are required"})
			return
		}

		user, err := st.FindUserByUsername(c.Request.Context(), username)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
			return
		}
		if !user.CheckPassword(body.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
			return
		}

		tok, err := tokens.Issue(user.ID, user.Username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Login successful",
			"user":    userResponse{ID: user.ID, Username: user.Username},
			"token":   tok,
		})
	}
}
