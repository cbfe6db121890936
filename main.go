package main

import (
	"time"

	"ChatterAI/models"
	"ChatterAI/pkg/config"
	"ChatterAI/pkg/services"
	"ChatterAI/pkg/store"
	"ChatterAI/pkg/token"
	"ChatterAI/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// MySQL when a DSN is configured, local sqlite file otherwise
	var dialector gorm.Dialector
	if cfg.DatabaseDSN != "" {
		dialector = mysql.Open(cfg.DatabaseDSN)
	} else {
		dialector = sqlite.Open(cfg.DatabasePath)
	}
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}

	if err := db.AutoMigrate(&models.User{}, &models.Conversation{}, &models.Message{}); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	st := store.New(db)
	tokens := token.NewService(cfg.JWTSecret)
	assistant := services.NewAssistantService(cfg, logger)

	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000", "http://localhost:5173", "http://127.0.0.1:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, st, tokens, assistant)

	logger.Info("listening",
		zap.String("port", cfg.Port),
		zap.Bool("gemini_enabled", cfg.GeminiEnabled),
		zap.String("gemini_model", cfg.GeminiModel),
	)
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
