package api

import (
	"log"
	"strings"
	"time"

	"github.com/dandcg/emailarchive/internal/analytics"
	"github.com/dandcg/emailarchive/internal/config"
	"github.com/dandcg/emailarchive/internal/embedding"
	"github.com/dandcg/emailarchive/internal/export"
	"github.com/dandcg/emailarchive/internal/search"
	"github.com/dandcg/emailarchive/internal/store"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter initializes and returns the Gin router with all routes configured.
// The API is read-only: it serves the reporting layer, never the pipeline.
func SetupRouter(db *gorm.DB, cfg *config.Config) (*gin.Engine, error) {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Split(cfg.CORSOrigins, ","),
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	st := store.New(db)

	var provider embedding.Provider
	if cfg.OpenAIAPIKey != "" {
		p, err := embedding.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
		if err != nil {
			return nil, err
		}
		provider = p
	} else {
		log.Printf("[API] No embedding API key configured, /api/search disabled")
	}

	handler := NewHandler(
		st,
		search.New(st, provider),
		analytics.New(st),
		export.New(st),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/status", handler.GetStatus)
		apiGroup.GET("/search", handler.Search)
		apiGroup.GET("/timeline", handler.GetTimeline)
		apiGroup.GET("/contacts", handler.GetTopContacts)
		apiGroup.GET("/summary", handler.GetSummary)
		apiGroup.GET("/review", handler.GetReview)
	}

	return router, nil
}
