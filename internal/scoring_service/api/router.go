package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Jampi276/pymescore-ai/internal/scoring_service/service"
)

// SetupRouter configures and returns a Gin engine with all API routes.
func SetupRouter(h *Handler, s *service.Service) *gin.Engine {
	r := gin.Default()
	r.Use(CORSMiddleware())

	authMiddleware := AuthMiddleware(s)

	api := r.Group("/api")
	{
		api.POST("/register", h.Register)
		api.POST("/login", h.Login)
		api.POST("/validate-ruc", h.ValidateRuc)
		api.POST("/scrape-social", h.ScrapeSocial)
		api.POST("/analyze", h.Analyze)
		api.POST("/chat", h.Chat)
		api.POST("/simulate", h.Simulate)
		api.GET("/health", h.Health)

		// Session management needs a logged-in caller.
		sessions := api.Group("/chat")
		sessions.Use(authMiddleware)
		{
			sessions.GET("/:id/history", h.ChatHistory)
			sessions.DELETE("/:id", h.ClearChat)
		}
	}

	return r
}
