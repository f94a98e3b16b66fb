package http

import (
	"github.com/gin-gonic/gin"

	"github.com/parasol-labs/checkin/service"
)

// SetupRouter sets up the Gin router.
func SetupRouter(h *Handlers, authService *service.AuthService) *gin.Engine {
	router := gin.Default()

	auth := router.Group("/auth")
	{
		auth.POST("/login", h.Login)
	}

	api := router.Group("/api")
	api.Use(AuthMiddleware(authService))
	{
		api.POST("/logout", h.Logout)
		api.GET("/me", h.Me)
		api.GET("/balance", h.Balance)
		api.POST("/balance/refresh", h.RefreshBalance)
		api.POST("/airdrop", h.Airdrop)
		api.POST("/checkin", h.CheckIn)
	}

	return router
}
