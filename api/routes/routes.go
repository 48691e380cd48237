package routes

import (
	"github.com/borjaoskins/raffle-backend/internal/config"
	"github.com/borjaoskins/raffle-backend/internal/handlers"
	"github.com/borjaoskins/raffle-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// HandlerDependencies bundles the handlers the router needs
type HandlerDependencies struct {
	AuthHandler    *handlers.AuthHandler
	RaffleHandler  *handlers.RaffleHandler
	SaleHandler    *handlers.SaleHandler
	PaymentHandler *handlers.PaymentHandler
	WebhookHandler *handlers.WebhookHandler
	ExportHandler  *handlers.ExportHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps HandlerDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})

		public.POST("/auth/login", deps.AuthHandler.Login)

		public.GET("/raffles", deps.RaffleHandler.ListActive)
		public.GET("/raffles/:id", deps.RaffleHandler.GetByID)
		public.GET("/raffles/:id/numbers/taken", deps.SaleHandler.TakenNumbers)
		public.POST("/raffles/:id/sales", deps.SaleHandler.Create)

		public.GET("/sales/:id", deps.SaleHandler.GetByID)
		public.POST("/sales/:id/pix", deps.PaymentHandler.CreateCharge)

		// The gateway notifies via GET query parameters or a POST body
		public.GET("/payments/webhook", deps.WebhookHandler.Handle)
		public.POST("/payments/webhook", deps.WebhookHandler.Handle)
	}

	// Admin routes
	admin := router.Group("/api/v1/admin")
	admin.Use(middleware.AdminAuthMiddleware(cfg))
	{
		admin.GET("/raffles", deps.RaffleHandler.ListAll)
		admin.POST("/raffles", deps.RaffleHandler.Create)
		admin.PUT("/raffles/:id", deps.RaffleHandler.Update)
		admin.DELETE("/raffles/:id", deps.RaffleHandler.Delete)
		admin.POST("/raffles/:id/finalize", deps.RaffleHandler.Finalize)
		admin.POST("/raffles/:id/reactivate", deps.RaffleHandler.Reactivate)
		admin.POST("/raffles/:id/archive", deps.RaffleHandler.Archive)
		admin.GET("/raffles/:id/sales", deps.SaleHandler.ListByRaffle)
		admin.POST("/raffles/:id/export", deps.ExportHandler.Export)
	}

	return router
}
