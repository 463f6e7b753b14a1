package main

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/inkdesk/commission-api/config"
	"github.com/inkdesk/commission-api/controllers"
	"github.com/inkdesk/commission-api/middleware"
	"github.com/inkdesk/commission-api/models"
	"github.com/rs/zerolog/log"
)

// setupRouter creates the Gin engine with every route of the API
func setupRouter(cfg *config.Config) *gin.Engine {
	if err := controllers.RegisterValidators(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	router := gin.New()
	router.Use(middleware.Recovery(log.Logger))
	router.Use(middleware.RequestLogger(log.Logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	router.MaxMultipartMemory = 16 << 20

	authRequired := middleware.EnsureValidToken(cfg)
	throttle := middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)

		v1.GET("/catalog", controllers.GetCatalog)
		v1.GET("/tos", controllers.GetActiveTerms)
		v1.GET("/uploads/*key", controllers.GetUploadedFile)

		auth := v1.Group("/auth")
		{
			auth.POST("/register", throttle, controllers.Register)
			auth.POST("/login", throttle, controllers.Login)
			auth.POST("/logout", authRequired, controllers.Logout)
		}

		users := v1.Group("/users")
		{
			users.GET("/check-username", throttle, controllers.CheckUsername)
			users.GET("/me", authRequired, middleware.RequireUser(), controllers.GetCurrentUser)
		}

		customer := v1.Group("/customer", authRequired, middleware.RequireRole(models.RoleCustomer))
		{
			customer.GET("/dashboard", controllers.CustomerDashboard)
			customer.POST("/orders", controllers.CreateOrder)
			customer.GET("/orders/:id", controllers.GetOrder)
			customer.POST("/orders/:id/payment", controllers.SubmitPayment)
			customer.POST("/orders/:id/messages", controllers.SendMessage)
			customer.GET("/orders/:id/payment-qr", controllers.GetPaymentQR)
		}

		artist := v1.Group("/artist", authRequired, middleware.RequireRole(models.RoleArtist))
		{
			artist.GET("/dashboard", controllers.ArtistDashboard)
			artist.GET("/messages", controllers.ArtistInbox)

			artist.GET("/profile", controllers.GetProfile)
			artist.PUT("/profile", controllers.UpdateProfile)

			artist.GET("/services", controllers.ListServiceTypes)
			artist.POST("/services", controllers.CreateServiceType)
			artist.PUT("/services/:id", controllers.UpdateServiceType)
			artist.DELETE("/services/:id", controllers.DeleteServiceType)

			artist.GET("/samples", controllers.ListSamples)
			artist.POST("/samples", controllers.CreateSample)

			artist.GET("/tos", controllers.ListTerms)
			artist.POST("/tos", controllers.CreateTerms)
			artist.PUT("/tos/:id/activate", controllers.ActivateTerms)

			artist.GET("/orders", controllers.ListOrders)
			artist.GET("/orders/:id", controllers.GetOrder)
			artist.DELETE("/orders/:id", controllers.DeleteOrder)
			artist.POST("/orders/:id/messages", controllers.SendMessage)
			artist.POST("/orders/:id/approve", controllers.ApproveOrder)
			artist.POST("/orders/:id/status", controllers.UpdateOrderStatus)
			artist.POST("/orders/:id/progress", controllers.AddOrderProgress)

			artist.GET("/payments", controllers.ListPayments)
			artist.POST("/payments/:id/verify", controllers.VerifyPayment)

			artist.GET("/customers", controllers.ListCustomers)
		}
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Commission Desk API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()
	if db == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Database is not initialized",
			},
		})
		return
	}

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	tables, err := db.Migrator().GetTables()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
