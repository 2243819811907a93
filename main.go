package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rafael-ortega/garage-flow-api/config"
	"github.com/rafael-ortega/garage-flow-api/controllers"
	"github.com/rafael-ortega/garage-flow-api/middleware"
	"github.com/rafael-ortega/garage-flow-api/models"
	"github.com/rafael-ortega/garage-flow-api/services"
)

func main() {
	log.Println("Starting Garage Flow API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	db := config.GetDB()
	if err := db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Vehicle{},
		&models.Invoice{},
		&models.InvoiceLine{},
		&models.Case{},
		&models.WorkOrder{},
		&models.Variation{},
		&models.VariationStage{},
		&models.Stage{},
		&models.StageTimeLog{},
		&models.RevertReason{},
		&models.Message{},
		&models.Item{},
		&models.Vendor{},
		&models.PurchaseOrder{},
		&models.PurchaseOrderLine{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	if err := seedRevertReasons(); err != nil {
		log.Fatalf("Failed to seed revert reasons: %v", err)
	}

	// Revert photos go to S3 in real environments; tests swap in a mock
	if cfg.AWSS3Bucket != "" {
		s3Service, err := services.InitS3Service()
		if err != nil {
			log.Fatalf("Failed to initialize S3 service: %v", err)
		}
		services.InitImageService(s3Service)
		log.Printf("S3 image storage enabled (bucket: %s)", cfg.AWSS3Bucket)
	} else {
		services.SetImageService(services.NewMockImageService())
		log.Println("S3 bucket not configured, using local mock image storage")
	}

	router := setupRouter()

	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter creates and configures the router with all application routes
func setupRouter() *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Database status endpoint
		v1.GET("/database/status", databaseStatus)

		// All other routes require a valid Auth0 token
		auth := v1.Group("")
		auth.Use(middleware.EnsureValidToken(config.GetConfig()))
		{
			// User profiles
			auth.POST("/users", controllers.CreateUser)
			auth.GET("/users/me", controllers.GetMyProfile)
			auth.PUT("/users/me", controllers.UpdateMyProfile)

			// Technician availability
			auth.GET("/technicians", controllers.ListTechnicians)

			// Stage lifecycle
			auth.GET("/stages/:id", controllers.GetStage)
			auth.GET("/stages/:id/time-logs", controllers.GetStageTimeLogs)
			auth.POST("/stages/:id/start", controllers.StartStage)
			auth.POST("/stages/:id/queue", controllers.QueueStage)
			auth.POST("/stages/:id/pause-and-start", controllers.PauseAndStartStage)
			auth.POST("/stages/:id/pause", controllers.PauseStage)
			auth.POST("/stages/:id/complete", controllers.CompleteStage)
			auth.POST("/stages/:id/revert", controllers.RevertStage)
			auth.POST("/stages/:id/no-need-to-redo", controllers.NoNeedToRedoStage)

			// Revert reason catalog
			auth.GET("/revert-reasons", controllers.ListRevertReasons)
			auth.POST("/revert-reasons", controllers.CreateRevertReason)

			// Work orders and their message threads
			auth.GET("/work-orders", controllers.ListWorkOrders)
			auth.GET("/work-orders/:id", controllers.GetWorkOrder)
			auth.GET("/work-orders/:id/messages", controllers.ListMessages)
			auth.POST("/work-orders/:id/messages", controllers.SendMessage)

			// Stage templates
			auth.GET("/variations", controllers.ListVariations)
			auth.GET("/variations/:id", controllers.GetVariation)
			auth.POST("/variations", controllers.CreateVariation)

			// Invoices and the case workflow
			auth.POST("/invoices", controllers.CreateInvoice)
			auth.GET("/invoices", controllers.ListInvoices)
			auth.GET("/invoices/:id", controllers.GetInvoice)
			auth.POST("/invoices/:id/issue", controllers.IssueInvoice)
			auth.POST("/invoices/:id/pay", controllers.PayInvoice)
			auth.POST("/invoices/:id/lock", controllers.LockInvoice)
			auth.POST("/invoices/:id/cases", controllers.OpenCase)
			auth.GET("/cases", controllers.ListCases)
			auth.POST("/cases/:id/resolve", controllers.ResolveCase)

			// Customers and vehicles
			auth.POST("/customers", controllers.CreateCustomer)
			auth.GET("/customers", controllers.ListCustomers)
			auth.GET("/customers/:id", controllers.GetCustomer)
			auth.POST("/customers/:id/vehicles", controllers.AddVehicle)

			// Inventory
			auth.POST("/items", controllers.CreateItem)
			auth.GET("/items", controllers.ListItems)
			auth.POST("/items/:id/adjust-stock", controllers.AdjustStock)
			auth.POST("/vendors", controllers.CreateVendor)
			auth.GET("/vendors", controllers.ListVendors)
			auth.POST("/purchase-orders", controllers.CreatePurchaseOrder)
			auth.POST("/purchase-orders/:id/place", controllers.PlacePurchaseOrder)
			auth.POST("/purchase-orders/:id/receive", controllers.ReceivePurchaseOrder)

			// Reports
			auth.GET("/reports/work-orders.xlsx", controllers.DownloadWorkOrderReport)
		}
	}

	return router
}

// seedRevertReasons inserts the default revert reason catalog on first boot
func seedRevertReasons() error {
	db := config.GetDB()

	var count int64
	if err := db.Model(&models.RevertReason{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []string{
		"Quality issue found",
		"Customer request",
		"Wrong part installed",
		"Paint defect",
		"Incomplete work",
	}
	for _, label := range defaults {
		reason := models.RevertReason{Label: label, Active: true}
		if err := db.Create(&reason).Error; err != nil {
			return err
		}
	}
	log.Printf("Seeded %d default revert reasons", len(defaults))
	return nil
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Garage Flow API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

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

	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	var tables []string
	if err := db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public'").Scan(&tables).Error; err != nil {
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
