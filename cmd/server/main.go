package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sandy5604G/hospital-queue-management/internal/config"
	"github.com/Sandy5604G/hospital-queue-management/internal/database"
	"github.com/Sandy5604G/hospital-queue-management/internal/handler"
	"github.com/Sandy5604G/hospital-queue-management/internal/middleware"
	"github.com/Sandy5604G/hospital-queue-management/internal/repository"
	"github.com/Sandy5604G/hospital-queue-management/internal/service"
	"github.com/Sandy5604G/hospital-queue-management/pkg/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. Load configuration
	cfg := config.LoadConfig()
	log.Println("Configuration loaded successfully")

	// 2. Initialize database connection (migrates and seeds defaults)
	db := database.Connect(cfg)

	// 3. Initialize repositories
	patientRepo := repository.NewPatientRepo(db)
	departmentRepo := repository.NewDepartmentRepo(db)
	doctorRepo := repository.NewDoctorRepo(db)
	historyRepo := repository.NewHistoryRepo(db)
	statisticRepo := repository.NewStatisticRepo(db)

	// 4. Initialize services
	statsService := service.NewStatsService(patientRepo, historyRepo, statisticRepo)
	queueService := service.NewQueueService(db, patientRepo, departmentRepo, doctorRepo, historyRepo, statsService)
	maintenanceService := service.NewMaintenanceService(db, cfg)

	// 5. Setup Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// 6. Setup Gin router
	r := gin.Default()

	// Apply CORS middleware
	r.Use(middleware.CORS(cfg))

	// 7. Register handlers
	queueHandler := handler.NewQueueHandler(queueService)
	statsHandler := handler.NewStatsHandler(statsService)
	adminHandler := handler.NewAdminHandler(maintenanceService)

	// 8. Define routes
	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, gin.H{
			"status":  "healthy",
			"service": "hospital-queue-management",
		})
	})

	// Patient registration and lookup
	patients := r.Group("/patients")
	{
		patients.POST("", queueHandler.Register)
		patients.GET("/:token", queueHandler.GetPatient)
	}

	// Queue views and transitions
	queue := r.Group("/queue")
	{
		queue.GET("", queueHandler.GetQueue)
		queue.GET("/next", queueHandler.NextPatient)
		queue.GET("/current", queueHandler.CurrentPatient)
		queue.GET("/position/:token", queueHandler.QueuePosition)
		queue.GET("/estimate", queueHandler.EstimateWait)
		queue.POST("/start", queueHandler.StartConsultation)
		queue.POST("/complete", queueHandler.CompleteConsultation)
		queue.POST("/cancel", queueHandler.CancelPatient)
	}

	// Reference data
	r.GET("/departments", queueHandler.GetDepartments)
	r.GET("/departments/:name", queueHandler.GetDepartment)
	r.PATCH("/departments/:name/wait-time", queueHandler.UpdateDepartmentWaitTime)
	r.GET("/doctors/available", queueHandler.GetAvailableDoctors)

	// History and statistics
	r.GET("/history", statsHandler.GetHistory)
	stats := r.Group("/stats")
	{
		stats.GET("/waiting", statsHandler.GetWaitingSnapshot)
		stats.GET("/daily", statsHandler.GetDailyStatistics)
	}

	// Maintenance operations
	admin := r.Group("/admin")
	{
		admin.POST("/export", adminHandler.Export)
		admin.POST("/backup", adminHandler.Backup)
		admin.POST("/purge", adminHandler.Purge)
		admin.POST("/reset", adminHandler.Reset)
	}

	// 9. Start server with graceful shutdown
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := r.Run(":" + cfg.Server.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	log.Println("Server exited")
}
