package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"webcraft-agency/consumer"
	"webcraft-agency/handlers"
	"webcraft-agency/middleware"
	"webcraft-agency/models"
	"webcraft-agency/monitoring"
	"webcraft-agency/portal"
	"webcraft-agency/utils"
)

func main() {
	logger := log.New(os.Stdout, "WEBCRAFT: ", log.LstdFlags|log.Lshortfile)

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := utils.InitSentry(dsn); err != nil {
			logger.Printf("Sentry init failed: %v", err)
		} else {
			defer utils.FlushSentry()
		}
	}

	monitoring.Init()

	maxRetries := 5
	retryDelay := 3 * time.Second

	var redisClient utils.RedisClient
	var err error
	for i := 0; i < maxRetries; i++ {
		redisClient, err = utils.NewRedisClient()
		if err == nil {
			break
		}
		logger.Printf("Attempt %d: Failed to connect to Redis: %v", i+1, err)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	if err != nil {
		logger.Fatalf("Failed to initialize Redis after %d attempts: %v", maxRetries, err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Printf("Error closing Redis connection: %v", err)
		}
	}()

	var repo models.Repository
	for i := 0; i < maxRetries; i++ {
		repo, err = models.NewPostgresRepository()
		if err == nil {
			break
		}
		logger.Printf("Attempt %d: Failed to connect to Postgres: %v", i+1, err)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	if err != nil {
		logger.Fatalf("Failed to initialize Postgres after %d attempts: %v", maxRetries, err)
	}
	defer repo.Close()

	// Kafka and Elasticsearch are optional; the service degrades to
	// synchronous-only behavior without them.
	kafkaProducer, err := utils.NewKafkaProducer()
	if err != nil {
		logger.Printf("Kafka unavailable, events disabled: %v", err)
		kafkaProducer = nil
	} else {
		defer kafkaProducer.Close()
	}

	esClient, err := utils.NewElasticsearchClient()
	if err != nil {
		logger.Printf("Elasticsearch unavailable, search disabled: %v", err)
		esClient = nil
	}

	if kafkaProducer != nil && esClient != nil {
		intakeConsumer := consumer.NewIntakeConsumer(repo, esClient)
		intakeConsumer.Start(context.Background())
		defer intakeConsumer.Stop()
	}

	mailer := utils.NewSMTPMailer()
	codeStore := portal.NewCodeStore(redisClient)
	stripeProvider := utils.NewStripeProvider()

	intakeHandler := handlers.NewIntakeHandler(repo, mailer, kafkaProducer)
	consultationHandler := handlers.NewConsultationHandler(repo, mailer, kafkaProducer)
	portalHandler := handlers.NewPortalHandler(repo, codeStore, mailer)
	paymentHandler := handlers.NewPaymentHandler(repo, stripeProvider)
	uploadHandler := handlers.NewUploadHandler(repo)
	adminHandler := handlers.NewAdminHandler(repo, esClient)

	portalLimiter := middleware.NewRateLimiter(10)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(middleware.SentryMiddleware())
	router.Use(middleware.PrometheusMetrics())
	router.Use(middleware.ErrorHandler())

	router.GET("/metrics", gin.WrapH(monitoring.Handler()))

	api := router.Group("/api/v1")
	{
		api.GET("/health", func(c *gin.Context) {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := redisClient.SetToCache(ctx, "healthcheck", "ping", 10*time.Second); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "degraded",
					"details": gin.H{"redis": "unavailable"},
					"error":   err.Error(),
				})
				return
			}

			c.JSON(http.StatusOK, gin.H{
				"status":  "ok",
				"details": gin.H{"redis": "available"},
			})
		})

		intake := api.Group("/intake")
		{
			intake.POST("/save", intakeHandler.SaveDraft)
			intake.GET("/resume", intakeHandler.ResumeDraft)
			intake.PUT("/resume-link", intakeHandler.SendResumeLink)
			intake.POST("/submit", intakeHandler.Submit)
		}

		consultation := api.Group("/consultation")
		{
			consultation.GET("/slots", consultationHandler.ListSlots)
			consultation.POST("", consultationHandler.Book)
			consultation.PUT("", consultationHandler.Update)
		}

		portalRoutes := api.Group("/portal")
		{
			portalRoutes.POST("/request-code", portalLimiter.Handler(), portalHandler.RequestCode)
			portalRoutes.POST("/verify-code", portalHandler.VerifyCode)
			portalRoutes.GET("/records", portalHandler.FetchRecords)
		}

		payment := api.Group("/payment")
		{
			payment.POST("", paymentHandler.CreateIntent)
			payment.GET("", paymentHandler.VerifyPayment)
		}
		api.POST("/webhook/stripe", paymentHandler.Webhook)

		api.POST("/upload", uploadHandler.Upload)
		api.DELETE("/upload", uploadHandler.Delete)

		admin := api.Group("/admin")
		{
			admin.POST("/login", adminHandler.Login)
			admin.POST("/logout", adminHandler.Logout)

			protected := admin.Group("", middleware.AdminAuth())
			{
				protected.GET("/intakes", adminHandler.ListIntakes)
				protected.GET("/intakes/:id", adminHandler.GetIntake)
				protected.PUT("/intakes/:id/status", adminHandler.UpdateIntakeStatus)
				protected.GET("/consultations", adminHandler.ListConsultations)
			}
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Printf("Server is running on port %s", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		logger.Fatalf("Server error: %v", err)
	}
}
