package main

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/calmana/calmana-api/internal/config"
	"github.com/calmana/calmana-api/internal/handlers"
	"github.com/calmana/calmana-api/internal/logger"
	"github.com/calmana/calmana-api/internal/middleware"
	"github.com/calmana/calmana-api/internal/services"
	"github.com/calmana/calmana-api/internal/store"
)

func main() {
	// Missing .env is fine, deployed environments inject the vars.
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New(cfg.Env)

	// --- Database Connection ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())
	if err := client.Ping(ctx, nil); err != nil {
		log.WithError(err).Fatal("MongoDB is not reachable")
	}
	db := client.Database(cfg.MongoDatabase)
	log.WithField("database", cfg.MongoDatabase).Info("connected to MongoDB")

	// --- Stores ---
	accounts := store.NewAccounts(db)
	if err := accounts.EnsureIndexes(ctx); err != nil {
		log.WithError(err).Fatal("failed to create indexes")
	}
	moods := store.NewMoods(db)
	appointments := store.NewAppointments(db)

	// --- Services and Handlers ---
	accountSvc := services.NewAccountService(accounts)
	h := handlers.NewHandler(accountSvc, moods, appointments, log, cfg.GeminiAPIKey)

	// --- Gin Router ---
	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(log), gin.Recovery())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// --- Routes ---
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "Calmana backend running"})
	})

	userRoutes := r.Group("/api/users")
	{
		userRoutes.POST("/auth/login", h.ResolveAccount)
		userRoutes.GET("/:id", h.GetUserByID)
		userRoutes.POST("/:id/moods", h.RecordMood)
		userRoutes.GET("/:id/moods", h.ListMoods)
	}

	apiRoutes := r.Group("/api")
	{
		apiRoutes.POST("/appointments", h.CreateAppointment)
		apiRoutes.GET("/appointments", h.ListAppointments)
		apiRoutes.PATCH("/appointments/:id/cancel", h.CancelAppointment)
		apiRoutes.POST("/chat", h.HandleChat)
	}

	log.WithField("port", cfg.Port).Info("starting server")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
