package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/hazemadel/edumsg/internal/api"
	"github.com/hazemadel/edumsg/internal/auth"
	"github.com/hazemadel/edumsg/internal/config"
	"github.com/hazemadel/edumsg/internal/database"
	"github.com/hazemadel/edumsg/internal/directory"
	"github.com/hazemadel/edumsg/internal/messaging"
	"github.com/hazemadel/edumsg/internal/sweeper"
)

// validateStoreType guards startup: the server needs the postgres
// backend because the directory reads the platform tables over the same
// connection. Other store types only make sense for the cleanup command
// and tests.
func validateStoreType(storeType string) error {
	if database.StoreType(storeType) != database.PostgreSQL {
		return fmt.Errorf("unsupported STORE_TYPE %q: the server requires the postgres store", storeType)
	}
	return nil
}

func main() {
	// Log to both console and file
	logFile, err := os.OpenFile("server.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer logFile.Close()
	log.SetOutput(io.MultiWriter(os.Stdout, logFile))
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}
	auth.InitJWTKey([]byte(cfg.JWTSecret))

	if err := validateStoreType(cfg.StoreType); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	store, err := database.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()
	log.Printf("Connected to database successfully")

	dir := directory.NewPostgresDirectory(store.DB)

	if cfg.DefaultAdminID <= 0 {
		log.Printf("Warning: DEFAULT_ADMIN_ID not set; admin-addressed messages without an id will be rejected")
	}

	engine := messaging.NewService(store, dir, messaging.Config{
		DefaultAdminID: cfg.DefaultAdminID,
	})

	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authHandler := api.NewAuthHandler(dir)
	messageHandler := api.NewMessageHandler(engine, cfg.StudentContentLimit)

	router.POST("/api/auth/login", authHandler.Login)

	authorized := router.Group("/api")
	authorized.Use(api.AuthMiddleware())
	{
		authorized.POST("/messages", messageHandler.SendMessage)
		authorized.GET("/messages", messageHandler.GetMessages)
		authorized.GET("/messages/search", messageHandler.SearchMessages)
		authorized.POST("/messages/:messageID/reply", messageHandler.ReplyMessage)
		authorized.GET("/messages/:messageID/thread", messageHandler.GetThread)
		authorized.PUT("/messages/:messageID/read", messageHandler.MarkMessageAsRead)
		authorized.GET("/notifications", messageHandler.Notifications)
		authorized.GET("/unread-count", messageHandler.UnreadCount)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Optional in-process expiry sweep. Most deployments schedule the
	// cleanup command externally instead.
	sweepDone := make(chan struct{})
	if cfg.SweepInterval > 0 {
		sw := sweeper.New(store)
		go func() {
			ticker := time.NewTicker(cfg.SweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if _, err := sw.Run(sweeper.Options{
						RetentionDays: cfg.SweepRetentionDays,
						IncludeRead:   cfg.SweepIncludeRead,
					}); err != nil {
						log.Printf("Scheduled sweep failed: %v", err)
					}
				case <-sweepDone:
					return
				}
			}
		}()
		log.Printf("In-process expiry sweep enabled every %s", cfg.SweepInterval)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	close(sweepDone)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited properly")
}
