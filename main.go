package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"famstore/config"
	"famstore/database"
	"famstore/handlers"
	"famstore/logger"
	"famstore/middleware"
	"famstore/models"
	"famstore/repositories"
	"famstore/services"
	"famstore/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("starting famstore service")

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	logger.SetLevel(cfg.Log.Level)

	if err := database.InitMySQL(&cfg.Database); err != nil {
		log.Fatalf("init mysql failed: %v", err)
	}

	if err := database.DB.AutoMigrate(&models.User{}, &models.Item{}); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}
	log.Println("database migration completed")

	if err := database.InitRedis(&cfg.Redis); err != nil {
		log.Fatalf("init redis failed: %v", err)
	}

	for _, dir := range []string{"completed", "thumbnails", "temp", filepath.Join("temp", "archives")} {
		if err := os.MkdirAll(filepath.Join(cfg.Storage.BasePath, dir), 0o755); err != nil {
			log.Fatalf("create storage dir %s failed: %v", dir, err)
		}
	}

	repoContainer := repositories.NewGormRepositories(database.DB, database.RedisClient).BuildContainer()
	blobStore := storage.NewDiskStore(cfg.Storage.BasePath)
	serviceContainer := services.NewContainer(repoContainer, blobStore)
	handlers.SetServices(serviceContainer)

	serviceContainer.Cleanup.Start(context.Background())
	log.Println("cleanup worker started")

	r := gin.Default()
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.RequestLogger())
	setupRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("server listening on http://%s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server start failed: %v", err)
	}
}

func setupRoutes(r *gin.Engine) {
	api := r.Group("/api")

	api.GET("/health", handlers.HealthCheck)

	auth := api.Group("/auth")
	{
		auth.POST("/register", handlers.Register)
		auth.POST("/login", handlers.Login)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.GET("/auth/profile", handlers.GetProfile)

		protected.POST("/folders", handlers.CreateFolder)
		protected.GET("/folders/:id/download", handlers.DownloadFolder)

		protected.GET("/items", handlers.ListItems)
		protected.PUT("/items/:id/rename", handlers.RenameItem)
		protected.DELETE("/items/:id", handlers.DeleteItem)
		protected.GET("/items/:id/content", handlers.GetContent)
		protected.GET("/items/:id/thumbnail", handlers.GetThumbnail)

		protected.POST("/files/upload", handlers.UploadFile)
		protected.POST("/files/upload/chunk", handlers.UploadChunk)
		protected.GET("/files/upload/status/:upload_id", handlers.GetUploadStatus)
	}
}
