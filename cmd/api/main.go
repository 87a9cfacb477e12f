package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"compliance-backend/internal/config"
	"compliance-backend/internal/cron"
	"compliance-backend/internal/database"
	"compliance-backend/internal/handlers"
	"compliance-backend/internal/middleware"
	"compliance-backend/internal/storage"
)

func main() {
	// 1. Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Connect to PostgreSQL
	db := database.New(&cfg.DB)
	defer db.Close()

	// 3. Initialize file storage (S3-compatible when a bucket is configured)
	var fileStore storage.Store
	if cfg.Upload.S3Bucket != "" {
		fileStore, err = storage.NewS3Store(
			cfg.Upload.S3Endpoint, cfg.Upload.S3Region,
			cfg.Upload.S3AccessKey, cfg.Upload.S3SecretKey,
			cfg.Upload.S3Bucket, cfg.Upload.S3PublicURL,
		)
	} else {
		fileStore, err = storage.NewLocalStore(cfg.Upload.Dir, cfg.Upload.BaseURL)
	}
	if err != nil {
		log.Fatalf("Failed to initialize file storage: %v", err)
	}

	// 4. Set up router with global middleware
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 5. Initialize handlers with their dependencies
	authHandler := handlers.NewAuthHandler(db, cfg.JWTSecret)
	userHandler := handlers.NewUserHandler(db)
	projectHandler := handlers.NewProjectHandler(db)
	submissionHandler := handlers.NewSubmissionHandler(db)
	annualHandler := handlers.NewAnnualHandler(db)
	dashboardHandler := handlers.NewDashboardHandler(db)
	exportHandler := handlers.NewExportHandler(db)
	uploadHandler := handlers.NewUploadHandler(fileStore)
	notificationHandler := handlers.NewNotificationHandler(db)
	referenceHandler := handlers.NewReferenceHandler()

	// Start background cron jobs
	cron.StartNotifier(db)

	// 6. Public routes (no authentication required)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Construction Safety Compliance API"))
	})
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(db.Health())
	})

	// Auth routes — login is rate limited against brute force
	r.With(middleware.RateLimit(rate.Every(time.Minute/10), 5)).
		Post("/api/auth/login", authHandler.Login)
	r.Post("/api/auth/setup-admin", authHandler.SetupAdmin)

	// Serve uploaded files (local storage only — S3 redirects to the public URL)
	r.Get("/api/files/*", uploadHandler.ServeFile)

	// 7. Protected routes (require valid JWT)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.InjectProjectScope(db.GetPool()))

		// Current user profile
		r.Get("/api/auth/me", authHandler.GetMe)

		// Document catalogs (read-only, all roles)
		r.Get("/api/reference/monthly-documents", referenceHandler.MonthlyCatalog)
		r.Get("/api/reference/annual-documents", referenceHandler.AnnualCatalog)

		// File upload
		r.Post("/api/upload", uploadHandler.Upload)

		// Notifications (user-scoped, all authenticated users)
		r.Get("/api/notifications", notificationHandler.List)
		r.Get("/api/notifications/count", notificationHandler.UnreadCount)
		r.Patch("/api/notifications/read-all", notificationHandler.MarkAllRead)
		r.Patch("/api/notifications/{id}/read", notificationHandler.MarkRead)

		// Projects — reads are scope-filtered per role
		r.Get("/api/projects", projectHandler.List)
		r.Get("/api/projects/{id}", projectHandler.GetByID)

		// Monthly submissions
		r.Post("/api/projects/{id}/submissions", submissionHandler.Create)
		r.Get("/api/submissions", submissionHandler.List)
		r.Get("/api/submissions/{id}", submissionHandler.GetByID)
		r.Put("/api/submissions/{id}", submissionHandler.Update)

		// Annual document bundles
		r.Post("/api/annual-documents", annualHandler.Upsert)
		r.Get("/api/annual-documents", annualHandler.List)

		// Advisor dashboard and exports (advisor and up)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireMinRole("advisor"))

			r.Get("/api/dashboard/projects", dashboardHandler.GetProjectStatus)
			r.Get("/api/export/submissions", exportHandler.ExportCSV)
			r.Get("/api/export/submissions.xlsx", exportHandler.ExportXLSX)
		})

		// Write operations restricted to admin role
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireMinRole("admin"))

			r.Get("/api/dashboard/analytics", dashboardHandler.GetAnalytics)

			// User management
			r.Get("/api/users", userHandler.List)
			r.Post("/api/users", userHandler.Create)
			r.Put("/api/users/{id}", userHandler.Update)
			r.Delete("/api/users/{id}", userHandler.Delete)

			// Project write operations
			r.Post("/api/projects", projectHandler.Create)
			r.Put("/api/projects/{id}", projectHandler.Update)
			r.Delete("/api/projects/{id}", projectHandler.Delete)
		})
	})

	// 8. Start server with graceful shutdown
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server started on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-done
	log.Println("Server stopped")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited properly")
}
