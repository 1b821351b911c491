package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/graph-gophers/graphql-go/relay"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/mahmoudev/blog-service/internal/config"
	"github.com/mahmoudev/blog-service/internal/graph"
	"github.com/mahmoudev/blog-service/internal/handler"
	"github.com/mahmoudev/blog-service/internal/middleware"
	"github.com/mahmoudev/blog-service/internal/repository"
	"github.com/mahmoudev/blog-service/internal/service"
	"github.com/mahmoudev/blog-service/internal/storage"
	"github.com/mahmoudev/blog-service/internal/utils/email"
	"github.com/mahmoudev/blog-service/internal/ws"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Image storage
	images, err := storage.NewImages(cfg.UploadDir, logger)
	if err != nil {
		logger.Fatalf("Failed to prepare upload directory: %v", err)
	}

	// Websocket hub must be running before the first broadcast
	hub := ws.NewHub(logger)
	go hub.Run()

	// Initialize layers
	repo := repository.NewRepository(db)

	var mailer service.Mailer
	if cfg.SMTPHost != "" {
		mailer = email.NewSender(cfg, logger)
	}
	authSvc := service.NewAuthService(repo, mailer, cfg.TokenTTL, logger)
	postSvc := service.NewPostService(repo, images, hub, logger)
	h := handler.NewHandler(authSvc, postSvc, images, cfg.MaxUploadSize, logger)
	wsHandler := ws.NewHandler(hub, authSvc)
	gqlSchema := graph.NewSchema(&graph.Resolver{Auth: authSvc, Posts: postSvc})

	// Staged uploads that never got promoted are swept periodically
	sweeper := cron.New()
	if _, err := sweeper.AddFunc("@every 30m", func() {
		n, err := images.SweepStaged(cfg.StagedMaxAge)
		if err != nil {
			logger.Errorf("Staged upload sweep failed: %v", err)
			return
		}
		if n > 0 {
			logger.Infof("Swept %d staged uploads", n)
		}
	}); err != nil {
		logger.Fatalf("Failed to schedule upload sweep: %v", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/users/signup", h.Signup).Methods("POST")
	r.HandleFunc("/users/login", h.Login).Methods("POST")
	r.HandleFunc("/feed/rss", h.FeedRSS).Methods("GET")
	r.HandleFunc("/ws", wsHandler.HandleConnection).Methods("GET")
	r.Handle("/graphql", middleware.WithToken(&relay.Handler{Schema: gqlSchema})).Methods("POST")
	r.PathPrefix("/images/").Handler(
		http.StripPrefix("/images/", http.FileServer(http.Dir(filepath.Join(cfg.UploadDir, "images")))),
	).Methods("GET")
	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.RequireAuth(authSvc))
	authRouter.HandleFunc("/users/{userId}/status", h.GetStatus).Methods("GET")
	authRouter.HandleFunc("/users/{userId}/status", h.EditStatus).Methods("PATCH")
	authRouter.HandleFunc("/feed/posts", h.ListPosts).Methods("GET")
	authRouter.HandleFunc("/feed/posts", h.CreatePost).Methods("POST")
	authRouter.HandleFunc("/feed/posts/{postId}", h.GetPost).Methods("GET")
	authRouter.HandleFunc("/feed/posts/{postId}", h.EditPost).Methods("PUT")
	authRouter.HandleFunc("/feed/posts/{postId}", h.DeletePost).Methods("DELETE")
	authRouter.HandleFunc("/feed/image", h.StageImage).Methods("PUT")

	corsWrapper := cors.New(cors.Options{
		AllowedOrigins: []string{cfg.CORSOrigin},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      corsWrapper.Handler(r),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Shutdown failed: %v", err)
	}
}
