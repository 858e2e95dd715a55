package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/quizprep/backend/internal/auth"
	"github.com/quizprep/backend/internal/database"
	"github.com/quizprep/backend/internal/middleware"
	"github.com/quizprep/backend/internal/quiz"
	"github.com/rs/cors"
)

func main() {
	// Local development reads config from .env; in deployment the variables
	// come from the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize database
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize redis (active quiz sessions)
	rdb, err := database.ConnectRedis(context.Background())
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer rdb.Close()

	// Initialize stores and services
	userStore := auth.NewStore(db)
	questionStore := quiz.NewStore(db)
	resultStore := quiz.NewResultStore(db)
	sessionStore := quiz.NewSessionStore(rdb)

	quizService := quiz.NewService(questionStore, sessionStore, resultStore, userStore)

	// Initialize handlers
	authHandler := auth.NewHandler(userStore, auth.NewSMTPMailerFromEnv())
	quizHandler := quiz.NewHandler(quizService, questionStore)

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/auth/forgot-password", authHandler.ForgotPassword).Methods("POST")
	api.HandleFunc("/auth/reset-password/{token}", authHandler.ResetPassword).Methods("PATCH")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth(userStore))
	protected.HandleFunc("/auth/me", authHandler.GetCurrentUser).Methods("GET")
	protected.HandleFunc("/auth/password", authHandler.UpdatePassword).Methods("PATCH")
	protected.HandleFunc("/auth/deactivate", authHandler.DeactivateMe).Methods("PATCH")
	quizHandler.RegisterProtectedRoutes(protected)

	// Admin routes
	admin := protected.PathPrefix("").Subrouter()
	admin.Use(middleware.RequireAdmin)
	quizHandler.RegisterAdminRoutes(admin)

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
