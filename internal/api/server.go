// Package api is the HTTP surface of the service: ingest endpoints for the
// learning platform (events, predictions), the public feedback links, and a
// JWT-protected admin area.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ild-thl/motbot-sub000/internal/advice"
	"github.com/ild-thl/motbot-sub000/internal/api/auth"
	"github.com/ild-thl/motbot-sub000/internal/api/handlers"
	"github.com/ild-thl/motbot-sub000/internal/api/middleware"
	"github.com/ild-thl/motbot-sub000/internal/config"
	"github.com/ild-thl/motbot-sub000/internal/event"
	"github.com/ild-thl/motbot-sub000/internal/intervention"
	"github.com/ild-thl/motbot-sub000/internal/models"
	"github.com/ild-thl/motbot-sub000/internal/repository"
)

type Server struct {
	config     *config.Config
	httpServer *http.Server
	router     *mux.Router

	jwtManager  *auth.JWTManager
	rateLimiter *middleware.RateLimiter

	healthHandler       *handlers.HealthHandler
	authHandler         *handlers.AuthHandler
	feedbackHandler     *handlers.FeedbackHandler
	eventHandler        *handlers.EventHandler
	predictionHandler   *handlers.PredictionHandler
	adviceHandler       *handlers.AdviceHandler
	interventionHandler *handlers.InterventionHandler
}

func NewServer(
	cfg *config.Config,
	service *intervention.Service,
	detector *event.Detector,
	catalog *advice.Catalog,
	adviceRepo repository.AdviceRepository,
	interventionRepo repository.InterventionRepository,
	adminRepo repository.AdminRepository,
) *Server {
	s := &Server{config: cfg}

	s.jwtManager = auth.NewJWTManager(cfg.Admin.JWTSecret, 24*time.Hour)
	s.rateLimiter = middleware.NewRateLimiter(cfg.Admin.RateLimit)

	s.healthHandler = handlers.NewHealthHandler()
	s.authHandler = handlers.NewAuthHandler(adminRepo, s.jwtManager)
	s.feedbackHandler = handlers.NewFeedbackHandler(service)
	s.eventHandler = handlers.NewEventHandler(detector)
	s.predictionHandler = handlers.NewPredictionHandler(service)
	s.adviceHandler = handlers.NewAdviceHandler(adviceRepo, catalog)
	s.interventionHandler = handlers.NewInterventionHandler(interventionRepo)

	s.setupRouter()

	return s
}

func (s *Server) setupRouter() {
	r := mux.NewRouter()

	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.CORSMiddleware(s.config.Admin.AllowedOrigins))
	r.Use(s.rateLimiter.RateLimitMiddleware)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/health", s.healthHandler.Health).Methods("GET")
	api.HandleFunc("/ping", s.healthHandler.Ping).Methods("GET")
	api.HandleFunc("/auth/login", s.authHandler.Login).Methods("POST")
	api.HandleFunc("/auth/refresh", s.authHandler.RefreshToken).Methods("POST")

	// Feedback links are clicked from messages, no auth possible.
	api.HandleFunc("/intervention/{id:[0-9]+}/helpful", s.feedbackHandler.Helpful).Methods("GET")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.JWTAuthMiddleware(s.jwtManager))

	protected.HandleFunc("/auth/me", s.authHandler.Me).Methods("GET")

	// Ingest (viewer+, the platform gets its own viewer account)
	protected.HandleFunc("/events", s.eventHandler.Ingest).Methods("POST")
	protected.HandleFunc("/predictions", s.predictionHandler.Ingest).Methods("POST")

	// Interventions (viewer+)
	protected.HandleFunc("/interventions", s.interventionHandler.List).Methods("GET")
	protected.HandleFunc("/interventions/{id:[0-9]+}", s.interventionHandler.Get).Methods("GET")
	protected.HandleFunc("/interventions/stats", s.interventionHandler.Stats).Methods("GET")

	// Advice management (admin+)
	adminRoutes := protected.PathPrefix("").Subrouter()
	adminRoutes.Use(middleware.RequireRole(models.AdminRoleAdmin))
	adminRoutes.HandleFunc("/advice", s.adviceHandler.List).Methods("GET")
	adminRoutes.HandleFunc("/advice/{name}", s.adviceHandler.Update).Methods("PUT")
	adminRoutes.HandleFunc("/advice/{name}", s.adviceHandler.Delete).Methods("DELETE")
	adminRoutes.HandleFunc("/advice/defaults", s.adviceHandler.LoadDefaults).Methods("POST")

	s.router = r
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Admin.Host, s.config.Admin.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("API server starting on %s", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	log.Println("Shutting down API server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("API server stopped")
	return nil
}

// Router is exposed for handler tests.
func (s *Server) Router() *mux.Router {
	return s.router
}
