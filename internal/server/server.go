package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"highway/internal/config"
	"highway/internal/database"
	"highway/internal/middlewares"
	"highway/internal/repositories"
	"highway/internal/services"
)

type Server struct {
	cfg        *config.Config
	httpServer *http.Server
	db         database.Service

	userRepo repositories.UserRepository

	otpService   services.OTPService
	authService  services.AuthService
	tokenService services.TokenService
	userService  services.UserService
	noteService  services.NoteService
}

func NewServer(cfg *config.Config) *Server {
	db := database.New(cfg.MongoURI, cfg.MongoDBName)

	userRepo := repositories.NewUserRepository(db.Database())
	noteRepo := repositories.NewNoteRepository(db.Database())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure user indexes")
	}

	tokenService := services.NewTokenService(cfg)
	emailService := services.NewEmailService(cfg)

	s := &Server{
		cfg:          cfg,
		db:           db,
		userRepo:     userRepo,
		tokenService: tokenService,
		otpService:   services.NewOTPService(userRepo, emailService, tokenService),
		authService:  services.NewAuthService(userRepo, tokenService),
		userService:  services.NewUserService(userRepo),
		noteService:  services.NewNoteService(noteRepo),
	}

	services.InitializeGoth(cfg)
	go middlewares.CleanupVisitors()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	log.Info().Int("port", s.cfg.Port).Msg("Starting server")
	return s.httpServer.ListenAndServe()
}

func (s *Server) GracefulShutdown(done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info().Msg("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown with error")
	}

	if err := s.db.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing database connection")
	}

	log.Info().Msg("Server exiting")
	done <- true
}
