package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"highway/internal/handlers"
	"highway/internal/middlewares"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	prom := middlewares.NewPrometheusMiddleware()
	r.Use(middlewares.NewCorsMiddleware(s.cfg.AllowedOrigins))
	r.Use(middlewares.RateLimit)
	r.Use(prom.Instrument)

	ch := handlers.NewCommonHandler(s.db)
	r.HandleFunc("/api/health", ch.HealthHandler).Methods("GET", "OPTIONS")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	s.registerAuthRoutes(r)
	s.registerNoteRoutes(r)
	s.registerUserRoutes(r)

	return r
}

func (s *Server) registerAuthRoutes(r *mux.Router) {
	ah := handlers.NewAuthHandler(s.otpService, s.authService, s.cfg)
	guard := middlewares.NewAuthMiddleware(s.tokenService, s.userRepo)

	r.HandleFunc("/api/auth/register", ah.Register).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/auth/login", ah.Login).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/auth/verify-otp", ah.VerifyOTP).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/auth/request-otp", ah.RequestOTP).Methods("POST", "OPTIONS")
	r.Handle("/api/auth/me", guard(http.HandlerFunc(ah.Me))).Methods("GET", "OPTIONS")

	// Registered after /api/auth/me so the specific route wins.
	r.HandleFunc("/api/auth/{provider}", ah.ProviderAuth).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/auth/{provider}/callback", ah.ProviderCallback).Methods("GET", "OPTIONS")
}

func (s *Server) registerNoteRoutes(r *mux.Router) {
	nh := handlers.NewNoteHandler(s.noteService)
	guard := middlewares.NewAuthMiddleware(s.tokenService, s.userRepo)

	r.Handle("/api/notes", guard(http.HandlerFunc(nh.GetNotes))).Methods("GET", "OPTIONS")
	r.Handle("/api/notes", guard(http.HandlerFunc(nh.AddNote))).Methods("POST", "OPTIONS")
	r.Handle("/api/notes/{id}", guard(http.HandlerFunc(nh.GetNoteByID))).Methods("GET", "OPTIONS")
	r.Handle("/api/notes/{id}", guard(http.HandlerFunc(nh.UpdateNote))).Methods("PUT", "OPTIONS")
	r.Handle("/api/notes/{id}", guard(http.HandlerFunc(nh.DeleteNote))).Methods("DELETE", "OPTIONS")
}

func (s *Server) registerUserRoutes(r *mux.Router) {
	uh := handlers.NewUserHandler(s.userService)
	guard := middlewares.NewAuthMiddleware(s.tokenService, s.userRepo)

	r.Handle("/api/user/profile", guard(http.HandlerFunc(uh.UpdateProfile))).Methods("PUT", "PATCH", "OPTIONS")
	r.Handle("/api/user/account", guard(http.HandlerFunc(uh.DeleteAccount))).Methods("DELETE", "OPTIONS")
}
