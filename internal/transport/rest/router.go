package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"aisurvey/internal/cache"
	"aisurvey/internal/config"
	"aisurvey/internal/metrics"
	"aisurvey/internal/service"
	"aisurvey/internal/transport/rest/handler"
	"aisurvey/internal/transport/rest/middleware"
	"aisurvey/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService     *service.AuthService
	SessionService  *service.SessionService
	ResponseService *service.ResponseService
	Progress        cache.ProgressCache
	WSHub           *ws.Hub
	RateLimiter     *middleware.RateLimiter
	CORS            config.CORSConfig
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	authHandler := handler.NewAuthHandler(c.AuthService)
	sessionHandler := handler.NewSessionHandler(c.SessionService)
	responseHandler := handler.NewResponseHandler(c.ResponseService, c.Progress)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService)

	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS first so preflights never reach auth
	r.Use(corsMiddleware(c.CORS))
	r.Use(metrics.Middleware)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	start := http.Handler(http.HandlerFunc(sessionHandler.Start))
	if c.RateLimiter != nil {
		start = c.RateLimiter.Limit(start)
	}
	v1.Handle("/sessions", start).Methods("POST", "OPTIONS")

	// WebSocket routes (researcher token in query param)
	v1.HandleFunc("/ws/monitor", wsHandler.Monitor).Methods("GET")

	// Respondent routes
	respondent := v1.PathPrefix("/sessions/current").Subrouter()
	respondent.Use(authMW.RequireRespondent)

	respondent.HandleFunc("", sessionHandler.Current).Methods("GET", "OPTIONS")
	respondent.HandleFunc("/answers", sessionHandler.SaveAnswers).Methods("PUT", "OPTIONS")
	respondent.HandleFunc("/next", sessionHandler.Next).Methods("POST", "OPTIONS")
	respondent.HandleFunc("/back", sessionHandler.Back).Methods("POST", "OPTIONS")
	respondent.HandleFunc("/submit", sessionHandler.Submit).Methods("POST", "OPTIONS")
	respondent.HandleFunc("/restart", sessionHandler.Restart).Methods("POST", "OPTIONS")

	// Researcher routes
	researcher := v1.PathPrefix("/responses").Subrouter()
	researcher.Use(authMW.RequireResearcher)

	researcher.HandleFunc("", responseHandler.List).Methods("GET", "OPTIONS")
	researcher.HandleFunc("/export", responseHandler.Export).Methods("GET", "OPTIONS")
	researcher.HandleFunc("/progress", responseHandler.Progress).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(cfg config.CORSConfig) mux.MiddlewareFunc {
	origins := orDefault(cfg.AllowedOrigins, "*")
	methods := orDefault(cfg.AllowedMethods, "GET, POST, PUT, DELETE, OPTIONS")
	headers := orDefault(cfg.AllowedHeaders, "Content-Type, Authorization")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origins)
			w.Header().Set("Access-Control-Allow-Methods", methods)
			w.Header().Set("Access-Control-Allow-Headers", headers)

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
