package httpapi

import (
	"net/http"

	"canteen-be/internal/logger"
	"canteen-be/internal/middleware"
	"canteen-be/internal/realtime"
	"canteen-be/internal/user"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

// Server wires every handler onto one chi router.
type Server struct {
	router        chi.Router
	auth          *AuthHandler
	menu          *MenuHandler
	orders        *OrderHandler
	hub           *realtime.Hub
	upgrader      websocket.Upgrader
	tokens        *user.TokenManager
	users         user.Service
	allowedOrigin string
}

func NewServer(
	auth *AuthHandler,
	menuHandler *MenuHandler,
	orders *OrderHandler,
	hub *realtime.Hub,
	tokens *user.TokenManager,
	users user.Service,
	allowedOrigin string,
) *Server {
	s := &Server{
		router:        chi.NewRouter(),
		auth:          auth,
		menu:          menuHandler,
		orders:        orders,
		hub:           hub,
		upgrader:      realtime.NewUpgrader(allowedOrigin),
		tokens:        tokens,
		users:         users,
		allowedOrigin: allowedOrigin,
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := s.router

	r.Use(chimiddleware.Recoverer)
	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)
	r.Use(s.cors)

	requireAuth := middleware.RequireAuth(s.tokens, s.users)
	// The limiter runs after auth so authenticated traffic is keyed per
	// user; on the public routes it falls back to IP keying.
	rateLimit := middleware.RateLimit

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeData(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(rateLimit).Post("/register", s.auth.Register)
			r.With(rateLimit).Post("/login", s.auth.Login)
			r.With(requireAuth, rateLimit).Get("/me", s.auth.Me)
			r.With(requireAuth, rateLimit).Get("/profile", s.auth.Me)
		})

		r.Route("/food-items", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(rateLimit)
				r.Get("/", s.menu.List)
				r.Get("/categories", s.menu.Categories)
				r.Get("/{id}", s.menu.Get)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireAuth, middleware.RequireAdmin, rateLimit)
				r.Post("/", s.menu.Create)
				r.Put("/{id}", s.menu.Update)
				r.Delete("/{id}", s.menu.Delete)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(requireAuth, rateLimit)
			r.Post("/", s.orders.Place)
			r.Get("/", s.orders.List)
			r.Get("/{id}", s.orders.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Put("/{id}/status", s.orders.UpdateStatus)
				r.Post("/verify-qr", s.orders.VerifyQR)
			})
		})
	})

	r.With(requireAuth, rateLimit).Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		s.hub.ServeWS(s.upgrader, w, r)
	})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
