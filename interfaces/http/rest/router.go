package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"booklib-backend/application/services"
	"booklib-backend/interfaces/http/rest/handlers"
	"booklib-backend/interfaces/http/rest/middleware"
	"booklib-backend/pkg/auth"
)

// Router creates and configures the HTTP router
type Router struct {
	accounts   *services.AccountService
	library    *services.LibraryService
	sessions   *auth.SessionManager
	logger     *zap.Logger
	enableCORS bool
}

// NewRouter creates a new router instance
func NewRouter(
	accounts *services.AccountService,
	library *services.LibraryService,
	sessions *auth.SessionManager,
	logger *zap.Logger,
	enableCORS bool,
) *Router {
	return &Router{
		accounts:   accounts,
		library:    library,
		sessions:   sessions,
		logger:     logger,
		enableCORS: enableCORS,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	authHandler := handlers.NewAuthHandler(rt.accounts, rt.sessions, rt.logger)
	bookHandler := handlers.NewBookHandler(rt.library, rt.logger)

	// Health check
	router.Get("/health", rt.healthCheck)

	// Public routes
	router.Post("/register", authHandler.Register)
	router.Post("/login", authHandler.Login)

	// Authenticated routes
	router.Group(func(r chi.Router) {
		r.Use(middleware.SessionAuth(rt.sessions, rt.logger))

		r.Post("/logout", authHandler.Logout)
		r.Delete("/account", authHandler.DeleteAccount)

		r.Route("/books", func(r chi.Router) {
			r.Get("/", bookHandler.List)
			r.Post("/", bookHandler.Add)
			r.Get("/{userBookID}", bookHandler.Get)
			r.Put("/{userBookID}", bookHandler.Update)
			r.Delete("/{userBookID}", bookHandler.Delete)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
