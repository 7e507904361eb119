package router

import (
	"log"
	"net/http"
	"time"

	"github.com/cafebar/api/internal/apidocs"
	"github.com/cafebar/api/internal/config"
	"github.com/cafebar/api/internal/database"
	"github.com/cafebar/api/internal/enum"
	"github.com/cafebar/api/internal/handler"
	mw "github.com/cafebar/api/internal/middleware"
	"github.com/cafebar/api/internal/service"
	"github.com/cafebar/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// New creates a Chi router with all application routes wired up.
// Reads are public where the menu is concerned; everything else sits
// behind authentication and, for back-office routes, a staff/admin check.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	r.Get("/api-docs/openapi.json", apidocs.Handler)

	// WebSocket route (handles auth internally via ?token=). Long-lived,
	// so it stays outside the request timeout.
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	staffOnly := mw.RequireRole(enum.UserRoleAdmin, enum.UserRoleStaff)

	newOrderStore := func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}
	newMenuStore := func(db database.DBTX) service.MenuStore {
		return database.New(db)
	}
	orderService := service.NewOrderService(pool, newOrderStore, service.WithNegativeStock(cfg.AllowNegativeStock))
	menuService := service.NewMenuService(pool, newMenuStore)
	statsService := service.NewStatsService(queries)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		// Auth: signup/login are public, user administration is not.
		authHandler := handler.NewAuthHandler(queries, hub, cfg.JWTSecret, cfg.JWTTTL)
		userHandler := handler.NewUserHandler(queries, hub)
		r.Route("/auth", func(r chi.Router) {
			authHandler.RegisterRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(mw.Authenticate(cfg.JWTSecret))
				userHandler.RegisterRoutes(r)
			})
		})

		r.Route("/api", func(r chi.Router) {
			orderHandler := handler.NewOrderHandler(orderService, statsService, hub)
			r.Route("/order-groups", func(r chi.Router) {
				r.Use(mw.Authenticate(cfg.JWTSecret))
				orderHandler.RegisterRoutes(r)
			})

			itemHandler := handler.NewItemHandler(queries, menuService, hub)
			r.Route("/inventory", func(r chi.Router) {
				itemHandler.RegisterPublicRoutes(r)
				r.Group(func(r chi.Router) {
					r.Use(mw.Authenticate(cfg.JWTSecret))
					r.Use(staffOnly)
					itemHandler.RegisterStaffRoutes(r)
				})
			})

			ingredientHandler := handler.NewIngredientHandler(queries, hub, cfg.AllowNegativeStock)
			r.Route("/ingredientes", func(r chi.Router) {
				ingredientHandler.RegisterPublicRoutes(r)
				r.Group(func(r chi.Router) {
					r.Use(mw.Authenticate(cfg.JWTSecret))
					r.Use(staffOnly)
					ingredientHandler.RegisterStaffRoutes(r)
				})
			})

			statsHandler := handler.NewStatsHandler(statsService)
			r.Route("/stats", func(r chi.Router) {
				r.Use(mw.Authenticate(cfg.JWTSecret))
				r.Use(staffOnly)
				statsHandler.RegisterRoutes(r)
			})
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
