package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/slicehouse/api/internal/config"
	"github.com/slicehouse/api/internal/database"
	"github.com/slicehouse/api/internal/enum"
	"github.com/slicehouse/api/internal/handler"
	"github.com/slicehouse/api/internal/metrics"
	mw "github.com/slicehouse/api/internal/middleware"
	"github.com/slicehouse/api/internal/ws"
)

// Pinger reports database reachability. Satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps carries everything the router wires into handlers. Idempotency,
// Metrics, Gatherer and DB are optional.
type Deps struct {
	Config      *config.Config
	Queries     *database.Queries
	Orders      handler.OrderServicer
	Idempotency handler.IdempotencyGuard
	Hub         *ws.Hub
	Metrics     *metrics.ServerMetrics
	Gatherer    prometheus.Gatherer
	DB          Pinger
	Logger      *zap.Logger
}

// New creates a Chi router with all application routes wired up.
// Applies authentication, user loading, and role-based middleware as needed.
func New(d Deps) chi.Router {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cfg := d.Config

	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger(log))
	r.Use(middleware.Recoverer)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", handler.IdempotencyKeyHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", health(d.DB))
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(d.Gatherer))
	}

	authHandler := handler.NewAuthHandler(d.Queries, cfg.JWTSecret, log.Named("auth"))
	authHandler.RegisterRoutes(r)

	inventoryHandler := handler.NewInventoryHandler(d.Queries, log.Named("inventory"))
	inventoryHandler.RegisterPublicRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/admin/inventory", ws.ServeAdminInventory(d.Hub, cfg.JWTSecret, roleLookup(d.Queries), log.Named("ws")))

	orderHandler := handler.NewOrderHandler(d.Orders, d.Idempotency, log.Named("orders"))

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))
		r.Use(mw.LoadUser(d.Queries, log))

		orderHandler.RegisterRoutes(r)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleAdmin))
			orderHandler.RegisterAdminRoutes(r)
			inventoryHandler.RegisterAdminRoutes(r)
		})
	})

	log.Info("router initialized")
	return r
}

func roleLookup(q *database.Queries) ws.RoleLookup {
	return func(ctx context.Context, userID uuid.UUID) (string, error) {
		user, err := q.GetUserByID(ctx, userID)
		if err != nil {
			return "", err
		}
		return string(user.Role), nil
	}
}

func health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
