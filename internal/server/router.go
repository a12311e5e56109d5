package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"log/slog"

	"github.com/JackobAssis/Joburguers/internal/config"
	"github.com/JackobAssis/Joburguers/internal/domain"
	"github.com/JackobAssis/Joburguers/internal/handler"
)

// NewRouter wires HTTP routes and middleware.
func NewRouter(cfg config.Config,
	logger *slog.Logger,
	health handler.HealthHandler,
	home handler.HomeHandler,
	auth handler.AuthHandler,
	products handler.ProductHandler,
	productsAdmin handler.ProductAdminHandler,
	promotions handler.PromotionHandler,
	promotionsAdmin handler.PromotionAdminHandler,
	clientsAdmin handler.ClientAdminHandler,
	redeemsAdmin handler.RedeemAdminHandler,
	adminAccount handler.AdminAccountHandler,
	me handler.MeHandler,
	settings handler.SettingsHandler,
	tx handler.TransactionHandler,
	export handler.ExportHandler,
	report handler.ReportHandler,
	uploads handler.UploadHandler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(200, 1*time.Minute))

	health.RegisterRoutes(r)
	home.RegisterRoutes(r)
	auth.RegisterRoutes(r)
	products.RegisterRoutes(r)
	promotions.RegisterRoutes(r)
	settings.RegisterRoutes(r)
	uploads.RegisterServeRoute(r)
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Group(func(pr chi.Router) {
		pr.Use(AuthMiddleware(cfg.JWTSecret))
		auth.RegisterAuthedRoutes(pr)
		// client-facing surface
		pr.Group(func(cr chi.Router) {
			cr.Use(RequireActor(domain.ActorClient))
			me.RegisterRoutes(cr)
		})
		// admin surface
		pr.Group(func(ar chi.Router) {
			ar.Use(RequireActor(domain.ActorAdmin))
			productsAdmin.RegisterRoutes(ar)
			promotionsAdmin.RegisterRoutes(ar)
			clientsAdmin.RegisterRoutes(ar)
			redeemsAdmin.RegisterRoutes(ar)
			adminAccount.RegisterRoutes(ar)
			settings.RegisterAdminRoutes(ar)
			tx.RegisterRoutes(ar)
			export.RegisterRoutes(ar)
			report.RegisterRoutes(ar)
			uploads.RegisterRoutes(ar)
		})
	})

	return r
}
