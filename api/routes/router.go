package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/serenadecraft/serenade-backend/api/controllers"
	ordercontrollers "github.com/serenadecraft/serenade-backend/api/controllers/orders"
	"github.com/serenadecraft/serenade-backend/api/middleware"
	internalassets "github.com/serenadecraft/serenade-backend/internal/assets"
	internalauth "github.com/serenadecraft/serenade-backend/internal/auth"
	internallyrics "github.com/serenadecraft/serenade-backend/internal/lyrics"
	internalorders "github.com/serenadecraft/serenade-backend/internal/orders"
	"github.com/serenadecraft/serenade-backend/pkg/config"
	"github.com/serenadecraft/serenade-backend/pkg/logger"
	"github.com/serenadecraft/serenade-backend/pkg/metrics"
	pkgredis "github.com/serenadecraft/serenade-backend/pkg/redis"
)

type sessionManager interface {
	middleware.AccessSessionChecker
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Deps carries everything the router mounts. Nil services leave their
// routes returning internal errors rather than panicking at startup.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	DB    pinger
	Redis pinger
	GCS   pinger

	IdempotencyStore pkgredis.IdempotencyStore
	SessionManager   sessionManager

	AuthService     internalauth.Service
	RegisterService internalauth.RegisterService
	OrdersService   internalorders.Service
	AdminOrders     internalorders.AdminService
	LyricsService   internallyrics.Service
	AssetsService   internalassets.Service

	HTTPMetrics *metrics.HTTPMetrics
	Registry    *prometheus.Registry
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if d.HTTPMetrics != nil {
		r.Use(d.HTTPMetrics.Middleware)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, d.Redis, d.GCS))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.Idempotency(d.IdempotencyStore, logg)).
			Post("/register", controllers.Register(d.RegisterService, logg))
		r.Post("/login", controllers.Login(d.AuthService, logg))
		r.Post("/logout", controllers.Logout(d.SessionManager, cfg.JWT, logg))
		r.Post("/refresh", controllers.Refresh(d.SessionManager, cfg.JWT, logg))
	})

	r.Get("/api/v1/songs", controllers.PublicSongs(d.OrdersService, logg))

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.SessionManager, logg))
		// Idempotency reads the resolved route pattern, so it mounts per
		// route rather than on the subrouter, where the pattern is still
		// the parent wildcard.
		idem := middleware.Idempotency(d.IdempotencyStore, logg)

		r.With(idem).Post("/", ordercontrollers.Create(d.OrdersService, logg))
		r.Get("/", ordercontrollers.List(d.OrdersService, logg))
		r.Get("/{orderId}", ordercontrollers.Detail(d.OrdersService, logg))
		r.Get("/{orderId}/downloads", ordercontrollers.Downloads(d.OrdersService, logg))
		r.With(idem).Post("/{orderId}/lyrics", ordercontrollers.SaveLyrics(d.LyricsService, logg))
		r.Post("/{orderId}/lyrics/approve", ordercontrollers.ApproveLyrics(d.LyricsService, logg))
		r.Post("/{orderId}/lyrics/request-revision", ordercontrollers.RequestLyricsRevision(d.LyricsService, logg))
		r.Patch("/{orderId}/slots/{slotId}/visibility", ordercontrollers.SetVisibility(d.AssetsService, logg))
	})

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Post("/auth/login", controllers.AdminLogin(d.AuthService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, d.SessionManager, logg))
			r.Use(middleware.RequireAdmin(logg))
			r.Use(middleware.Idempotency(d.IdempotencyStore, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminOrderList(d.AdminOrders, logg))
				r.Get("/{orderId}", controllers.AdminOrderDetail(d.AdminOrders, logg))
				r.Post("/{orderId}/transition", controllers.AdminOrderTransition(d.AdminOrders, logg))
				r.Post("/{orderId}/force-status", controllers.AdminOrderForceStatus(d.AdminOrders, logg))
				r.Post("/{orderId}/lyrics/generate", controllers.AdminGenerateLyrics(d.LyricsService, logg))
				r.Post("/{orderId}/slots", controllers.AdminCreateSecondarySlot(d.AssetsService, logg))
				r.Route("/{orderId}/slots/{slotId}", func(r chi.Router) {
					r.Post("/audio", controllers.AdminUploadAudio(d.AssetsService, cfg.Uploads, logg))
					r.Delete("/audio", controllers.AdminDeleteAudio(d.AssetsService, logg))
					r.Post("/cover", controllers.AdminUploadCover(d.AssetsService, cfg.Uploads, logg))
					r.Delete("/cover", controllers.AdminDeleteCover(d.AssetsService, logg))
				})
			})
		})
	})

	return r
}
