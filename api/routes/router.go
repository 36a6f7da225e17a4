package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/wishbridge-backend/api/controllers"
	"github.com/angelmondragon/wishbridge-backend/api/middleware"
	"github.com/angelmondragon/wishbridge-backend/internal/admin"
	"github.com/angelmondragon/wishbridge-backend/internal/auth"
	"github.com/angelmondragon/wishbridge-backend/internal/bids"
	"github.com/angelmondragon/wishbridge-backend/internal/wishes"
	"github.com/angelmondragon/wishbridge-backend/pkg/auth/session"
	"github.com/angelmondragon/wishbridge-backend/pkg/config"
	"github.com/angelmondragon/wishbridge-backend/pkg/db"
	"github.com/angelmondragon/wishbridge-backend/pkg/enums"
	"github.com/angelmondragon/wishbridge-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/wishbridge-backend/pkg/redis"
	"github.com/angelmondragon/wishbridge-backend/pkg/storage/gcs"
)

// cacheStore is the Redis surface the HTTP layer needs: rate limits, idempotency and readiness.
type cacheStore interface {
	pkgredis.IdempotencyStore
	pkgredis.Pinger
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	cache cacheStore,
	gcsClient gcs.Pinger,
	gatherer prometheus.Gatherer,
	sessions session.AccessSessionChecker,
	authService auth.Service,
	signupService auth.SignupService,
	wishService wishes.Service,
	bidService bids.Service,
	adminService admin.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS, cfg.App),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	signupPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignupWindow,
		cfg.AuthRateLimit.SignupIPLimit,
		cfg.AuthRateLimit.SignupEmailLimit,
	)

	authn := middleware.Auth(cfg.JWT, sessions, logg)
	idempotent := middleware.Idempotency(cache, cfg.Eventing.IdempotencyTTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, map[string]controllers.Pinger{
			"db":    dbP,
			"redis": cache,
			"gcs":   gcsClient,
		}, logg))
	})

	if cfg.FeatureFlags.Metrics && gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, cache, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, logg))
		r.With(authn).Post("/logout", controllers.AuthLogout(authService, logg))

		r.Route("/signup", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(signupPolicy, cache, logg)).Post("/send-otp", controllers.SignupSendOTP(signupService, logg))
			r.With(middleware.AuthRateLimit(signupPolicy, cache, logg)).Post("/verify-otp", controllers.SignupVerifyOTP(signupService, logg))
			r.With(middleware.AuthRateLimit(signupPolicy, cache, logg)).Post("/resend-otp", controllers.SignupResendOTP(signupService, logg))
			r.Post("/complete", controllers.SignupComplete(signupService, cfg.GCS.MaxUploadBytes, logg))
		})
	})

	r.Route("/api/v1/wishes", func(r chi.Router) {
		r.Get("/", controllers.WishesList(wishService, logg))
		// literal segment before the param route
		r.With(authn).Get("/mine", controllers.WishesMine(wishService, logg))
		r.Get("/{wishId}", controllers.WishGet(wishService, logg))

		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.With(idempotent).Post("/", controllers.WishCreate(wishService, logg))
			r.Put("/{wishId}", controllers.WishUpdate(wishService, logg))
			r.Delete("/{wishId}", controllers.WishDelete(wishService, logg))
		})
	})

	r.Route("/api/v1/bids", func(r chi.Router) {
		r.Use(authn)
		r.Get("/user", controllers.BidsForUser(bidService, logg))
		r.With(idempotent).Post("/{wishId}", controllers.BidSubmit(bidService, logg))
		r.Get("/{wishId}", controllers.BidsForWish(bidService, logg))
		r.With(idempotent).Patch("/{bidId}/accept", controllers.BidAccept(bidService, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(authn)
		r.Use(middleware.RequireRole(enums.SystemRoleAdmin, logg))
		r.Get("/users", controllers.AdminUsersList(adminService, logg))
		r.Put("/users/{userId}/verification", controllers.AdminUserSetVerification(adminService, logg))
		r.Get("/outbox/dead-letters", controllers.AdminDeadLettersList(adminService, logg))
	})

	return r
}
