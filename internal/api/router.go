package api

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/speechgateway/internal/api/handlers"
	"github.com/nikhilbhutani/speechgateway/internal/api/middleware"
	"github.com/nikhilbhutani/speechgateway/internal/auth"
	"github.com/nikhilbhutani/speechgateway/internal/config"
	"github.com/nikhilbhutani/speechgateway/internal/metrics"
	"github.com/nikhilbhutani/speechgateway/internal/speech"
	"github.com/nikhilbhutani/speechgateway/internal/usage"
)

type Router struct {
	mux       *chi.Mux
	cfg       *config.Config
	gateway   *speech.Gateway
	redis     *redis.Client
	publisher usage.Publisher
	metrics   *metrics.Metrics
	jwt       *auth.JWTMiddleware

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRouter wires the HTTP surface. rdb and publisher may be nil.
func NewRouter(cfg *config.Config, gw *speech.Gateway, m *metrics.Metrics, rdb *redis.Client, publisher usage.Publisher) *Router {
	return &Router{
		mux:       chi.NewRouter(),
		cfg:       cfg,
		gateway:   gw,
		redis:     rdb,
		publisher: publisher,
		metrics:   m,
		jwt:       auth.NewJWTMiddleware(cfg.Auth.JWTSecret),
		stop:      make(chan struct{}),
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.Server.AllowedOrigins))

	// Probes (no auth, no rate limit)
	health := handlers.NewHealthHandler(rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())

	rl := middleware.NewRateLimiter(rt.cfg.Server.RateLimitRPS, rt.cfg.Server.RateLimitBurst).
		OnReject(rt.metrics.IncRateLimited)
	go rl.Run(rt.stop)

	speechH := handlers.NewSpeechHandler(rt.gateway, rt.publisher, rt.metrics)
	r.Route("/api", func(r chi.Router) {
		r.Use(rl.Limit)
		r.Use(rt.jwt.Authenticate)

		r.Post("/tts", speechH.Create)
	})

	return r
}

// Close stops background maintenance started by Setup.
func (rt *Router) Close() {
	rt.stopOnce.Do(func() { close(rt.stop) })
}
