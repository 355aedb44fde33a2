package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/surojit-ghosh/url-shortener/internal/analytics"
	"github.com/surojit-ghosh/url-shortener/internal/api"
	"github.com/surojit-ghosh/url-shortener/internal/config"
	"github.com/surojit-ghosh/url-shortener/internal/infra"
	"github.com/surojit-ghosh/url-shortener/internal/middleware"
	"github.com/surojit-ghosh/url-shortener/internal/observability"
	"github.com/surojit-ghosh/url-shortener/internal/reqinfo"
	"github.com/surojit-ghosh/url-shortener/internal/repository"
	"github.com/surojit-ghosh/url-shortener/internal/service"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// redisPinger adapts *redis.Client to api.CacheInterface.
type redisPinger struct{ client *redis.Client }

func (r *redisPinger) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// NewRouter initializes all dependencies and returns a configured Gin router.
// This is useful for testing where you don't need the full HTTP server.
// The queue may be nil: redirects then skip click dispatch, which is the
// documented degraded mode.
func NewRouter(cfg *config.Config, db *pgxpool.Pool, cache *redis.Client, queue *infra.Queue, geo *reqinfo.GeoResolver, obs *observability.Observability) *gin.Engine {
	baseRepo := repository.NewLinkRepository(db)
	linkRepo := repository.NewCachedLinkRepository(baseRepo, cache, cfg.Cache.TTL)
	clickRepo := repository.NewClickRepository(db)

	keygen := service.NewKeyGenerator(linkRepo, cfg.App.KeyLength, cfg.App.KeyMaxAttempts)
	linkService := service.NewLinkService(linkRepo, keygen, cfg.App.BaseURL)
	statsService := service.NewStatsService(linkRepo, clickRepo, cfg.App.BaseURL)

	var publisher service.ClickPublisher
	if queue != nil {
		publisher = analytics.NewPublisher(queue)
	}
	redirectService := service.NewRedirectService(linkRepo, publisher, obs.Logger)
	recorder := analytics.NewRecorder(linkRepo, clickRepo, obs.Logger)

	handler := api.NewHandler(linkService, redirectService, statsService, recorder, geo, db, &redisPinger{client: cache}, obs.Logger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.Observability.ServiceName))
	r.Use(middleware.Logging(obs.Logger))
	r.Use(middleware.Metrics(cfg.Observability.ServiceName))

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(obs.Registry, promhttp.HandlerOpts{})))

	handler.RegisterRoutes(r)
	return r
}

// NewServer initializes all dependencies and returns a configured HTTP server.
// This includes the router plus HTTP server settings (timeouts, address, etc.).
func NewServer(cfg *config.Config, db *pgxpool.Pool, cache *redis.Client, queue *infra.Queue, geo *reqinfo.GeoResolver, obs *observability.Observability) *http.Server {
	router := NewRouter(cfg, db, cache, queue, geo, obs)

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
