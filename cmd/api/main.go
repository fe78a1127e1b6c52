package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/kikite/backend-order/internal/auth"
	"github.com/kikite/backend-order/internal/cache"
	"github.com/kikite/backend-order/internal/common"
	"github.com/kikite/backend-order/internal/config"
	"github.com/kikite/backend-order/internal/csvexport"
	"github.com/kikite/backend-order/internal/customer"
	"github.com/kikite/backend-order/internal/db"
	"github.com/kikite/backend-order/internal/events"
	"github.com/kikite/backend-order/internal/health"
	"github.com/kikite/backend-order/internal/obs"
	"github.com/kikite/backend-order/internal/order"
	"github.com/kikite/backend-order/internal/postal"
	"github.com/kikite/backend-order/internal/product"
	"github.com/kikite/backend-order/internal/ratelimit"
	"github.com/kikite/backend-order/internal/resilience"
	"github.com/kikite/backend-order/internal/settings"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	obs.MustRegisterDomainMetrics(prometheus.DefaultRegisterer)
	resilience.MustRegisterBreakerMetrics(prometheus.DefaultRegisterer)

	shutdown, err := obs.InitTracer(context.Background(), "backend-order-api", cfg.OTLPEndpoint, cfg.TraceSampleRatio)
	if err != nil {
		logger.Error().Err(err).Msg("initialise tracing")
	} else {
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Error().Err(err).Msg("shutdown tracer")
			}
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis metrics")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	queue := asynq.NewClient(asynq.RedisClientOpt{Addr: redisOpts.Addr, Password: redisOpts.Password, DB: redisOpts.DB})
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Error().Err(err).Msg("close task queue")
		}
	}()

	validate := validator.New()
	jsonCache := cache.Cache{R: redisClient}
	bus := &events.Bus{Store: events.PGStore{Pool: pool}}

	authService, err := auth.NewService(auth.Config{
		Store:          auth.Store{Pool: pool},
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authHandler := &auth.Handler{Service: authService}
	authMiddleware := auth.Middleware{Service: authService}

	settingsService := &settings.Service{
		Q:     settings.Store{Pool: pool},
		Cache: jsonCache,
		TTL:   cfg.SettingsCacheTTL,
	}
	settingsHandler := &settings.Handler{Service: settingsService}

	productService := &product.Service{
		Q:     product.Store{Pool: pool},
		Cache: jsonCache,
		TTL:   cfg.ProductCacheTTL,
	}
	productHandler := &product.Handler{Service: productService}

	customerStore := &customer.Store{Pool: pool}
	customerHandler := &customer.Handler{Store: customerStore}

	orderStore := order.Store{Pool: pool}
	orderService := &order.Service{
		Pool:      pool,
		Store:     orderStore,
		Products:  product.Store{Pool: pool},
		Customers: customerStore,
		Settings:  settingsService,
		Bus:       bus,
		Validate:  validate,
	}
	orderHandler := &order.Handler{Service: orderService}

	csvHandler := &csvexport.Handler{Orders: orderStore}

	geoHTTP := resilience.HTTPClient{
		Client:      &http.Client{},
		Breaker:     resilience.NewBreaker(5, 0.5, 30*time.Second).WithTarget("geo").WithLogger(logger),
		MaxAttempts: 2,
		Timeout:     cfg.GeoRequestTimeout,
	}
	postalStore := postal.Store{Pool: pool}
	postalHandler := &postal.Handler{
		Resolver: &postal.Resolver{
			Store:    postalStore,
			Zipcloud: postal.ZipcloudClient{BaseURL: cfg.ZipcloudBaseURL, HTTP: geoHTTP},
		},
		HeartRails: postal.HeartRailsClient{BaseURL: cfg.HeartRailsBaseURL, HTTP: geoHTTP},
		Store:      postalStore,
		Queue:      queue,
		BatchSize:  cfg.PostalImportBatchSize,
	}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
	loginLimit, err := ratelimit.New(redisClient, cfg.LoginRateLimit, "rl:login")
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter")
	}

	httpMetrics := obs.NewHTTPMetrics(prometheus.DefaultRegisterer, obs.ParseBucketsCSV(cfg.HTTPBucketsCSV))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.Instrument(httpMetrics))
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	healthHandler := health.Handler{
		Checker: db.Deps{Pool: pool, Redis: redisClient},
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Route("/auth", func(a chi.Router) {
			a.With(loginLimit).Post("/login", authHandler.Login)
			a.With(authMiddleware.RequireAuth).Get("/me", authHandler.Me)
		})

		v.Group(func(protected chi.Router) {
			protected.Use(authMiddleware.RequireAuth)

			protected.Get("/products", productHandler.List)
			protected.Get("/products/{id}", productHandler.Get)
			protected.Get("/customers/search", customerHandler.Search)

			protected.Get("/settings", settingsHandler.List)
			protected.Put("/settings", settingsHandler.Update)

			protected.Route("/orders", func(o chi.Router) {
				o.Get("/", orderHandler.List)
				o.Get("/next-number", orderHandler.NextNumber)
				o.Post("/preview", orderHandler.Preview)
				o.With(idem.Middleware).Post("/", orderHandler.Create)
				o.Get("/{id}", orderHandler.Get)
				o.Put("/{id}", orderHandler.Update)
				o.Delete("/{id}", orderHandler.Delete)
			})

			protected.Post("/csv/export", csvHandler.Export)

			protected.Route("/postal-codes", func(p chi.Router) {
				p.Post("/reverse", postalHandler.Reverse)
				p.Post("/import", postalHandler.Import)
				p.Get("/import", postalHandler.Count)
				p.Get("/{code}", postalHandler.Lookup)
			})
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-runCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}
