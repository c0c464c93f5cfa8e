package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"ms-bookings/internal/auth"
	"ms-bookings/internal/config"
	"ms-bookings/internal/database/migrations"
	"ms-bookings/internal/events"
	flight_db "ms-bookings/internal/flights/db"
	"ms-bookings/internal/flights/flight_api"
	flights "ms-bookings/internal/flights/service"
	"ms-bookings/internal/kv"
	"ms-bookings/internal/lock"
	"ms-bookings/internal/logger"
	"ms-bookings/internal/sse"
	ticket_db "ms-bookings/internal/tickets/db"
	"ms-bookings/internal/tickets/pass"
	tickets "ms-bookings/internal/tickets/service"
	"ms-bookings/internal/tickets/ticket_api"
	"ms-bookings/internal/utils"
)

// stores holds one kv.Store per namespace plus whatever must be closed.
type stores struct {
	tickets, flights, users kv.Store
	ping                    func(context.Context) error
	closers                 []io.Closer
}

func (s *stores) Close() {
	for _, c := range s.closers {
		c.Close()
	}
}

func openStores(ctx context.Context, cfg *config.Config, redisClient *redis.Client, log *logger.Logger) (*stores, error) {
	limits := kv.Limits{MaxKeySize: cfg.Store.MaxKeySize, MaxValueSize: cfg.Store.MaxValueSize}

	switch cfg.Store.Driver {
	case "sqlite":
		db, err := kv.OpenSQLite(cfg.Store.SQLiteDSN)
		if err != nil {
			return nil, err
		}
		if err := kv.CreateSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("DATABASE", fmt.Sprintf("✅ SQLite store ready (%s)", cfg.Store.SQLiteDSN))
		return &stores{
			tickets: kv.NewBunStore(db, kv.Tickets, limits),
			flights: kv.NewBunStore(db, kv.Flights, limits),
			users:   kv.NewBunStore(db, kv.Users, limits),
			ping:    db.PingContext,
			closers: []io.Closer{db},
		}, nil

	case "postgres":
		db, err := kv.OpenPostgres(cfg.Store.PostgresDSN)
		if err != nil {
			return nil, err
		}
		runner := migrations.NewRunner(db, migrations.MigrateOptions{
			MigrationsDir: cfg.Store.MigrationsDir,
			AutoMigrate:   cfg.Store.MigrateOnStart,
		}, log)
		if err := runner.Startup(); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("DATABASE", "✅ PostgreSQL store ready")
		return &stores{
			tickets: kv.NewBunStore(db, kv.Tickets, limits),
			flights: kv.NewBunStore(db, kv.Flights, limits),
			users:   kv.NewBunStore(db, kv.Users, limits),
			ping:    db.PingContext,
			closers: []io.Closer{db},
		}, nil

	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("redis store selected but no redis client")
		}
		log.Info("DATABASE", fmt.Sprintf("✅ Redis store ready (%s)", cfg.Redis.Addr))
		return &stores{
			tickets: kv.NewRedisStore(redisClient, kv.Tickets, limits),
			flights: kv.NewRedisStore(redisClient, kv.Flights, limits),
			users:   kv.NewRedisStore(redisClient, kv.Users, limits),
			ping:    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		}, nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Store.Driver)
}

// connectRedis returns nil when neither the store nor the lock needs redis.
func connectRedis(ctx context.Context, cfg *config.Config, log *logger.Logger) (*redis.Client, error) {
	if cfg.Store.Driver != "redis" && cfg.Lock.Driver != "redis" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection error: %w", err)
	}
	log.Info("REDIS", fmt.Sprintf("✅ Redis connection successful to %s (DB: %d)", cfg.Redis.Addr, cfg.Redis.DB))
	return client, nil
}

func newLocker(cfg *config.Config, redisClient *redis.Client, log *logger.Logger) lock.Locker {
	if cfg.Lock.Driver == "redis" && redisClient != nil {
		return lock.NewRedis(redisClient, cfg.Lock.TTL, log)
	}
	return lock.NewLocal()
}

type publisher interface {
	events.Publisher
	Close() error
}

func newPublisher(cfg *config.Config, log *logger.Logger) (events.Publisher, func()) {
	var (
		p   publisher
		err error
	)
	switch cfg.Events.Driver {
	case "kafka":
		p = events.NewKafka(cfg.Events.KafkaBrokers, cfg.Events.TopicPrefix)
	case "amqp":
		p, err = events.NewAMQP(cfg.Events.AMQPURL, cfg.Events.AMQPExchange)
	default:
		log.Info("EVENTS", "Event publishing disabled")
		return events.Nop{}, func() {}
	}
	if err != nil {
		log.Warn("EVENTS", fmt.Sprintf("Failed to start %s publisher, events disabled: %v", cfg.Events.Driver, err))
		return events.Nop{}, func() {}
	}
	log.Info("EVENTS", fmt.Sprintf("Publishing domain events via %s", cfg.Events.Driver))
	return p, func() {
		if err := p.Close(); err != nil {
			log.Warn("EVENTS", fmt.Sprintf("Failed to close publisher: %v", err))
		}
	}
}

func newVerifier(ctx context.Context, cfg *config.Config, log *logger.Logger) (auth.TokenVerifier, error) {
	switch {
	case cfg.Auth.OIDCIssuer != "":
		log.Info("AUTH", fmt.Sprintf("Verifying tokens against %s", cfg.Auth.OIDCIssuer))
		return auth.NewOIDCVerifier(ctx, cfg.Auth.OIDCIssuer)
	case cfg.Auth.JWTSecret != "":
		log.Info("AUTH", "Verifying HS256 tokens with JWT_SECRET")
		return auth.NewHMACVerifier(cfg.Auth.JWTSecret), nil
	default:
		log.Warn("AUTH", "No OIDC_ISSUER or JWT_SECRET set, token signatures are NOT verified")
		return auth.UnverifiedVerifier{}, nil
	}
}

func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			started := time.Now()
			next.ServeHTTP(ww, r)
			log.LogAPI(r.Method, r.URL.Path, ww.Status(), time.Since(started))
		})
	}
}

type app struct {
	tickets  *ticket_api.Handler
	flights  *flight_api.Handler
	stream   *sse.Handler
	verifier auth.TokenVerifier
	required bool
	ping     func(context.Context) error
	logger   *logger.Logger
}

func buildRouter(a app) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(a.logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := a.ping(r.Context()); err != nil {
			utils.WriteJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse("Store unavailable", err.Error()))
			return
		}
		utils.WriteSuccess(w, http.StatusOK, "ok", nil)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(a.verifier, a.required))
		r.Route("/api", func(r chi.Router) {
			a.tickets.RegisterRoutes(r)
			a.flights.RegisterRoutes(r)
			a.stream.RegisterRoutes(r)
		})
	})
	return r
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println(".env file not found, using environment variables")
	}
	cfg := config.Load()

	log := logger.NewLogger(cfg.Service.Name, cfg.LogDir)
	defer log.Close()
	log.Info("APP", fmt.Sprintf("Starting %s", cfg.Service.Name))

	ctx := context.Background()

	redisClient, err := connectRedis(ctx, cfg, log)
	if err != nil {
		log.Fatal("REDIS", err.Error())
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	st, err := openStores(ctx, cfg, redisClient, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer st.Close()

	locker := newLocker(cfg, redisClient, log)
	external, closePublisher := newPublisher(cfg, log)
	defer closePublisher()
	emitter := sse.NewEmitter()
	publisher := events.Multi{emitter, external}

	verifier, err := newVerifier(ctx, cfg, log)
	if err != nil {
		log.Fatal("AUTH", err.Error())
	}

	passes, err := pass.NewGenerator(cfg.PassKey)
	if err != nil {
		log.Fatal("APP", fmt.Sprintf("Failed to create pass generator: %v", err))
	}

	ticketService := tickets.NewTicketService(ticket_db.New(st.tickets), locker, publisher, log)
	flightService := flights.NewFlightService(
		flight_db.NewFlightDB(st.flights),
		flight_db.NewUserDB(st.users),
		locker, publisher, log,
	)

	router := buildRouter(app{
		tickets:  ticket_api.NewHandler(ticketService, passes, log),
		flights:  flight_api.NewHandler(flightService, log),
		stream:   sse.NewHandler(emitter, log),
		verifier: verifier,
		required: cfg.Auth.Required,
		ping:     st.ping,
		logger:   log,
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 %s running on %s", cfg.Service.Name, cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Shutdown complete")
	}
}
