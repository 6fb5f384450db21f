package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"clinic-scheduling-api/internal/account"
	"clinic-scheduling-api/internal/auth"
	"clinic-scheduling-api/internal/booking"
	"clinic-scheduling-api/internal/config"
	"clinic-scheduling-api/internal/docstore"
	"clinic-scheduling-api/internal/events"
	gweb "clinic-scheduling-api/internal/grpcweb"
	"clinic-scheduling-api/internal/handler"
	"clinic-scheduling-api/internal/middleware"
	"clinic-scheduling-api/internal/observability/metrics"
	"clinic-scheduling-api/internal/observability/tracing"
	"clinic-scheduling-api/internal/prescription"
	"clinic-scheduling-api/internal/rest"
	"clinic-scheduling-api/internal/rpc"
	"clinic-scheduling-api/internal/store"
	"clinic-scheduling-api/internal/store/memstore"
)

const serviceName = "clinic-api"

// backend is the relational storage both implementations provide.
type backend interface {
	booking.Store
	account.Store
	AdminExists(ctx context.Context, id int64) (bool, error)
	Ping(ctx context.Context) error
}

func newAuthority(cfg *config.Config, st interface {
	AdminExists(ctx context.Context, id int64) (bool, error)
	DoctorExists(ctx context.Context, id int64) (bool, error)
	PatientExists(ctx context.Context, id int64) (bool, error)
}) *auth.Authority {
	return auth.NewAuthority(cfg.JWTSecret, auth.Subjects{
		auth.RoleAdmin:   st.AdminExists,
		auth.RoleDoctor:  st.DoctorExists,
		auth.RolePatient: st.PatientExists,
	}, auth.WithTTL(cfg.TokenTTL))
}

func runServer(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()
	var cleanup []func(context.Context)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i](sctx)
		}
	}()

	// tracing
	tcfg := tracing.DefaultConfig(serviceName)
	tcfg.Environment = cfg.Env
	tcfg.OTLPEndpoint = cfg.OTelEndpoint
	tp, err := tracing.Init(ctx, tcfg)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	cleanup = append(cleanup, func(ctx context.Context) { _ = tp.Shutdown(ctx) })

	m := metrics.New()

	// relational storage
	var st backend
	switch cfg.Storage {
	case config.StoragePostgres:
		pool, err := store.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return err
		}
		cleanup = append(cleanup, func(context.Context) { pool.Close() })
		logger.Info("connected to postgres")

		n, err := store.NewMigrator(pool, cfg.MigrationsDir).Up(ctx)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations applied", zap.Int("count", n))
		st = store.New(pool)
	default:
		logger.Warn("using in-memory storage; data is lost on restart")
		st = memstore.New()
	}

	// prescriptions
	var rx prescription.Store
	var mongo *docstore.Mongo
	if cfg.MongoURL != "" {
		mongo, err = docstore.Connect(ctx, docstore.Config{
			URI:      cfg.MongoURL,
			Database: cfg.MongoDatabase,
			OnState:  m.BreakerChanged,
		}, logger)
		if err != nil {
			return err
		}
		cleanup = append(cleanup, func(ctx context.Context) { _ = mongo.Close(ctx) })
		logger.Info("connected to mongo", zap.String("database", cfg.MongoDatabase))
		rx = mongo
	} else {
		logger.Warn("MONGO_URL not set; prescriptions kept in memory")
		rx = memstore.New()
	}

	// events
	var pub events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		k, err := events.NewKafka(events.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic}, logger)
		if err != nil {
			return err
		}
		cleanup = append(cleanup, func(context.Context) { k.Close() })
		pub = k
	}

	// services
	tokens := newAuthority(cfg, st)
	cal := booking.NewCalendar(st, booking.DefaultTemplate, cfg.Location())
	bookings := booking.NewService(st, tokens, cal,
		booking.WithPublisher(pub),
		booking.WithRecorder(m),
		booking.WithLogger(logger),
	)
	accounts := account.NewService(st, tokens, cal.Template(), pub, logger)
	prescriptions := prescription.NewService(rx, tokens)

	if cfg.AdminUsername != "" {
		if _, err := accounts.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			return fmt.Errorf("ensure admin: %w", err)
		}
		logger.Info("admin account ready", zap.String("username", cfg.AdminUsername))
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer limiter.Stop()

	// grpc
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.RateLimit(limiter),
			middleware.Auth(),
		),
	)
	rpc.RegisterScheduleServiceServer(srv, handler.New(accounts, bookings, logger))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus(rpc.ServiceName, healthpb.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	errc := make(chan error, 3)
	go func() {
		logger.Info("grpc listening", zap.String("addr", lis.Addr().String()))
		if err := srv.Serve(lis); err != nil {
			errc <- fmt.Errorf("grpc: %w", err)
		}
	}()

	// rest
	api := rest.New(accounts, bookings, prescriptions, logger)
	restSrv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: api.Handler(rest.Options{
			ServiceName: serviceName,
			CORSOrigins: cfg.CORSOrigins,
			Limiter:     limiter,
			Observe:     m.ObserveRequest,
			Metrics:     m.Handler(),
			Ready: func(ctx context.Context) error {
				if err := st.Ping(ctx); err != nil {
					return fmt.Errorf("database: %w", err)
				}
				if mongo != nil {
					if err := mongo.Ping(ctx); err != nil {
						return fmt.Errorf("mongo: %w", err)
					}
				}
				return nil
			},
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("http listening", zap.String("addr", restSrv.Addr))
		if err := restSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("http: %w", err)
		}
	}()

	// grpc-web bridge forwards browser requests to grpc on localhost
	bridge, err := gweb.Dial("localhost:"+cfg.GRPCPort, cfg.CORSOrigins, logger)
	if err != nil {
		return err
	}
	defer bridge.Close()
	webSrv := &http.Server{
		Addr:              ":" + cfg.WebPort,
		Handler:           bridge.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("grpc-web listening", zap.String("addr", webSrv.Addr))
		if err := webSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("grpc-web: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	var runErr error
	select {
	case <-quit:
	case runErr = <-errc:
		logger.Error("server failed", zap.Error(runErr))
	}

	logger.Info("shutting down")
	hs.Shutdown()
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := restSrv.Shutdown(sctx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := webSrv.Shutdown(sctx); err != nil {
		logger.Warn("grpc-web shutdown", zap.Error(err))
	}
	srv.GracefulStop()
	logger.Info("server stopped")
	return runErr
}
