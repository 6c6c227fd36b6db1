package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/Leganyst/easycars/internal/access"
	"github.com/Leganyst/easycars/internal/activity"
	"github.com/Leganyst/easycars/internal/api/rest"
	"github.com/Leganyst/easycars/internal/auth"
	"github.com/Leganyst/easycars/internal/broker"
	"github.com/Leganyst/easycars/internal/config"
	"github.com/Leganyst/easycars/internal/db"
	"github.com/Leganyst/easycars/internal/logger"
	"github.com/Leganyst/easycars/internal/model"
	"github.com/Leganyst/easycars/internal/repository"
	"github.com/Leganyst/easycars/internal/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// 1. Config from env.
	appCfg, err := config.LoadAppConfig()
	if err != nil {
		log.Fatalf("load app config: %v", err)
	}
	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		log.Fatalf("load db config: %v", err)
	}

	zl, err := logger.New(appCfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zl.Sync()

	// 2. Database.
	gormDB, err := db.NewGormDB(dbCfg)
	if err != nil {
		zl.Fatal("init db", zap.Error(err))
	}
	if err := model.AutoMigrate(gormDB); err != nil {
		zl.Fatal("auto migrate", zap.Error(err))
	}
	if err := model.EnsureRoles(gormDB); err != nil {
		zl.Fatal("seed roles", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		zl.Fatal("sql DB", zap.Error(err))
	}
	defer sqlDB.Close()

	// 3. Activity pipeline: queue -> postgres, RabbitMQ, websocket hub.
	hub := activity.NewHub(64)
	sinkOpts := activity.Options{Buffer: appCfg.ActivityBuffer, Hub: hub}
	var pub *broker.Publisher
	if appCfg.AMQPURL != "" {
		pub, err = broker.Dial(appCfg.AMQPURL, appCfg.AMQPExchange, zl.Named("broker"))
		if err != nil {
			// the marketplace works without the event feed
			zl.Warn("rabbitmq unavailable, activity publishing disabled", zap.Error(err))
		} else {
			sinkOpts.Publisher = pub
		}
	}
	sink := activity.NewSink(repository.NewGormActivityLogRepository(gormDB), zl.Named("activity"), sinkOpts)

	// 4. Services.
	gate := access.Policy{}
	tokens := auth.NewIssuer(appCfg.JWTSecret, appCfg.JWTTTL)

	identitySvc := service.NewIdentityService(gormDB, tokens, gate, sink)
	if appCfg.AdminEmail != "" {
		if _, err := identitySvc.BootstrapAdmin(context.Background(), appCfg.AdminEmail, appCfg.AdminPassword); err != nil {
			zl.Fatal("bootstrap admin", zap.Error(err))
		}
	}

	e := rest.NewServer(rest.Deps{
		DB:            gormDB,
		Log:           zl.Named("http"),
		Tokens:        tokens,
		Hub:           hub,
		Identity:      identitySvc,
		Cars:          service.NewCarService(gormDB, gate, sink),
		Rentals:       service.NewRentalService(gormDB, gate, sink),
		Sales:         service.NewSaleService(gormDB, gate, sink),
		Dealerships:   service.NewDealershipService(gormDB, gate, sink),
		Forum:         service.NewForumService(gormDB, gate, sink),
		Activity:      service.NewActivityService(gormDB, gate),
		CORSOrigins:   appCfg.CORSOrigins,
		AuthRateLimit: appCfg.AuthRateLimit,
	})

	// 5. gRPC health for orchestrators.
	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthSrv)
	reflection.Register(grpcServer)
	healthSrv.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", appCfg.GRPCAddr)
	if err != nil {
		zl.Fatal("listen", zap.String("addr", appCfg.GRPCAddr), zap.Error(err))
	}
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			zl.Error("grpc serve", zap.Error(err))
		}
	}()

	// 6. HTTP.
	go func() {
		zl.Info("http server listening", zap.String("addr", appCfg.HTTPAddr))
		if err := e.Start(appCfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("http serve", zap.Error(err))
		}
	}()
	zl.Info("grpc health listening", zap.String("addr", appCfg.GRPCAddr))

	// 7. Graceful shutdown on signal.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zl.Info("shutting down")
	healthSrv.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		zl.Warn("http shutdown", zap.Error(err))
	}
	hub.CloseAll()
	if err := sink.Close(ctx); err != nil {
		zl.Warn("activity sink drain", zap.Error(err))
	}
	if pub != nil {
		if err := pub.Close(); err != nil {
			zl.Warn("rabbitmq close", zap.Error(err))
		}
	}
	grpcServer.GracefulStop()
}
