package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/county-health/internal/config"
	"github.com/iliyamo/county-health/internal/database"
	"github.com/iliyamo/county-health/internal/handler"
	"github.com/iliyamo/county-health/internal/logging"
	"github.com/iliyamo/county-health/internal/metrics"
	"github.com/iliyamo/county-health/internal/middleware"
	"github.com/iliyamo/county-health/internal/queue"
	"github.com/iliyamo/county-health/internal/repository"
	"github.com/iliyamo/county-health/internal/router"
	"github.com/iliyamo/county-health/internal/service"
)

func main() {
	cfg, err := config.Load() // .env + environment
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	// First run: populate missing tables from the configured CSV files.
	if _, err := service.Bootstrap(ctx, cfg.DBPath, []service.BootstrapSource{
		{Table: cfg.ZipTable, Path: cfg.BootstrapZip},
		{Table: cfg.HealthTable, Path: cfg.BootstrapHealth},
	}, log); err != nil {
		return err
	}

	db, err := database.Open(cfg.DBPath, true)
	if err != nil {
		return err
	}
	defer db.Close()

	repo, err := repository.NewCountyHealthRepo(db, "sqlite", cfg.ZipTable, cfg.HealthTable)
	if err != nil {
		return err
	}
	for _, t := range []string{cfg.ZipTable, cfg.HealthTable} {
		ok, err := database.TableExists(ctx, db, t)
		if err != nil {
			return err
		}
		if !ok {
			log.WithField("table", t).Warn("table missing; lookups will fail until it is loaded")
		}
	}

	rdb, err := config.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.WithError(err).Warn("redis unavailable; response cache off, rate limiting in process")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	svc := service.NewCountyDataService(repo, log)
	public := router.NewPublic(router.PublicDeps{
		Log:       log,
		Redis:     rdb,
		Cache:     cfg.Cache,
		RateLimit: cfg.RateLimit,
	}, &handler.CountyDataHandler{Service: svc, Log: log})

	servers := []namedServer{{"public", ":" + cfg.Port, public}}
	if cfg.OpsPort != "" {
		servers = append(servers, namedServer{"ops", ":" + cfg.OpsPort, router.NewOps(log, repo)})
	}

	if cfg.AMQPURL != "" && rdb != nil && cfg.Cache.Enabled {
		go func() {
			err := queue.StartDatasetConsumer(ctx, cfg.AMQPURL, log, func(ctx context.Context, ev queue.DatasetLoadedEvent) error {
				metrics.RecordDatasetLoaded(ev.Table)
				n, err := middleware.InvalidateCache(ctx, rdb, cfg.Cache.Prefix)
				if err != nil {
					return err
				}
				log.WithFields(logrus.Fields{"table": ev.Table, "rows": ev.Rows, "evicted": n}).Info("dataset reloaded; cache invalidated")
				return nil
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("dataset consumer stopped")
			}
		}()
	}

	errc := make(chan error, len(servers))
	for _, s := range servers {
		log.WithFields(logrus.Fields{"listener": s.name, "addr": s.addr, "env": cfg.Env}).Info("listening")
		go func(s namedServer) {
			if err := s.e.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
		}(s)
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case runErr = <-errc:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	for _, s := range servers {
		if err := s.e.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).WithField("listener", s.name).Warn("shutdown")
		}
	}
	return runErr
}

type namedServer struct {
	name string
	addr string
	e    *echo.Echo
}
