package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/personnel-api/internal/desktop"
	"github.com/noah-isme/personnel-api/internal/handler"
	"github.com/noah-isme/personnel-api/internal/repository"
	"github.com/noah-isme/personnel-api/internal/service"
	"github.com/noah-isme/personnel-api/pkg/cache"
	"github.com/noah-isme/personnel-api/pkg/config"
	"github.com/noah-isme/personnel-api/pkg/database"
	"github.com/noah-isme/personnel-api/pkg/export"
	"github.com/noah-isme/personnel-api/pkg/logger"
	"github.com/noah-isme/personnel-api/pkg/storage"
)

const (
	modeServer  = "server"
	modeDesktop = "desktop"
)

func serveCommand() *cobra.Command {
	var (
		host string
		port int
		mode string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server, optionally inside a desktop browser window",
		Example: `  personnel serve --host 127.0.0.1 --port 5000 --mode server
  personnel serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if mode != modeServer && mode != modeDesktop {
				return fmt.Errorf("invalid mode %q: expected %s or %s", mode, modeServer, modeDesktop)
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("host") || cfg.Host == "" {
				cfg.Host = host
			}
			if cmd.Flags().Changed("port") || cfg.Port == 0 {
				cfg.Port = port
			}
			return runServe(cmd.Context(), cfg, mode)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "The host to bind the server to")
	cmd.Flags().IntVar(&port, "port", 8080, "The port to run the server on")
	cmd.Flags().StringVar(&mode, "mode", modeDesktop, "The mode to run the app in (server, desktop)")
	return cmd
}

func runServe(parent context.Context, cfg *config.Config, mode string) error {
	if parent == nil {
		parent = context.Background()
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := database.Migrate(parent, db); err != nil {
		return err
	}

	app, cleanup := buildApp(parent, cfg, db, logr)
	defer cleanup()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	srv := &http.Server{Handler: app, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "mode", mode, "database", cfg.Database.Driver)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logr.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	if mode == modeDesktop {
		launcher := desktop.NewLauncher(cfg.Desktop.BrowserPath, logr)
		g.Go(func() error {
			defer stop()
			return launcher.Run(gctx, "http://"+addr)
		})
	}

	return g.Wait()
}

// buildApp wires storage, services and handlers into the gin engine.
func buildApp(ctx context.Context, cfg *config.Config, db *sqlx.DB, logr *zap.Logger) (http.Handler, func()) {
	metrics := service.NewMetricsService()
	gw := repository.NewGateway(db, metrics)

	personRepo := repository.NewPersonRepository(gw)
	itemRepo := repository.NewItemRepository(gw)
	userRepo := repository.NewUserRepository(gw)

	cleanup := func() {}
	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, cache disabled", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(client, logr)
			cacheRepo = repo
			cleanup = func() { _ = repo.Close() }
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cacheRepo != nil)

	folders := storage.NewPersonFolders(cfg.Destination.BasePath, cfg.Destination.Office, cfg.Destination.CreateDirs)
	users := service.NewCurrentUser(userRepo, service.HostUsername(), logr)

	persons := service.NewPersonService(personRepo, folders, users, cacheSvc, metrics,
		service.PaginationOptions{PageSize: cfg.Pagination.PageSize, MaxPageSize: cfg.Pagination.MaxPageSize}, nil, logr)
	items := service.NewItemService(itemRepo, nil, logr)
	dossiers := service.NewDossierService(personRepo, itemRepo, folders, map[string]service.Renderer{
		"csv": export.NewCSVExporter(),
		"pdf": export.NewPDFExporter(cfg.Export.FontPath),
	}, logr)

	router := handler.NewRouter(handler.RouterDeps{
		Config:        cfg,
		Logger:        logr,
		Metrics:       metrics,
		Persons:       handler.NewPersonHandler(persons, dossiers),
		Items:         handler.NewItemHandler(items),
		Observability: handler.NewMetricsHandler(metrics, db),
	})
	return router, cleanup
}
