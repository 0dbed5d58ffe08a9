package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/taskflow/api/handler"
	"github.com/fastygo/taskflow/internal/config"
	"github.com/fastygo/taskflow/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/taskflow/internal/infrastructure/postgres"
	"github.com/fastygo/taskflow/internal/middleware"
	"github.com/fastygo/taskflow/internal/router"
	"github.com/fastygo/taskflow/internal/security/google"
	"github.com/fastygo/taskflow/internal/security/token"
	"github.com/fastygo/taskflow/internal/services/lifecycle"
	"github.com/fastygo/taskflow/pkg/httpcontext"
	authUC "github.com/fastygo/taskflow/usecase/auth"
	profileUC "github.com/fastygo/taskflow/usecase/profile"
	taskUC "github.com/fastygo/taskflow/usecase/task"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, zapLogger, err := bootstrap()
			if err != nil {
				return err
			}
			defer zapLogger.Sync() //nolint:errcheck
			return serve(cmd.Context(), cfg, zapLogger)
		},
	}
	return cmd
}

func runMigrations(cfg *config.Config, zapLogger *zap.Logger) error {
	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Error("migrations failed", zap.Error(err))
		return err
	}
	return nil
}

func serve(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	defer func() {
		if err := manager.Shutdown(context.Background()); err != nil {
			zapLogger.Error("graceful shutdown error", zap.Error(err))
		}
	}()

	tokens, err := token.New(cfg.JWT.Secret, cfg.JWT.TTL)
	if err != nil {
		zapLogger.Error("token service", zap.Error(err))
		return err
	}

	if cfg.Migrations.Enabled {
		if err := runMigrations(cfg, zapLogger); err != nil {
			return err
		}
	}

	mon := monitor.New(cfg.Monitor.Interval, zapLogger)

	stores, err := openStores(ctx, cfg, zapLogger, manager, mon)
	if err != nil {
		zapLogger.Error("store unavailable", zap.String("driver", cfg.Store.Driver), zap.Error(err))
		return err
	}

	if err := mon.Start(); err != nil {
		return err
	}
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop(ctx)
		return nil
	})

	var external authUC.IdentityVerifier
	if cfg.Google.ClientID != "" {
		verifier, err := google.NewVerifier(ctx, cfg.Google.ClientID)
		if err != nil {
			zapLogger.Error("google verifier", zap.Error(err))
			return err
		}
		external = verifier
	}

	authUseCase := authUC.New(stores.users, tokens, external, zapLogger)
	profileUseCase := profileUC.New(stores.users, authUseCase, zapLogger)
	taskUseCase := taskUC.New(stores.tasks, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:    apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Profile: apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Task:    apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	r := router.New(handlers, router.Options{
		BasePath:      cfg.HTTP.BasePath,
		GoogleEnabled: external != nil,
	}, middleware.Auth(authUseCase, ctxAdapter, zapLogger))

	server := &fasthttp.Server{
		Handler:      router.Chain(r.Handler, middleware.Recover(zapLogger), middleware.CORS(cfg.HTTP.CORSOrigin)),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	manager.Go("http_server", func() error {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("basePath", cfg.HTTP.BasePath),
			zap.String("store", cfg.Store.Driver),
		)
		return server.ListenAndServe(cfg.Address())
	})
	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	return manager.Wait(ctx)
}
