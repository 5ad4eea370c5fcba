package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"studio-system/internal/routes"
	"studio-system/internal/scheduler"
	"studio-system/internal/services"
	apperrors "studio-system/pkg/errors"
	"studio-system/pkg/middleware"
	"studio-system/pkg/service"
	"studio-system/pkg/utils"
	"studio-system/pkg/validation"
)

const shutdownTimeout = 20 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the background scheduler",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	e := newEcho(rt)
	jwtSvc := service.NewJWTService(rt.cfg.JWT.SecretKey, rt.logger.Named("jwt"))
	routes.InitRouter(e, rt.registry, jwtSvc, rt.logger)

	var jobs *scheduler.Scheduler
	if rt.cfg.Scheduler.Enabled {
		jobs, err = newScheduler(rt)
		if err != nil {
			return err
		}
		jobs.Start()
	} else {
		rt.logger.Warn("scheduler disabled, sweep and joker allocation will not run")
	}

	serverErr := make(chan error, 1)
	go func() {
		rt.logger.Info("server started", zap.String("port", rt.cfg.Server.Port))
		if err := e.Start(":" + rt.cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		rt.logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		rt.logger.Error("http shutdown", zap.Error(err))
	}
	if jobs != nil {
		if err := jobs.Stop(shutdownCtx); err != nil {
			rt.logger.Error("scheduler shutdown", zap.Error(err))
		}
	}
	rt.logger.Info("server stopped")
	return nil
}

func newEcho(rt *runtime) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	logger := rt.logger

	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("panic recovered",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)),
			)
			if !c.Response().Committed {
				httpErr := apperrors.NewHttpError(http.StatusInternalServerError, "Internal server error", err, nil)
				utils.ErrorResponse(c, httpErr, logger) //nolint:errcheck
			}
			return err
		},
	}))
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))

	allowed := make(map[string]bool, len(rt.cfg.Server.AllowedOrigins))
	for _, o := range rt.cfg.Server.AllowedOrigins {
		allowed[o] = true
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOriginFunc: func(origin string) (bool, error) {
			return allowed[origin], nil
		},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		ExposeHeaders:    []string{echo.HeaderContentDisposition, echo.HeaderXRequestID},
	}))
	e.Use(middleware.InjectLogger(logger.Named("http")))
	e.Use(echomw.ContextTimeoutWithConfig(echomw.ContextTimeoutConfig{Timeout: rt.cfg.Server.RequestTimeout}))

	e.Validator = validation.New()
	return e
}

func newScheduler(rt *runtime) (*scheduler.Scheduler, error) {
	jobs := scheduler.New(rt.cfg.Scheduler.Location(), 10*time.Minute, rt.logger.Named("scheduler"))

	if err := jobs.Add("sweep", rt.cfg.Scheduler.SweepSpec, sweepJob(rt.registry)); err != nil {
		return nil, err
	}
	if err := jobs.Add("joker-allocation", rt.cfg.Scheduler.JokerAllocationSpec, jokerAllocationJob(rt.registry)); err != nil {
		return nil, err
	}
	for _, name := range []string{"sweep", "joker-allocation"} {
		if next, ok := jobs.Next(name); ok {
			rt.logger.Info("job scheduled", zap.String("job", name), zap.Time("next", next))
		}
	}
	return jobs, nil
}

func sweepJob(registry *services.Registry) scheduler.Job {
	return func(ctx context.Context) error {
		_, err := registry.Sweep.Run(ctx)
		return err
	}
}

func jokerAllocationJob(registry *services.Registry) scheduler.Job {
	return func(ctx context.Context) error {
		_, err := registry.Jokers.AllocateMonth(ctx, utils.MonthStart(registry.Calendar.Today()))
		return err
	}
}
