package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/tom2tomtomtom/traffic-manager/internal/handlers"
	"github.com/tom2tomtomtom/traffic-manager/pkg/middleware"
)

// Router builds the echo instance serving the API, health checks and metrics.
func (a *App) Router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(a.logger)

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: a.config.AllowOrigins,
		AllowMethods: a.config.AllowMethods,
	}))
	e.Use(otelecho.Middleware(a.config.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(a.logger))

	a.health.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	handlers.NewCapacityHandler(a.Capacity).RegisterRoutes(api)
	handlers.NewAssignmentHandler(a.Assignments).RegisterRoutes(api)
	handlers.NewTeamHandler(a.Repositories.People, a.Capacity, a.logger).RegisterRoutes(api)
	handlers.NewProjectHandler(a.Repositories.Projects, a.Projects, a.Assignments).RegisterRoutes(api)
	handlers.NewTranscriptHandler(a.Transcripts).RegisterRoutes(api)

	return e
}

// Serve listens until ctx is cancelled, then drains in-flight requests within ShutdownTimeout.
func (a *App) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           a.Router(),
		ReadTimeout:       time.Duration(a.config.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(a.config.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(a.config.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(a.config.ReadHeaderTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    a.config.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.WithField("addr", server.Addr).Infof("Server listening on %s", server.Addr)
		errCh <- server.ListenAndServe()
	}()
	a.health.SetReady(true)

	select {
	case err := <-errCh:
		a.health.SetReady(false)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server")
	a.health.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.ShutdownTimeout)
	defer cancel()

	shutdownErr := server.Shutdown(shutdownCtx)
	if serveErr := <-errCh; serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", serveErr)
	}
	if shutdownErr != nil {
		return fmt.Errorf("shutdown: %w", shutdownErr)
	}

	a.logger.Info("Server stopped")
	return nil
}
