package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gnps/groupselector/cmd/groupselector/handlers"
	kcf "github.com/gnps/groupselector/pkg/configs/frontend"
	"github.com/gnps/groupselector/pkg/dashboard"
	"github.com/gnps/groupselector/pkg/echoutil"
	"github.com/gnps/groupselector/pkg/filewatch"
	"github.com/gnps/groupselector/pkg/gnps"
	"github.com/gnps/groupselector/pkg/metrics"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand(g *globals) *cobra.Command {
	var port, loglevel string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the dashboard",
		Long: `Serves the dashboard page, its JSON API under /api and metrics at /metrics.

When the configuration file is modified, the server shuts down gracefully to
be restarted by its supervisor.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := g.config()
			if err != nil {
				return err
			}
			if port != "" {
				conf.Server.Port = port
			}
			if loglevel != "" {
				conf.Server.LogLevel = loglevel
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if g.configPath != "" {
				wctx, cancel, err := filewatch.UntilModified(ctx, g.configPath)
				if err != nil {
					return err
				}
				defer cancel()
				ctx = wctx
			}

			e, err := newServer(conf, g.logger)
			if err != nil {
				return err
			}
			return serve(ctx, e, ":"+conf.Server.Port, g.logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&port, "port", "", "port to listen. overrides server.port of the configuration")
	flags.StringVar(
		&loglevel, "loglevel", "",
		"log level of echo. debug|info|warn|error|off. overrides server.loglevel of the configuration",
	)
	return cmd
}

// newServer builds the echo server with every route registered.
func newServer(conf kcf.Config, logger *zap.Logger) (*echo.Echo, error) {
	m := metrics.New()
	client, err := gnps.NewClient(
		conf.GNPS.ApiRoot,
		gnps.WithTimeout(conf.GNPS.Timeout),
		gnps.WithObserver(m),
	)
	if err != nil {
		return nil, err
	}
	o := dashboard.New(
		client,
		dashboard.WithDefaultTask(conf.DefaultTask),
		dashboard.WithViewerRoot(conf.Viewer.Root),
		dashboard.WithLogger(logger),
	)
	renderer, err := handlers.NewRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer

	// set log
	echoutil.SetLevel(e, conf.Server.LogLevel)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		e.DefaultHTTPErrorHandler(err, c)
		echoutil.Logger(c).Error("request failed", zap.Error(err))
	}
	e.Use(middleware.Recover())
	e.Use(echoutil.LogHandler(logger))

	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	{
		task := "task"
		api := e.Group("/api/tasks/:" + task)
		api.GET("/columns", handlers.GetColumnsHandler(client, task))
		api.GET("/terms", handlers.GetTermsHandler(client, task))
		api.GET("/groups", handlers.GetGroupHandler(client, task))
		api.GET("/features", handlers.GetFeaturesHandler(client, task))
		api.GET("/link", handlers.GetLinkHandler(o, task))
	}

	{
		page := handlers.PageHandler(o)
		e.GET("/", page)
		e.GET("/:task", page)
	}

	for _, r := range e.Routes() {
		logger.Debug("route registered", zap.String("method", r.Method), zap.String("path", r.Path))
	}
	return e, nil
}

// serve runs e until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, e *echo.Echo, addr string, logger *zap.Logger) error {
	errs := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr))
		errs <- e.Start(addr)
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	var modified *filewatch.ErrModified
	if cause := context.Cause(ctx); errors.As(cause, &modified) {
		logger.Info("configuration file is updated. quit to restart server.", zap.Error(cause))
	} else {
		logger.Info("shutting down", zap.Error(cause))
	}

	graceful, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(graceful); err != nil {
		return err
	}
	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
