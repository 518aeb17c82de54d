package main

import (
	"context"
	"errors"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fadilmartias/job-matcher/internal/config"
	"github.com/fadilmartias/job-matcher/internal/domain/fiber/handler"
	"github.com/fadilmartias/job-matcher/internal/middleware"
	"github.com/fadilmartias/job-matcher/internal/util"
)

const (
	shutdownTimeout = 30 * time.Second
	sweepInterval   = 10 * time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the task workers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(parent context.Context) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := wire(ctx, log)
	if err != nil {
		log.Error("wiring dependencies", zap.Error(err))
		return err
	}
	defer d.close()

	d.pool.Start(ctx)
	go monitor(ctx, d)

	appConfig := config.LoadAppConfig()
	app := newFiberApp(appConfig, log)
	handler.NewMatchingHandler(d.pool, d.applications, d.matching, d.insight, d.search).RegisterRoutes(app)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server running", zap.String("port", appConfig.Port))
		errCh <- app.Listen(appConfig.Port)
	}()

	select {
	case err = <-errCh:
		log.Error("server stopped", zap.Error(err))
	case <-ctx.Done():
		log.Info("shutdown requested")
	}

	if serr := app.ShutdownWithTimeout(shutdownTimeout); serr != nil {
		log.Warn("http shutdown", zap.Error(serr))
	}
	d.pool.Stop()
	return err
}

func newFiberApp(appConfig *config.AppConfig, log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: appConfig.Name,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return util.ErrorResponse(c, util.ErrorResponseFormat{Code: code, Message: err.Error()}, err)
		},
	})
	app.Use(middleware.RequestLogger(log.Named("http")))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: !appConfig.IsProduction(),
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(pprof.New(pprof.Config{
		Next: func(c *fiber.Ctx) bool {
			return appConfig.IsProduction()
		},
	}))
	app.Use(healthcheck.New())
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.RateLimiter(50, 1*time.Minute))
	return app
}

// monitor logs runtime stats and sweeps resume temp files left behind by
// killed tasks.
func monitor(ctx context.Context, d *deps) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := d.fetcher.SweepStale(time.Hour)
			d.log.Info("runtime stats",
				zap.Int("goroutines", runtime.NumGoroutine()),
				zap.Int("stale_resume_files_removed", removed))
		}
	}
}
