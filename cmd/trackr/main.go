package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/trackr-hr/trackr/cmd/trackr/cli"
	"github.com/trackr-hr/trackr/internal/app"
	"github.com/trackr-hr/trackr/internal/auth"
	"github.com/trackr-hr/trackr/internal/expenses"
	"github.com/trackr-hr/trackr/internal/observability"
	"github.com/trackr-hr/trackr/internal/platform/cache"
	"github.com/trackr-hr/trackr/internal/platform/db"
	"github.com/trackr-hr/trackr/internal/rbac"
	"github.com/trackr-hr/trackr/internal/shared"
	"github.com/trackr-hr/trackr/internal/view"
	"github.com/trackr-hr/trackr/jobs"
	"github.com/trackr-hr/trackr/report"
)

const usage = `usage: trackr [command]

commands:
  serve                      run the HTTP API (default)
  jobs remind [-date D]      enqueue a work time reminder run
  jobs stats [-json]         print default queue statistics
  jobs scheduled [-size N]   list scheduled tasks
  hash-password PASSWORD     print a bcrypt hash for seeding users`

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	args := os.Args[1:]
	command := "serve"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	switch command {
	case "serve":
		if err := serve(ctx); err != nil {
			slog.Default().Error("serve", slog.Any("error", err))
			os.Exit(1)
		}
	case "jobs":
		os.Exit(runJobs(ctx, args))
	case "hash-password":
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		hash, err := auth.HashPassword(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "hash-password: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(hash)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
}

func serve(ctx context.Context) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns, MaxConnLifetime: cfg.PGMaxConnLifetime})
	if err != nil {
		return err
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, shared.SessionOptions{
		CookieName: "trackr_session",
		Secret:     cfg.SessionSecret,
		TTL:        cfg.SessionTTL,
		Secure:     cfg.IsProduction(),
	})
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	rbacService := rbac.NewService(dbpool)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}

	authService := auth.NewService(auth.NewRepository(dbpool))
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	reportClient := report.NewClient(cfg.GotenbergURL)
	exporter := expenses.NewExporter(report.NewRenderer(templates, reportClient))
	expensesService := expenses.NewService(expenses.NewRepository(dbpool), exporter)
	expensesHandler := expenses.NewHandler(logger, expensesService, rbacService, rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		AuthHandler:        authHandler,
		ExpensesHandler:    expensesHandler,
		PermissionsHandler: rbac.NewPermissionsHandler(logger, rbacService, rbacMiddleware),
		ReportHandler:      report.NewHandler(reportClient, logger),
		JobHandler:         jobs.NewHandler(inspector, logger),
		Metrics:            observability.NewMetrics(),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func runJobs(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, usage)
		return 2
	}
	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}

	fs := flag.NewFlagSet("jobs "+args[0], flag.ContinueOnError)
	date := fs.String("date", "", "pin the reminder to a day (YYYY-MM-DD)")
	asJSON := fs.Bool("json", false, "print JSON output")
	size := fs.Int("size", 10, "number of scheduled tasks to list")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	jobsCLI := cli.NewJobsCLI(cfg.RedisAddr)
	defer func() { _ = jobsCLI.Close() }()

	opts := cli.JobsOptions{Date: *date, JSONOutput: *asJSON}
	switch args[0] {
	case "remind":
		return jobsCLI.RemindCommand(ctx, opts)
	case "stats":
		return jobsCLI.StatsCommand(ctx, opts)
	case "scheduled":
		return jobsCLI.ScheduledCommand(ctx, *size, opts)
	default:
		fmt.Fprintln(os.Stderr, usage)
		return 2
	}
}
