package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/antenatal/internal/config"
	"github.com/ehr/antenatal/internal/domain/admin"
	"github.com/ehr/antenatal/internal/domain/identity"
	"github.com/ehr/antenatal/internal/domain/obstetrics"
	"github.com/ehr/antenatal/internal/domain/prenatal"
	"github.com/ehr/antenatal/internal/domain/scheduling"
	"github.com/ehr/antenatal/internal/platform/auth"
	"github.com/ehr/antenatal/internal/platform/db"
	"github.com/ehr/antenatal/internal/platform/middleware"
	"github.com/ehr/antenatal/internal/platform/notification"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "antenatal-server",
		Short: "Prenatal visit scheduling API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(planCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func openPool(ctx context.Context, cfg *config.Config) (*db.Migrator, func(), error) {
	pool, err := db.NewPool(ctx, db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	if err != nil {
		return nil, nil, err
	}
	return db.NewMigrator(pool, cfg.MigrationsDir), pool.Close, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
				cfg.MigrationsDir = dir
			}

			ctx := context.Background()
			migrator, closePool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer closePool()

			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (overrides MIGRATIONS_DIR)")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
				cfg.MigrationsDir = dir
			}

			ctx := context.Background()
			migrator, closePool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer closePool()

			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory (overrides MIGRATIONS_DIR)")
	cmd.AddCommand(statusCmd)

	return cmd
}

// planCmd prints the recommended visits for an LMP without touching the
// database. Booked appointments are not reconciled.
func planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the recommended antenatal visits for an LMP",
		RunE: func(cmd *cobra.Command, args []string) error {
			lmpFlag, _ := cmd.Flags().GetString("lmp")
			nowFlag, _ := cmd.Flags().GetString("now")
			highRisk, _ := cmd.Flags().GetBool("high-risk")

			plan, err := offlinePlan(lmpFlag, nowFlag, highRisk, time.Now())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(plan)
		},
	}
	cmd.Flags().String("lmp", "", "Last menstrual period, YYYY-MM-DD")
	cmd.Flags().String("now", "", "Reference date, YYYY-MM-DD (default today)")
	cmd.Flags().Bool("high-risk", false, "Plan the high-risk cadence")
	cmd.MarkFlagRequired("lmp")
	return cmd
}

type planOutput struct {
	GestationalWeek int                         `json:"gestational_week"`
	GestationalDay  int                         `json:"gestational_day"`
	EDD             string                      `json:"edd"`
	HighRisk        bool                        `json:"high_risk"`
	Checkpoints     []*prenatal.VisitCheckpoint `json:"checkpoints"`
	Alerts          []string                    `json:"alerts"`
}

func offlinePlan(lmpFlag, nowFlag string, highRisk bool, today time.Time) (*planOutput, error) {
	lmp, err := time.Parse("2006-01-02", lmpFlag)
	if err != nil {
		return nil, fmt.Errorf("--lmp must be YYYY-MM-DD: %w", err)
	}
	now := today
	if nowFlag != "" {
		if now, err = time.Parse("2006-01-02", nowFlag); err != nil {
			return nil, fmt.Errorf("--now must be YYYY-MM-DD: %w", err)
		}
	}

	ga, err := prenatal.CalculateGestationalAge(lmp, now)
	if err != nil {
		return nil, err
	}
	checkpoints, alerts := prenatal.PlanCheckpoints(prenatal.PregnancyContext{LMP: lmp, HighRisk: highRisk, Now: now}, ga.Weeks)
	if alerts == nil {
		alerts = []string{}
	}
	return &planOutput{
		GestationalWeek: ga.Weeks,
		GestationalDay:  ga.Days,
		EDD:             ga.EDD.Format("2006-01-02"),
		HighRisk:        highRisk,
		Checkpoints:     checkpoints,
		Alerts:          alerts,
	}, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger := newLogger(cfg)

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	healthChecks := []db.Check{db.PoolCheck(pool)}

	// Notification queue
	var queue notification.Queue = notification.NewMemoryQueue()
	if cfg.NotificationBackend == config.BackendRedis {
		client, err := notification.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer client.Close()
		queue = notification.NewRedisQueue(client, "")
		healthChecks = append(healthChecks, db.Check{
			Name: "redis",
			Ping: func(ctx context.Context) error { return client.Ping(ctx).Err() },
		})
		logger.Info().Msg("using redis notification queue")
	}
	store := notification.NewStore()
	notifyManager := notification.NewManager(queue, notification.NewTemplateEngine(), store)
	sender := notification.NewBreakerSender(notification.NewLogSender(logger), notification.DefaultBreakerSettings(), logger)
	dispatcher := notification.NewDispatcher(queue, sender, store, logger)
	dispatcher.Interval = cfg.ReminderDispatchInterval
	dispatcher.BatchSize = cfg.ReminderBatchSize

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", db.HealthHandler(healthChecks...))

	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware())
	}
	if !cfg.IsDev() || cfg.AuthSigningKey != "" || cfg.AuthJWKSURL != "" {
		jwtCfg := auth.JWTConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
		}
		if cfg.AuthSigningKey != "" {
			jwtCfg.SigningKey = []byte(cfg.AuthSigningKey)
		}
		apiV1.Use(optionalInDev(cfg.IsDev(), auth.JWTMiddleware(jwtCfg)))
	}

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Domain services
	identitySvc := identity.NewService(identity.NewPatientRepo(pool), identity.NewPractitionerRepo(pool))
	adminSvc := admin.NewService(admin.NewOrganizationRepo(pool))
	schedulingSvc := scheduling.NewService(scheduling.NewAppointmentRepoPG(pool))
	pregnancySvc := obstetrics.NewService(obstetrics.NewPregnancyRepoPG(pool))

	appointments := NewAppointmentAdapter(schedulingSvc)
	engine := prenatal.NewEngine(
		NewDirectoryAdapter(identitySvc, adminSvc),
		appointments,
		appointments,
		NewNotifierAdapter(notifyManager),
		prenatal.WithLocation(cfg.Location()),
		prenatal.WithLogger(logger.With().Str("component", "prenatal").Logger()),
	)

	identity.NewHandler(identitySvc).RegisterRoutes(apiV1)
	admin.NewHandler(adminSvc).RegisterRoutes(apiV1)
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(apiV1)
	obstetrics.NewHandler(pregnancySvc, engine).RegisterRoutes(apiV1)
	prenatal.NewHandler(engine).RegisterRoutes(apiV1)
	notification.NewHandler(store).RegisterRoutes(apiV1.Group("", auth.RequireRole("admin")))

	// Reminder delivery
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()
	go dispatcher.Start(dispatchCtx)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	stopDispatch()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// optionalInDev skips mw for requests the dev middleware already
// authenticated, so development servers accept both tokens and bare
// requests.
func optionalInDev(dev bool, mw echo.MiddlewareFunc) echo.MiddlewareFunc {
	if !dev {
		return mw
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		withAuth := mw(next)
		return func(c echo.Context) error {
			if _, ok := auth.ActorFromContext(c.Request().Context()); ok {
				return next(c)
			}
			return withAuth(c)
		}
	}
}
