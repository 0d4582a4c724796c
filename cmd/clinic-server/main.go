package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinic/clinic/internal/config"
	"github.com/clinic/clinic/internal/domain/billing"
	"github.com/clinic/clinic/internal/domain/identity"
	"github.com/clinic/clinic/internal/domain/inventory"
	"github.com/clinic/clinic/internal/domain/ledger"
	"github.com/clinic/clinic/internal/domain/patient"
	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/internal/platform/events"
	"github.com/clinic/clinic/internal/platform/middleware"
)

// StaffDirAdapter adapts the identity service to the ledger.StaffDirectory
// interface, avoiding a direct import between the ledger and identity
// packages. Deactivated accounts resolve as missing, so nothing new can be
// recorded against them.
type StaffDirAdapter struct {
	users *identity.Service
}

// NewStaffDirAdapter creates a new adapter.
func NewStaffDirAdapter(users *identity.Service) *StaffDirAdapter {
	return &StaffDirAdapter{users: users}
}

// RoleOf implements ledger.StaffDirectory.
func (a *StaffDirAdapter) RoleOf(ctx context.Context, id uuid.UUID) (auth.Role, error) {
	u, err := a.users.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if !u.Active() {
		return "", apperr.New(apperr.KindNotFound, "user not found")
	}
	return u.Role, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinic management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the clinic API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
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
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
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
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed baseline accounts and starter inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				return fmt.Errorf("--password is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
			userSvc := identity.NewService(identity.NewRepoPG(pool), []byte(cfg.JWTSecret), cfg.TokenDuration(), cfg.BcryptCost)
			invSvc := inventory.NewService(inventory.NewRepoPG(pool), nil, logger)

			accounts := []struct {
				email string
				role  auth.Role
				name  string
			}{
				{"superadmin@clinic.local", auth.RoleSuperadmin, "Super Admin"},
				{"doctor@clinic.local", auth.RoleDoctor, "Default Doctor"},
				{"lab@clinic.local", auth.RoleLab, "Default Lab Admin"},
				{"pharmacist@clinic.local", auth.RolePharmacist, "Default Pharmacist"},
				{"accountant@clinic.local", auth.RoleAccountant, "Default Accountant"},
				{"staff@clinic.local", auth.RoleStaff, "Default Staff"},
			}
			for _, a := range accounts {
				u, created, err := userSvc.Provision(ctx, a.email, password, a.role, a.name)
				if err != nil {
					return fmt.Errorf("seed user %s: %w", a.email, err)
				}
				if created {
					fmt.Printf("created %-20s %s\n", a.role, u.Email)
				} else {
					fmt.Printf("exists  %-20s %s\n", a.role, u.Email)
				}
			}

			medicines := []struct {
				name  string
				stock int
				price int64
			}{
				{"Paracetamol 500mg", 200, 300},
				{"Amoxicillin 250mg", 100, 1200},
				{"Ibuprofen 400mg", 150, 450},
			}
			for _, m := range medicines {
				med, created, err := invSvc.AddMedicine(ctx, m.name, m.stock, m.price)
				if err != nil {
					return fmt.Errorf("seed medicine %s: %w", m.name, err)
				}
				if created {
					fmt.Printf("created medicine %s (stock %d)\n", med.Name, med.Stock)
				} else {
					fmt.Printf("exists  medicine %s\n", med.Name)
				}
			}
			return nil
		},
	}
	cmd.Flags().String("password", "", "Password for all seeded accounts")
	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Redis is optional; without it rate limiting passes everything through.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	}

	publisher := events.NewPublisher(cfg.AMQPURL, logger)
	if publisher.Enabled() {
		logger.Info().Msg("event publishing enabled")
	}

	transactor := db.NewTransactor(pool)
	secret := []byte(cfg.JWTSecret)

	// Domain services
	userSvc := identity.NewService(identity.NewRepoPG(pool), secret, cfg.TokenDuration(), cfg.BcryptCost)
	patientSvc := patient.NewService(patient.NewRepoPG(pool))
	invSvc := inventory.NewService(inventory.NewRepoPG(pool), publisher, logger)
	staffDir := NewStaffDirAdapter(userSvc)
	ledgerSvc := ledger.NewService(
		ledger.NewAppointmentRepoPG(pool),
		ledger.NewPrescriptionRepoPG(pool),
		ledger.NewLabReportRepoPG(pool),
		patientSvc, staffDir, transactor, publisher, logger)
	billingSvc := billing.NewService(billing.NewRepoPG(pool), patientSvc, invSvc, transactor, publisher, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// API groups: /auth is public, /api/v1 requires a bearer token.
	public := e.Group("/auth")
	public.Use(middleware.RateLimit(redisClient, cfg.RateLimitRPM, logger))

	apiV1 := e.Group("/api/v1")
	apiV1.Use(auth.Middleware(secret))
	apiV1.Use(middleware.RateLimit(redisClient, cfg.RateLimitRPM, logger))

	identity.NewHandler(userSvc).RegisterRoutes(public, apiV1)
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)
	ledger.NewHandler(ledgerSvc).RegisterRoutes(apiV1)
	inventory.NewHandler(invSvc).RegisterRoutes(apiV1)
	billing.NewHandler(billingSvc).RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
