package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	appAuth "github.com/admissions/portal/internal/app/auth"
	appControllers "github.com/admissions/portal/internal/app/controllers"
	appMigrations "github.com/admissions/portal/internal/app/migrations"
	appModels "github.com/admissions/portal/internal/app/models"
	appRepos "github.com/admissions/portal/internal/app/repositories"
	appRoutes "github.com/admissions/portal/internal/app/routes"
	appServices "github.com/admissions/portal/internal/app/services"
	"github.com/admissions/portal/internal/config"
	"github.com/admissions/portal/internal/db"
	appMiddleware "github.com/admissions/portal/internal/middleware"
	pkgAuth "github.com/admissions/portal/internal/pkg/auth"
	"github.com/admissions/portal/internal/pkg/email"
	"github.com/admissions/portal/internal/pkg/filestorage"
	"github.com/admissions/portal/internal/pkg/helpers"
	"github.com/admissions/portal/internal/pkg/logger"
	"github.com/admissions/portal/internal/pkg/metrics"
	"github.com/admissions/portal/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos       *appRepos.Repositories
	JWTService  *pkgAuth.JWTService
	FileStorage *filestorage.LocalStorage
	Notifier    *email.AsyncNotifier
	Metrics     *metrics.Metrics
	Redis       *redis.Client
	Limiter     appMiddleware.Limiter

	AuthService        *appServices.AuthService
	CatalogService     appServices.CatalogService
	ProfileService     appServices.ProfileService
	ApplicationService appServices.ApplicationService
	DocumentService    appServices.DocumentService
	ReviewService      appServices.ReviewService

	AuthMiddleware *appMiddleware.AuthMiddleware
	Router         *appRoutes.Router
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	lgr := logger.Configure(logger.Config{
		Level:   logLevel,
		Pretty:  strings.ToLower(cfg.Logging.Format) == "text",
		Service: "admissions-api",
	})

	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and seeds reference data.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool
	lgr.Info().Msg("Database connection successfully established.")

	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		dbPool.Close()
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	lgr.Info().Str("path", migrationsDir).Msg("Running database migrations...")
	if err := appMigrations.NewMigrator(dbPool).MigrateFromDirectory(ctx, migrationsDir); err != nil {
		dbPool.Close()
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	if cfg.Database.Seed {
		staff := []seed.StaffAccount{
			{Email: cfg.Seed.AdminEmail, Password: cfg.Seed.AdminPassword, FirstName: "System", LastName: "Administrator", Role: appModels.RoleAdmin},
			{Email: cfg.Seed.CounsellorEmail, Password: cfg.Seed.CounsellorPassword, FirstName: "Admissions", LastName: "Counsellor", Role: appModels.RoleCounsellor},
		}
		if err := seed.CreateDefaultData(ctx, appRepos.NewCatalogRepository(dbPool), appRepos.NewUserRepository(dbPool), staff, lgr); err != nil {
			lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
		}
	}

	return dbPool, nil
}

// SetupRedis connects the rate limiter store. A nil client means limiting runs in-process.
func SetupRedis(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		lgr.Info().Msg("Redis disabled, using in-memory rate limiter")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		lgr.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unreachable, using in-memory rate limiter")
		_ = client.Close()
		return nil
	}

	lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Redis connected for rate limiting")
	return client
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, redisClient *redis.Client, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr, Redis: redisClient}

	deps.Repos = appRepos.NewRepositories(dbPool)
	deps.Metrics = metrics.New()

	var err error
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Storage.Path, strings.TrimRight(cfg.Server.BaseURL, "/"), cfg.SigningKey())
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	deps.Notifier = email.NewAsyncNotifier(email.NewNotifier(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		UseTLS:    cfg.SMTP.Port == 465,
		BaseURL:   cfg.Server.BaseURL,
	}, lgr), lgr)

	if redisClient != nil {
		deps.Limiter = appMiddleware.NewRedisLimiter(redisClient, lgr)
	} else {
		deps.Limiter = appMiddleware.NewMemoryLimiter()
	}

	authorizer := appAuth.NewAuthorizer()

	deps.AuthService = appServices.NewAuthService(deps.Repos.UserRepository, deps.Repos.TokenRepository, deps.JWTService, lgr)
	deps.CatalogService = appServices.NewCatalogService(deps.Repos.CatalogRepository)
	deps.ProfileService = appServices.NewProfileService(deps.Repos.UserRepository, deps.Repos.ProfileRepository, cfg.Lifecycle.ProfileThreshold, lgr)
	deps.ApplicationService = appServices.NewApplicationService(appServices.ApplicationServiceDeps{
		Applications: deps.Repos.ApplicationRepository,
		Catalog:      deps.Repos.CatalogRepository,
		Profiles:     deps.Repos.ProfileRepository,
		Users:        deps.Repos.UserRepository,
		Scorer:       deps.ProfileService,
		Authorizer:   authorizer,
		Notifier:     deps.Notifier,
		Metrics:      deps.Metrics,
		Logger:       lgr,
	})
	deps.DocumentService = appServices.NewDocumentService(
		deps.Repos.ApplicationRepository,
		deps.Repos.DocumentRepository,
		deps.FileStorage,
		appServices.DocumentServiceConfig{
			MaxUploadBytes: cfg.MaxUploadBytes(),
			URLTTL:         helpers.ParseDuration(cfg.Storage.URLTTL, 15*time.Minute),
		},
		deps.Metrics,
		lgr,
	)
	deps.ReviewService = appServices.NewReviewService(deps.ApplicationService, deps.Repos.ApplicationRepository, deps.Repos.UserRepository, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	window := helpers.ParseDuration(cfg.Redis.Window, time.Minute)
	deps.Router = &appRoutes.Router{
		Auth:           appControllers.NewAuthController(deps.AuthService, lgr),
		Catalog:        appControllers.NewCatalogController(deps.CatalogService),
		Profile:        appControllers.NewProfileController(deps.ProfileService, lgr),
		Applications:   appControllers.NewApplicationController(deps.ApplicationService, lgr),
		Documents:      appControllers.NewDocumentController(deps.DocumentService, lgr),
		Admin:          appControllers.NewAdminController(deps.ReviewService, lgr),
		Files:          appControllers.NewFileController(deps.FileStorage, lgr),
		AuthMiddleware: deps.AuthMiddleware,
		Limiter:        deps.Limiter,
		SubmitLimit:    appMiddleware.RateLimitRule{Scope: "submit", Limit: cfg.Redis.SubmitLimit, Window: window},
		UploadLimit:    appMiddleware.RateLimitRule{Scope: "upload", Limit: cfg.Redis.UploadLimit, Window: window},
		LoginLimit:     appMiddleware.RateLimitRule{Scope: "login", Limit: cfg.Redis.LoginLimit, Window: window},
		Metrics:        deps.Metrics,
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		appMiddleware.RequestLogger(lgr),
		appMiddleware.RequestMetrics(deps.Metrics),
	)
	router.MaxMultipartMemory = cfg.MaxUploadBytes()

	appRoutes.SetupSwagger(router, strings.TrimPrefix(strings.TrimPrefix(cfg.Server.BaseURL, "https://"), "http://"), "/api/v1")
	appRoutes.SetupRouter(router, deps.Router)

	return router
}
