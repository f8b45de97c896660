package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/yourusername/practice-api/internal/config"
	"github.com/yourusername/practice-api/internal/handler"
	"github.com/yourusername/practice-api/internal/middleware"
	"github.com/yourusername/practice-api/internal/pkg/i18n"
	"github.com/yourusername/practice-api/internal/pkg/logger"
	pgRepo "github.com/yourusername/practice-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/practice-api/internal/repository/redis"
	"github.com/yourusername/practice-api/internal/service"
	"github.com/yourusername/practice-api/internal/service/difficulty"
	"github.com/yourusername/practice-api/internal/service/generation"
	"github.com/yourusername/practice-api/internal/service/retrieval"
	"github.com/yourusername/practice-api/internal/service/similarity"
	"github.com/yourusername/practice-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	appLog, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Printf("Failed to init logger: %v", err)
		os.Exit(1)
	}
	defer appLog.Sync()

	if lang := os.Getenv("APP_LANGUAGE"); lang != "" {
		if err := i18n.Init(lang); err != nil {
			appLog.Warn("[Main] Неизвестный язык, оставлен язык по умолчанию", "lang", lang, "error", err)
		}
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), gin.Mode() == gin.DebugMode)
	if err != nil {
		appLog.Fatal("[Main] Failed to connect to database", "error", err)
	}

	// Применяем миграции
	if err := database.MigrateDB(db, cfg.Database.MigrationsURL(), appLog); err != nil {
		appLog.Fatal("[Main] Failed to migrate database", "error", err)
	}

	// Redis нужен для общего окна сессии и rate limit; без него работаем на одном инстансе
	var (
		redisClient redis.UniversalClient
		cacheRepo   *redisRepo.CacheRepo
	)
	if cfg.UseRedis() {
		redisClient, err = database.NewUniversalRedisClient(cfg.Redis, appLog)
		if err != nil {
			appLog.Fatal("[Main] Failed to connect to Redis", "error", err)
		}
		cacheRepo, err = redisRepo.NewCacheRepo(redisClient)
		if err != nil {
			appLog.Fatal("[Main] Failed to initialize CacheRepo", "error", err)
		}
	}

	// Инициализируем репозитории
	studentRepo := pgRepo.NewStudentRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	curatedRepo := pgRepo.NewCuratedQuestionRepo(db)
	exposureRepo := pgRepo.NewExposureRepo(db)
	difficultyRepo := pgRepo.NewDifficultyRepo(db)

	// Окно сессии: память процесса или Redis
	var window similarity.RecentWindow
	switch cfg.Practice.SessionWindow {
	case "redis":
		window = similarity.NewCacheWindow(cacheRepo, cfg.Practice.SessionWindowSize, cfg.Practice.SessionWindowTTL, appLog)
	default:
		window = similarity.NewMemoryWindow(cfg.Practice.SessionWindowSize, cfg.Practice.SessionWindowTTL)
	}

	guard := similarity.NewGuard(window, exposureRepo, similarity.GuardConfig{
		HistoryDays:  cfg.Practice.HistoryDays,
		HistoryLimit: cfg.Practice.HistoryLimit,
	}, appLog)
	engine := difficulty.NewEngine(exposureRepo, difficultyRepo, difficulty.DefaultConfig(), appLog)
	retriever := retrieval.NewOrchestrator(questionRepo, retrieval.DefaultStrategies(questionRepo, curatedRepo), appLog)

	// Генерация: LLM, если есть ключ, иначе только шаблоны
	templates := generation.NewTemplateGenerator()
	var primary generation.Generator
	if cfg.Generation.Provider == "openai" && cfg.Generation.APIKey != "" {
		openAI, err := generation.NewOpenAIGenerator(generation.OpenAIConfig{
			APIKey:    cfg.Generation.APIKey,
			BaseURL:   cfg.Generation.BaseURL,
			Model:     cfg.Generation.Model,
			MaxTokens: cfg.Generation.MaxTokens,
		})
		if err != nil {
			appLog.Fatal("[Main] Failed to initialize OpenAI generator", "error", err)
		}
		primary = openAI
		appLog.Info("[Main] Генерация через OpenAI", "model", cfg.Generation.Model)
	} else {
		appLog.Info("[Main] Генерация только по шаблонам")
	}
	generator := generation.NewChain(primary, templates, cfg.Generation.Timeout, appLog)

	practiceService := service.NewPracticeService(
		studentRepo, questionRepo, exposureRepo,
		guard, engine, retriever, generator, templates, appLog,
	)
	practiceHandler := handler.NewPracticeHandler(practiceService, appLog)

	// Настраиваем Gin
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(appLog), i18n.Middleware())

	// Без прокси перед сервисом доверяем только локальным адресам
	if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
		appLog.Warn("[Main] Failed to set trusted proxies", "error", err)
	}

	// CORS: только явно разрешённые origin
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept-Language", middleware.RequestIDHeader, "X-Student-ID"},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader, "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	var nextLimit gin.HandlerFunc
	if cacheRepo != nil {
		limiter := middleware.NewRateLimiter(cacheRepo, appLog)
		nextLimit = limiter.LimitByStudent(middleware.PracticeRateLimitConfig(cfg.Practice.RateLimitPerMinute))
	}
	practiceHandler.RegisterRoutes(router.Group("/api"), nextLimit)

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		appLog.Info("[Main] Starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("[Main] Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("[Main] Shutting down server...")

	// Создаем контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("[Main] Server forced to shutdown", "error", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			appLog.Warn("[Main] Error closing Redis client", "error", err)
		}
	}
	if sqlDB, err := database.GetSQLDB(db); err == nil {
		_ = sqlDB.Close()
	}

	appLog.Info("[Main] Server exited properly")
}
