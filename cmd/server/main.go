package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Skufu/symptomcheck/internal/analysis"
	"github.com/Skufu/symptomcheck/internal/analysis/anthropic"
	"github.com/Skufu/symptomcheck/internal/analysis/gemini"
	"github.com/Skufu/symptomcheck/internal/analysis/groq"
	"github.com/Skufu/symptomcheck/internal/service"
	"github.com/Skufu/symptomcheck/internal/store"
	"github.com/Skufu/symptomcheck/internal/store/memory"
	"github.com/Skufu/symptomcheck/internal/store/postgres"
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Port        string
	DatabaseURL string
	EnableDB    bool

	ModelProvider  string
	ModelAPIKey    string
	ModelName      string
	ModelBaseURL   string
	ModelTimeout   time.Duration
	AnalysisStrict bool

	SymptomsMaxLength int
	DedupeWindow      time.Duration

	LogLevel  slog.Level
	LogFormat string
}

var providerKeys = map[string]string{
	"groq":      "GROQ_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

func main() {
	gin.SetMode(getEnv("GIN_MODE", "release"))

	cfg, err := loadConfig()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg, os.Stdout)

	ctx := context.Background()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("store initialization failed", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		logger.Error("model client initialization failed", "error", err)
		os.Exit(1)
	}
	if c, ok := gen.(io.Closer); ok {
		defer c.Close()
	}

	gw := analysis.NewGateway(gen,
		analysis.WithTimeout(cfg.ModelTimeout),
		analysis.WithStrict(cfg.AnalysisStrict),
	)

	svc := service.New(gw, st, logger, service.Config{
		MaxLength:    cfg.SymptomsMaxLength,
		DedupeWindow: cfg.DedupeWindow,
	})

	var db HealthChecker
	if cfg.EnableDB {
		db = st
	}

	staticRoot := detectStaticRoot()
	router := setupRouter(svc, db, staticRoot, logger)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// model calls have no budget of their own, so the write side stays open
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("server listening",
		slog.String("port", cfg.Port),
		slog.String("provider", cfg.ModelProvider),
		slog.Bool("db", cfg.EnableDB),
	)
	waitForShutdown(server, logger)
}

func loadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		EnableDB:      strings.EqualFold(getEnv("ENABLE_DB", "false"), "true"),
		ModelProvider: strings.ToLower(getEnv("MODEL_PROVIDER", "groq")),
		ModelName:     os.Getenv("MODEL_NAME"),
		ModelBaseURL:  os.Getenv("MODEL_BASE_URL"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
	}

	if cfg.EnableDB && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when ENABLE_DB=true")
	}

	keyVar, ok := providerKeys[cfg.ModelProvider]
	if !ok {
		return nil, fmt.Errorf("MODEL_PROVIDER: unsupported provider %q", cfg.ModelProvider)
	}
	cfg.ModelAPIKey = os.Getenv(keyVar)
	if cfg.ModelAPIKey == "" {
		return nil, fmt.Errorf("%s is required when MODEL_PROVIDER=%s", keyVar, cfg.ModelProvider)
	}

	var err error
	if cfg.ModelTimeout, err = getEnvDuration("MODEL_TIMEOUT", 0); err != nil {
		return nil, err
	}
	if cfg.DedupeWindow, err = getEnvDuration("SUBMISSION_DEDUPE_WINDOW", 0); err != nil {
		return nil, err
	}
	if cfg.SymptomsMaxLength, err = getEnvInt("SYMPTOMS_MAX_LENGTH", service.DefaultMaxLength); err != nil {
		return nil, err
	}
	cfg.AnalysisStrict = strings.EqualFold(getEnv("ANALYSIS_STRICT", "false"), "true")

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("LOG_FORMAT: unsupported format %q", cfg.LogFormat)
	}

	return cfg, nil
}

func setupLogger(cfg *Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func openStore(ctx context.Context, cfg *Config, logger *slog.Logger) (store.Store, error) {
	if !cfg.EnableDB {
		logger.Warn("ENABLE_DB=false, history is kept in memory only")
		return memory.NewStore(), nil
	}
	st, err := postgres.Connect(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func newGenerator(ctx context.Context, cfg *Config) (analysis.Generator, error) {
	opts := []analysis.Option{
		analysis.WithApiKey(cfg.ModelAPIKey),
		analysis.WithModel(cfg.ModelName),
		analysis.WithBaseURL(cfg.ModelBaseURL),
		analysis.WithContext(ctx),
	}

	switch cfg.ModelProvider {
	case "groq":
		return groq.NewGenerator(opts...), nil
	case "anthropic":
		return anthropic.NewGenerator(opts...), nil
	case "gemini":
		return gemini.NewGenerator(opts...)
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.ModelProvider)
	}
}

func setupRouter(svc *service.Service, db HealthChecker, staticRoot string, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		requestLogger(logger),
		gin.Recovery(),
		metricsMiddleware(),
		limitBodySize(1<<20), // 1MB max body
		cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}),
	)

	// Presentation files, when a built frontend sits next to the binary.
	router.Static("/static", staticRoot)
	router.StaticFile("/", filepath.Join(staticRoot, "index.html"))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/readyz", func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "disabled"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"db":     fmt.Sprintf("unhealthy: %v", err),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "ok"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := &symptomHandler{svc: svc, logger: logger}
	router.POST("/api/symptoms", h.submit)
	router.GET("/api/symptoms", h.history)

	return router
}

func waitForShutdown(server *http.Server, logger *slog.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: invalid non-negative integer %q", key, val)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, val)
	}
	return d, nil
}

func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func detectStaticRoot() string {
	startDir, err := os.Getwd()
	if err != nil {
		return "."
	}

	candidates := []string{
		startDir,
		filepath.Dir(startDir),
		filepath.Dir(filepath.Dir(startDir)),
	}

	for _, dir := range candidates {
		if fileExists(filepath.Join(dir, "index.html")) {
			return dir
		}
	}

	return startDir
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
