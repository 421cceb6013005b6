package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"gopkg.in/yaml.v3"

	"github.com/ahenaor/audiosnip/internal/cleanup"
	"github.com/ahenaor/audiosnip/internal/extract"
	"github.com/ahenaor/audiosnip/internal/handlers"
	"github.com/ahenaor/audiosnip/internal/pipeline"
	"github.com/ahenaor/audiosnip/internal/resolve"
	"github.com/ahenaor/audiosnip/internal/runner"
	"github.com/ahenaor/audiosnip/internal/transcode"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	Binaries struct {
		FFmpeg string `yaml:"ffmpeg"`
		YtDlp  string `yaml:"yt_dlp"`
	} `yaml:"binaries"`

	Extract struct {
		Strategies     []string `yaml:"strategies"`
		TimeoutMinutes int      `yaml:"timeout_minutes"`
	} `yaml:"extract"`

	Resolver struct {
		CacheSize      int `yaml:"cache_size"`
		TimeoutSeconds int `yaml:"timeout_seconds"`
	} `yaml:"resolver"`

	Storage struct {
		TempDir    string `yaml:"temp_dir"`
		MaxResults int    `yaml:"max_results"`
	} `yaml:"storage"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`
}

func main() {
	configPath := os.Getenv("AUDIOSNIP_CONFIG")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	config, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cleanup.EnsureTempRoot(config.Storage.TempDir); err != nil {
		log.Fatalf("Failed to create temp directory: %v", err)
	}

	log.Println("Initializing components...")

	resolver, err := resolve.NewCached(
		resolve.NewYouTube(time.Duration(config.Resolver.TimeoutSeconds)*time.Second),
		config.Resolver.CacheSize,
	)
	if err != nil {
		log.Fatalf("Failed to initialize resolver cache: %v", err)
	}

	strategies, err := buildStrategies(config)
	if err != nil {
		log.Fatalf("Failed to configure extraction strategies: %v", err)
	}
	selector := extract.NewSelector(strategies...)

	engine := transcode.New(config.Binaries.FFmpeg)

	pipe := pipeline.New(resolver, selector, engine, config.Storage.TempDir)
	run := runner.New(pipe, config.Storage.MaxResults)

	cleanupScheduler := cleanup.NewScheduler(
		config.Storage.TempDir,
		time.Duration(config.Cleanup.IntervalMinutes)*time.Minute,
		time.Duration(config.Cleanup.MaxAgeHours)*time.Hour,
	)
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	app := fiber.New()

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	jobHandler := handlers.NewJobHandler(run)
	downloadHandler := handlers.NewDownloadHandler(run)
	progressHandler := handlers.NewProgressHandler(run)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	app.Get("/", handlers.Form)
	app.Post("/jobs", jobHandler.Create)
	app.Get("/jobs/:id", jobHandler.Status)
	app.Get("/jobs/:id/audio", downloadHandler.Audio)
	app.Get("/jobs/:id/metadata", downloadHandler.Metadata)
	app.Get("/jobs/:id/archive", downloadHandler.Archive)
	app.Get("/ws/jobs/:id", websocket.New(progressHandler.Handle))

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	log.Printf("Server starting on %s", addr)
	log.Println("Endpoints:")
	log.Println("   GET  /               - Job form")
	log.Println("   POST /jobs           - Submit a job")
	log.Println("   GET  /jobs/:id       - Job status + run metadata")
	log.Println("   GET  /jobs/:id/audio - Download encoded audio")
	log.Println("   GET  /jobs/:id/metadata - Download run metadata JSON")
	log.Println("   GET  /jobs/:id/archive  - Download zip bundle")
	log.Println("   GET  /ws/jobs/:id    - Progress WebSocket")
	log.Println("   GET  /health         - Health check")

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down gracefully...")
		app.Shutdown()
	}()

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// buildStrategies assembles the ordered fallback list from config.
func buildStrategies(config *Config) ([]extract.Strategy, error) {
	timeout := time.Duration(config.Extract.TimeoutMinutes) * time.Minute
	names := config.Extract.Strategies
	if len(names) == 0 {
		names = []string{"android-client", "web-client", "embedded-client", "yt-dlp"}
	}

	var strategies []extract.Strategy
	for _, name := range names {
		switch name {
		case "android-client":
			strategies = append(strategies, extract.NewAndroidClient(timeout))
		case "web-client":
			strategies = append(strategies, extract.NewWebClient(timeout))
		case "embedded-client":
			strategies = append(strategies, extract.NewEmbeddedClient(timeout))
		case "yt-dlp":
			strategies = append(strategies, extract.NewYtDlp(config.Binaries.YtDlp))
		default:
			return nil, fmt.Errorf("unknown extraction strategy %q", name)
		}
	}
	return strategies, nil
}

// loadConfig loads configuration from a YAML file
func loadConfig(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	applyDefaults(&config)
	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Storage.TempDir == "" {
		config.Storage.TempDir = "temp"
	}
	if config.Storage.MaxResults == 0 {
		config.Storage.MaxResults = 16
	}
	if config.Resolver.CacheSize == 0 {
		config.Resolver.CacheSize = 128
	}
	if config.Resolver.TimeoutSeconds == 0 {
		config.Resolver.TimeoutSeconds = 30
	}
	if config.Extract.TimeoutMinutes == 0 {
		config.Extract.TimeoutMinutes = 30
	}
	if config.Cleanup.IntervalMinutes == 0 {
		config.Cleanup.IntervalMinutes = 30
	}
	if config.Cleanup.MaxAgeHours == 0 {
		config.Cleanup.MaxAgeHours = 6
	}
}
