package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/envlab/monitor-trainer/backend/internal/api"
	"github.com/envlab/monitor-trainer/backend/internal/config"
	"github.com/envlab/monitor-trainer/backend/internal/models"
	"github.com/envlab/monitor-trainer/backend/internal/rules"
	"github.com/envlab/monitor-trainer/backend/internal/session"
	"github.com/envlab/monitor-trainer/backend/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	exeDir := filepath.Dir(exePath)

	// Load XML configuration
	configPath := filepath.Join(exeDir, "EnvMonitorTrainer.exe.config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Printf("Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	// Load reference ranges and detection tuning
	ruleSet := loadRules(cfg)

	// Initialize state persistence
	var store storage.StateStore
	if cfg.Storage.EnablePersistence {
		duckStore, err := storage.NewDuckStateStore(cfg.Storage.StateDatabase)
		if err != nil {
			fmt.Printf("Failed to open state database: %v\n", err)
			os.Exit(1)
		}
		defer duckStore.Close()
		store = duckStore
	} else {
		store = storage.NewMemoryStore()
	}

	// Initialize session manager
	sessionMgr := session.NewManager(ruleSet, store)

	// Start background session cleanup
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.Processing.CleanupIntervalMinutes) * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			sessionMgr.CleanupIdleSessions(time.Duration(cfg.Processing.SessionTimeoutMinutes) * time.Minute)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.ErrorHandler

	// Configure middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/api/health" || strings.Contains(path, "/ws/")
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize:         1024 * 4,
		DisablePrintStack: false,
	}))

	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// CORS configuration
	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	// API routes
	handlers := api.NewHandlers(&api.Dependencies{
		Sessions: sessionMgr,
		Rules:    ruleSet,
		Version:  Version,
	})
	api.RegisterRoutes(e, handlers)

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║        Environmental Monitoring Trainer Server            ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  State DB:  %-46s║\n", cfg.Storage.StateDatabase)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	e.Logger.Fatal(e.StartServer(s))
}

// loadRules reads the configured rules file, falling back to the built-in
// defaults, then lets the XML config override the detection tuning.
func loadRules(cfg *config.AppConfig) *models.RuleSet {
	ruleSet := rules.DefaultRuleSet()
	if cfg.Detection.RulesFile != "" {
		loaded, err := rules.Load(cfg.Detection.RulesFile)
		if err != nil {
			fmt.Printf("Warning: failed to load rules file, using defaults: %v\n", err)
		} else {
			ruleSet = loaded
			fmt.Printf("Loaded rules from %s (%d parameters)\n", cfg.Detection.RulesFile, len(ruleSet.ReferenceRanges))
		}
	}
	if cfg.Detection.ZScoreThreshold > 0 {
		ruleSet.Detection.ZScoreThreshold = cfg.Detection.ZScoreThreshold
	}
	if cfg.Detection.IQRMultiplier > 0 {
		ruleSet.Detection.IQRMultiplier = cfg.Detection.IQRMultiplier
	}
	return ruleSet
}
