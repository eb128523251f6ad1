package main

import (
	"flag"
	"time"

	"vault-node/api"
	"vault-node/internal/config"
	"vault-node/internal/events"
	"vault-node/internal/logger"
	"vault-node/internal/storage"
	"vault-node/internal/vault"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Log.Fatalf("Failed to load config from %s: %v", *configPath, err)
	}
	if err := logger.InitLogger(cfg.Logger); err != nil {
		logger.Log.Fatalf("Failed to initialize logger: %v", err)
	}

	vaultCfg := vault.Config{}
	if cfg.Sealed.CompareTimeoutMS > 0 {
		vaultCfg.CompareTimeout = time.Duration(cfg.Sealed.CompareTimeoutMS) * time.Millisecond
	}

	if cfg.Database.Host != "" {
		db, err := storage.InitDB(cfg.Database)
		if err != nil {
			logger.Log.Fatalf("Failed to initialize database: %v", err)
		}
		vaultCfg.Archiver = storage.NewArchiver(db)
	} else {
		logger.Log.Warn("No database configured; settlements will not be archived.")
	}

	if cfg.NATS.URL != "" {
		publisher, err := events.NewPublisher(cfg.NATS.URL)
		if err != nil {
			logger.Log.Fatalf("Failed to connect settlement event feed: %v", err)
		}
		defer publisher.Close()
		vaultCfg.Publisher = publisher
	} else {
		logger.Log.Warn("No NATS URL configured; settlement events disabled.")
	}

	coordinator := vault.New(vaultCfg)

	port := cfg.ServerPort
	if port == "" {
		port = "8080"
	}
	router := api.SetupRouter(coordinator)
	if err := router.Run(":" + port); err != nil {
		logger.Log.Fatalf("HTTP server stopped: %v", err)
	}
}
