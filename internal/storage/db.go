package storage

import (
	"fmt"
	"vault-node/internal/config"
	"vault-node/internal/logger"
	"vault-node/internal/storage/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// InitDB opens the database connection and migrates the archive schema.
func InitDB(cfg config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.DBName, cfg.Port, cfg.SSLMode, cfg.TimeZone)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	logger.Log.Info("Database connection successfully established.")

	// Auto-migrate the schema
	err = db.AutoMigrate(&models.Artwork{}, &models.Bid{}, &models.Holding{}, &models.Reputation{})
	if err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %v", err)
	}
	logger.Log.Info("Database schema migrated.")
	return db, nil
}
