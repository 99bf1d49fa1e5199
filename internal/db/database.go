package db

import (
	"log"

	"pharma-backend/internal/config"
	"pharma-backend/internal/metrics"
	"pharma-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB connects to postgres and migrates the ledger schema. Fatal on
// failure: the server cannot run in persistent mode without its store.
func InitDB() {
	var err error

	if config.AppConfig == nil || config.AppConfig.Database.DSN == "" {
		log.Fatalf("Database DSN is required")
	}

	dsn := config.AppConfig.Database.DSN
	log.Printf("Connecting to database...")

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
		PrepareStmt:                              true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		metrics.DBConnectionStatus.Set(0)
		log.Fatalf("Failed to connect database: %v", err)
	}
	metrics.DBConnectionStatus.Set(1)

	log.Println("✅ Database connected successfully")

	log.Println("🚀 Starting database schema migration with GORM AutoMigrate...")
	if err := DB.AutoMigrate(
		&models.BatchTypeRecord{},
		&models.RawMaterialBatch{},
		&models.MedicineBatch{},
		&models.TxnLogEntry{},
		&models.RoleGrant{},
		&models.RoleAdminRecord{},
		&models.SystemOwner{},
	); err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	log.Println("✅ Database schema migrated successfully")
}
