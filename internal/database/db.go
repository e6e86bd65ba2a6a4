package database

import (
	"plastics-backend/internal/config"
	"plastics-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	logger := config.GetLogger()

	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		logger.WithError(err).Fatal("could not connect to database")
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.AuditLog{},
		&models.Material{},
		&models.Stock{},
		&models.SalesBill{},
		&models.SalesBillItem{},
		&models.PurchaseBill{},
		&models.PurchaseBillItem{},
		&models.BillCounter{},
		&models.Party{},
	)
	if err != nil {
		logger.WithError(err).Fatal("AutoMigrate failed")
	}

	// at most one active stock row per material
	if err := DB.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_stocks_active_material
		ON stocks (material_id) WHERE is_active`).Error; err != nil {
		logger.WithError(err).Fatal("could not create active stock index")
	}
	if err := DB.Exec(`ALTER TABLE stocks DROP CONSTRAINT IF EXISTS chk_stocks_available_non_negative`).Error; err == nil {
		if err := DB.Exec(`ALTER TABLE stocks ADD CONSTRAINT chk_stocks_available_non_negative
			CHECK (available_stock >= 0)`).Error; err != nil {
			logger.WithError(err).Warn("could not add available stock check constraint")
		}
	}

	logger.Info("database connected, migration finished")
}
