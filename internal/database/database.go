package database

import (
	"fmt"

	"github.com/mx-space/migrator/internal/config"
	"github.com/mx-space/migrator/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the destination MySQL database and applies the schema.
func Connect(cfg *config.AppConfig) (*gorm.DB, error) {
	return Open(mysql.New(mysql.Config{
		DSN:               cfg.DSN,
		DefaultStringSize: 191,
	}), resolveLogLevel(cfg))
}

// Open connects through an arbitrary dialector and runs auto-migration.
func Open(dialector gorm.Dialector, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := Migrate(db); err != nil {
		_ = Close(db)
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("resolve sql db: %w", err)
	}
	return sqlDB.Close()
}

func resolveLogLevel(cfg *config.AppConfig) logger.LogLevel {
	if cfg.IsDev() {
		return logger.Info
	}
	return logger.Warn
}

// Migrate runs GORM auto-migration for the destination models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.TenantModel{},
		&models.CategoryModel{},
		&models.AuthorModel{},
		&models.PostModel{},
		&models.PageModel{},
		&models.AssetModel{},
		&models.MigrationRunModel{},
	); err != nil {
		return err
	}

	if db.Dialector.Name() == "mysql" {
		if err := db.Exec("ALTER TABLE `posts` MODIFY COLUMN `text` LONGTEXT NULL").Error; err != nil {
			return err
		}
		if err := db.Exec("ALTER TABLE `pages` MODIFY COLUMN `text` LONGTEXT NULL").Error; err != nil {
			return err
		}
	}
	return nil
}
