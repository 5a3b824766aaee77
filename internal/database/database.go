package database

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	db, err := Open(postgres.Open(cfg.DSN()))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	DB = db
	slog.Info("database connected")
	return nil
}

// Open builds a gorm handle with the settings every dialect shares.
// TranslateError makes unique violations surface as gorm.ErrDuplicatedKey.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	return open(dialector, os.Stdout)
}

func open(dialector gorm.Dialector, w io.Writer) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger:         newLogger(w),
		TranslateError: true,
	})
}

// newLogger reports slow queries and errors. A miss is a normal answer for
// email lookups, so ErrRecordNotFound is not logged.
func newLogger(w io.Writer) logger.Interface {
	return logger.New(log.New(w, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// Migrate runs AutoMigrate for every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.SystemLog{},
	)
}

func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
