package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var log = logrus.New()

// backoff between connection attempts; its length is the attempt count
var retryDelays = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// InitDatabase opens the recipe store, retrying while the server comes up,
// then sizes the pool for the driver and migrates the schema.
func InitDatabase(cfg DatabaseConfig) (*gorm.DB, error) {
	dialector, err := cfg.Dialector()
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"db_driver": cfg.driver(),
		"db_host":   cfg.Host,
		"db_name":   cfg.Name,
		"db_path":   cfg.Path,
	}).Info("Initializing database connection")

	var db *gorm.DB
	for attempt := 1; attempt <= len(retryDelays); attempt++ {
		db, err = connect(dialector)
		if err == nil {
			break
		}

		log.WithFields(logrus.Fields{
			"attempt":     attempt,
			"max_retries": len(retryDelays),
		}).WithError(err).Warn("Database connection attempt failed")

		if attempt < len(retryDelays) {
			time.Sleep(retryDelays[attempt-1])
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", len(retryDelays), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	configureConnectionPool(sqlDB, cfg.driver())

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.WithField("db_driver", cfg.driver()).Info("Database initialized successfully")
	return db, nil
}

// connect opens and pings once
func connect(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, gormConfig())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}
}

// configureConnectionPool sizes the pool. sqlite serialises writers, so the
// recipe linking fan-out shares a single connection there.
func configureConnectionPool(sqlDB *sql.DB, driver string) {
	maxOpen, maxIdle := 25, 5
	if driver == "sqlite" {
		maxOpen, maxIdle = 1, 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	log.WithFields(logrus.Fields{
		"max_open_conns": maxOpen,
		"max_idle_conns": maxIdle,
	}).Debug("Connection pool configured")
}
