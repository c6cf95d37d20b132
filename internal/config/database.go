package config

import (
	"fmt"
	"time"

	"emaihl-library/internal/adapters/persistence/models"
	"emaihl-library/internal/adapters/persistence/store"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenStore builds the document store selected by STORE_DRIVER.
// The Mongo store connects lazily, so a bad MONGODB_URI surfaces on first use rather than here.
func OpenStore(cfg *Config, log *zap.Logger) (store.Store, error) {
	switch cfg.Store.Driver {
	case DriverMySQL:
		db, err := ConnectMySQL(cfg, log)
		if err != nil {
			return nil, err
		}
		if err := models.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("failed to auto migrate: %w", err)
		}
		log.Info("✅ Database migration completed")
		return store.NewGormStore(db), nil
	case DriverMemory:
		log.Warn("⚠️ Using in-memory document store, data is lost on restart")
		return store.NewMemoryStore(), nil
	default:
		return store.NewMongoStore(cfg.Store.MongoURI, cfg.Store.MongoDB, log), nil
	}
}

// ConnectMySQL establishes connection to MySQL database
func ConnectMySQL(cfg *Config, log *zap.Logger) (*gorm.DB, error) {
	dsn := buildDSN(cfg.Database)

	var gormLogger logger.Interface
	if cfg.IsDev() {
		gormLogger = logger.Default.LogMode(logger.Info)
	} else {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("✅ Database connected successfully",
		zap.String("host", cfg.Database.Host),
		zap.String("port", cfg.Database.Port),
		zap.String("database", cfg.Database.DBName),
	)
	return db, nil
}

// buildDSN returns the database connection string
func buildDSN(d DatabaseConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.DBName,
	)
}
