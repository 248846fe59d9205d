package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"vmtracker/config"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

type DB struct {
	SQL    *gorm.DB
	Cache  Cache
	Driver string
	log    logger.Logger
}

// New opens the relational store selected by DB_DRIVER and, when an address
// is configured, the valkey cache. The memory driver opens nothing.
func New(config config.Config) (DB, error) {
	log := logger.New("database").Function("New")

	log.Info("Initializing database", "driver", config.DatabaseDriver)
	db := &DB{log: log, Driver: config.DatabaseDriver}

	if err := db.initializeDB(config); err != nil {
		return DB{}, log.Err("failed to initialize database", err)
	}

	if err := db.initializeCacheDB(config); err != nil {
		return DB{}, log.Err("failed to initialize cache database", err)
	}

	return *db, nil
}

// GormConfig is shared by the API and the migration command. Driver errors
// are translated so repositories can match gorm.ErrDuplicatedKey and
// gorm.ErrForeignKeyViolated regardless of the backing database.
func GormConfig() *gorm.Config {
	gormLogger := gormLogger.New(
		slog.NewLogLogger(slog.Default().Handler(), slog.LevelError),
		gormLogger.Config{
			SlowThreshold:             2 * time.Second,
			LogLevel:                  gormLogger.Error,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  false,
		},
	)

	return &gorm.Config{
		Logger:                                   gormLogger,
		PrepareStmt:                              false,
		DisableForeignKeyConstraintWhenMigrating: false,
		SkipDefaultTransaction:                   true,
		TranslateError:                           true,
	}
}

func (s *DB) initializeDB(config config.Config) error {
	log := s.log.Function("initializeDB")

	dialector, err := Dialector(config)
	if err != nil {
		return log.Err("failed to build dialector", err)
	}
	if dialector == nil {
		log.Info("Memory driver selected, skipping SQL connection")
		return nil
	}

	db, err := gorm.Open(dialector, GormConfig())
	if err != nil {
		return log.Err("failed to open database with GORM", err, "driver", config.DatabaseDriver)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return log.Err("failed to get database from GORM", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return log.Err("failed to ping database through GORM", err, "driver", config.DatabaseDriver)
	}

	if config.DatabaseDriver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.Info("Successfully connected to database", "driver", config.DatabaseDriver)
	s.SQL = db

	return nil
}

// Dialector returns nil for the memory driver.
func Dialector(cfg config.Config) (gorm.Dialector, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres, "":
		return postgres.Open(PostgresDSN(cfg)), nil
	case config.DriverMySQL:
		return mysql.Open(MySQLDSN(cfg)), nil
	case config.DriverSQLite:
		return sqlite.Open(SQLiteDSN(cfg)), nil
	case config.DriverMemory:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}

func PostgresDSN(config config.Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		config.DatabaseHost,
		config.DatabasePort,
		config.DatabaseUser,
		config.DatabasePassword,
		config.DatabaseName,
	)
}

func MySQLDSN(config config.Config) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		config.DatabaseUser,
		config.DatabasePassword,
		config.DatabaseHost,
		config.DatabasePort,
		config.DatabaseName,
	)
}

// SQLiteDSN turns on foreign key enforcement, which sqlite leaves off per
// connection by default.
func SQLiteDSN(config config.Config) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", config.DatabasePath)
}

func (s *DB) Close() (err error) {
	if s.SQL != nil {
		sqlDB, dbErr := s.SQL.DB()
		if dbErr == nil {
			if closeErr := sqlDB.Close(); closeErr != nil {
				err = s.log.Err("failed to close database", closeErr)
			}
		}
	}

	s.Cache.Close()

	return err
}

func (s *DB) SQLWithContext(ctx context.Context) *gorm.DB {
	return s.SQL.WithContext(ctx)
}
