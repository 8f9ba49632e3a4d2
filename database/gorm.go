package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sahilchouksey/uniguide-api/config"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage is what the rest of the process needs from the relational store.
type Storage interface {
	// Lifecycle methods
	Init() error
	Close() error
	HealthCheck(ctx context.Context) error

	GetDB() *gorm.DB
}

type GORMStore struct {
	db     *gorm.DB
	dbURL  string
	logger *zap.Logger
}

var _ Storage = (*GORMStore)(nil)

// StartGORM initializes a GORM connection to PostgreSQL.
// The first connection is retried with a fibonacci backoff so the API can start
// alongside a database container that is still booting.
func StartGORM(ctx context.Context, cfg *config.Config, log *zap.Logger) (*GORMStore, error) {
	// Configure GORM logger
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.IsProduction() {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	var db *gorm.DB
	backoff := retry.WithMaxRetries(5, retry.NewFibonacci(1*time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		conn, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
			Logger:                 gormLogger,
			SkipDefaultTransaction: false,
			PrepareStmt:            true,
			TranslateError:         true,
			NowFunc: func() time.Time {
				return time.Now().UTC()
			},
		})
		if err != nil {
			log.Warn("postgres not reachable yet, retrying", zap.Error(err))
			return retry.RetryableError(err)
		}
		db = conn
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to connect to PostgreSQL with GORM: %w", err)
	}

	// Get underlying *sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("connected to PostgreSQL with GORM",
		zap.String("host", cfg.Database.Host),
		zap.String("dbname", cfg.Database.Name),
	)

	return &GORMStore{db: db, dbURL: cfg.Database.URL(), logger: log}, nil
}

// NewGORMStore wraps an already opened connection.
func NewGORMStore(db *gorm.DB, dbURL string, log *zap.Logger) *GORMStore {
	return &GORMStore{db: db, dbURL: dbURL, logger: log}
}

// Init applies the embedded schema migrations.
func (s *GORMStore) Init() error {
	return RunMigrations(s.dbURL, s.logger)
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	s.logger.Info("closing GORM PostgreSQL connection")
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the GORM DB instance for use in repositories
func (s *GORMStore) GetDB() *gorm.DB {
	return s.db
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
