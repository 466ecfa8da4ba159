package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"foodinsight/internal/models/db_models"
)

func InitPostgresql(dsn string, logger *zap.Logger) (*gorm.DB, error) {
	connectionPool, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := connectionPool.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	logger.Info("connected to PostgreSQL")
	return connectionPool, nil
}

func ClosePostgresql(db *gorm.DB, logger *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("get database instance", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("close database connection", zap.Error(err))
	} else {
		logger.Info("PostgreSQL database connection closed")
	}
}

func PingPostgresql(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

type columnPatch struct {
	table, column, definition string
}

// Columns added after the first deployments. They are applied before AutoMigrate so that the
// verified backfill only touches rows that predate the column.
var columnPatches = []columnPatch{
	{"accounts", "verified", "BOOLEAN"},
	{"observations", "analysis_failure", "VARCHAR(32)"},
	{"observations", "raw_analysis", "JSONB"},
}

func addColumnSQL(p columnPatch) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s",
		pq.QuoteIdentifier(p.table), pq.QuoteIdentifier(p.column), p.definition)
}

// Migrate patches legacy tables, marks pre-existing accounts as verified and then lets gorm
// create or extend the schema. Every step is idempotent.
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	for _, p := range columnPatches {
		if !db.Migrator().HasTable(p.table) {
			continue
		}
		if err := db.Exec(addColumnSQL(p)).Error; err != nil {
			return fmt.Errorf("patch %s.%s: %w", p.table, p.column, err)
		}
	}

	if db.Migrator().HasTable("accounts") {
		res := db.Exec(fmt.Sprintf("UPDATE %s SET verified = TRUE WHERE verified IS NULL", pq.QuoteIdentifier("accounts")))
		if res.Error != nil {
			return fmt.Errorf("backfill verified flag: %w", res.Error)
		}
		if res.RowsAffected > 0 {
			logger.Info("marked legacy accounts as verified", zap.Int64("rows", res.RowsAffected))
		}
	}

	if err := db.AutoMigrate(
		&db_models.Account{},
		&db_models.Observation{},
		&db_models.EmailVerificationCode{},
		&db_models.PasswordResetToken{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func StartTransaction(db *gorm.DB) (*gorm.DB, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin transaction: %w", tx.Error)
	}
	return tx, nil
}

func ReleaseTransaction(tx *gorm.DB, err error) error {
	if err != nil {
		if rollbackErr := tx.Rollback().Error; rollbackErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rollbackErr)
		}
		return err
	}
	if commitErr := tx.Commit().Error; commitErr != nil {
		return fmt.Errorf("commit transaction: %w", commitErr)
	}
	return nil
}

// RunInTransaction commits when fn returns nil and rolls back on error or panic. A panic is
// re-raised after the rollback so the recovery middleware still sees it.
func RunInTransaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) (err error) {
	tx, err := StartTransaction(db.WithContext(ctx))
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()
	return ReleaseTransaction(tx, fn(tx))
}
