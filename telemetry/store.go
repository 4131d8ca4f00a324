package telemetry

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store persists run results to a SQLite database, so long sweeps can be
// queried and compared across invocations.
type Store struct {
	db *gorm.DB
}

// OpenStore opens (or creates) the database at path and migrates the result
// table. Returns nil if path is empty (persistence disabled).
func OpenStore(path string) (*Store, error) {
	if path == "" {
		return nil, nil
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening results database: %w", err)
	}
	if err := db.AutoMigrate(&RunResult{}); err != nil {
		return nil, fmt.Errorf("migrating results table: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveResult inserts one run result.
func (s *Store) SaveResult(r RunResult) error {
	if s == nil {
		return nil
	}
	if err := s.db.Create(&r).Error; err != nil {
		return fmt.Errorf("saving result: %w", err)
	}
	return nil
}

// TopResults returns the n best stored results, ranked by stability score
// then average tick rate.
func (s *Store) TopResults(n int) ([]RunResult, error) {
	if s == nil {
		return nil, nil
	}
	var out []RunResult
	err := s.db.
		Order("stability_score DESC, avg_ticks_per_sec DESC").
		Limit(n).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	return out, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
