// Package sqlstore implements the store adapter on database/sql for SQLite and MySQL.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
)

// DB wraps a database/sql handle and the dialect it speaks
type DB struct {
	SQL     *sql.DB
	dialect Dialect
}

// Open connects to the database and creates missing tables
func Open(ctx context.Context, dialect Dialect, dsn string) (*DB, error) {
	sqlDB, err := sql.Open(dialect.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect.Name, err)
	}
	if dialect.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(dialect.MaxOpenConns)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", dialect.Name, err)
	}

	db := &DB{SQL: sqlDB, dialect: dialect}
	if err := db.ensureSchema(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return db, nil
}

func (db *DB) ensureSchema(ctx context.Context) error {
	for _, stmt := range db.dialect.Schema {
		if _, err := db.SQL.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply %s schema: %w", db.dialect.Name, err)
		}
	}
	return nil
}

// Close closes the database handle
func (db *DB) Close() {
	if db.SQL != nil {
		db.SQL.Close()
	}
}

// Ping verifies database connectivity
func (db *DB) Ping(ctx context.Context) error {
	return db.SQL.PingContext(ctx)
}

func (db *DB) isUniqueViolation(err error) bool {
	return err != nil && db.dialect.isUnique(err)
}
