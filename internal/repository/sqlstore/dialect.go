package sqlstore

import (
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	mysqlDuplicateEntry = 1062

	// SQLite's built-in LOWER only folds ASCII
	sqliteUnicodeLower = "unicode_lower"
)

func init() {
	if err := sqlite.RegisterDeterministicScalarFunction(sqliteUnicodeLower, 1, unicodeLower); err != nil {
		panic(err)
	}
}

func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// Dialect captures what differs between the database/sql backends
type Dialect struct {
	Name         string
	DriverName   string
	InsertIgnore string
	Lower        string
	Schema       []string
	MaxOpenConns int
	isUnique     func(error) bool
}

// SQLite runs on modernc.org/sqlite. One connection keeps in-memory databases
// shared and serializes writers.
var SQLite = Dialect{
	Name:         "sqlite",
	DriverName:   "sqlite",
	InsertIgnore: "INSERT OR IGNORE",
	Lower:        sqliteUnicodeLower,
	Schema:       sqliteSchema,
	MaxOpenConns: 1,
	isUnique: func(err error) bool {
		var se *sqlite.Error
		if !errors.As(err, &se) {
			return false
		}
		return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
	},
}

// MySQL runs on go-sql-driver/mysql. The DSN must set parseTime and clientFoundRows.
var MySQL = Dialect{
	Name:         "mysql",
	DriverName:   "mysql",
	InsertIgnore: "INSERT IGNORE",
	Lower:        "LOWER",
	Schema:       mysqlSchema,
	isUnique: func(err error) bool {
		var me *mysql.MySQLError
		return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
	},
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id               TEXT PRIMARY KEY,
		phone            TEXT NOT NULL UNIQUE,
		name             TEXT NOT NULL,
		password_hash    TEXT NOT NULL,
		role             TEXT NOT NULL DEFAULT 'user',
		is_verified      INTEGER NOT NULL DEFAULT 0,
		default_space_id TEXT,
		created_at       DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS spaces (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		slug        TEXT NOT NULL UNIQUE,
		description TEXT,
		logo        TEXT,
		type        TEXT NOT NULL DEFAULT 'public' CHECK (type IN ('public', 'private')),
		invite_code TEXT,
		owner_id    TEXT NOT NULL,
		created_at  DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS space_members (
		id        TEXT PRIMARY KEY,
		space_id  TEXT NOT NULL,
		user_id   TEXT NOT NULL,
		role      TEXT NOT NULL DEFAULT 'member' CHECK (role IN ('owner', 'admin', 'member')),
		joined_at DATETIME NOT NULL,
		UNIQUE (space_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_space_members_user_id ON space_members (user_id)`,
	`CREATE TABLE IF NOT EXISTS products (
		id         TEXT PRIMARY KEY,
		seller_id  TEXT NOT NULL,
		title      TEXT NOT NULL,
		price      REAL NOT NULL DEFAULT 0,
		space_id   TEXT,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS services (
		id         TEXT PRIMARY KEY,
		seller_id  TEXT NOT NULL,
		title      TEXT NOT NULL,
		price      REAL NOT NULL DEFAULT 0,
		space_id   TEXT,
		created_at DATETIME NOT NULL
	)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id               CHAR(36) PRIMARY KEY,
		phone            VARCHAR(32) NOT NULL UNIQUE,
		name             VARCHAR(120) NOT NULL,
		password_hash    VARCHAR(255) NOT NULL,
		role             VARCHAR(16) NOT NULL DEFAULT 'user',
		is_verified      BOOLEAN NOT NULL DEFAULT FALSE,
		default_space_id CHAR(36) NULL,
		created_at       DATETIME(6) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS spaces (
		id          CHAR(36) PRIMARY KEY,
		name        VARCHAR(120) NOT NULL,
		slug        VARCHAR(64) NOT NULL UNIQUE,
		description TEXT NULL,
		logo        VARCHAR(1024) NULL,
		type        VARCHAR(16) NOT NULL DEFAULT 'public',
		invite_code VARCHAR(64) NULL,
		owner_id    CHAR(36) NOT NULL,
		created_at  DATETIME(6) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS space_members (
		id        CHAR(36) PRIMARY KEY,
		space_id  CHAR(36) NOT NULL,
		user_id   CHAR(36) NOT NULL,
		role      VARCHAR(16) NOT NULL DEFAULT 'member',
		joined_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_space_members_space_user (space_id, user_id),
		KEY idx_space_members_user_id (user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id         CHAR(36) PRIMARY KEY,
		seller_id  CHAR(36) NOT NULL,
		title      VARCHAR(255) NOT NULL,
		price      DECIMAL(14,2) NOT NULL DEFAULT 0,
		space_id   CHAR(36) NULL,
		created_at DATETIME(6) NOT NULL,
		KEY idx_products_space_id (space_id)
	)`,
	`CREATE TABLE IF NOT EXISTS services (
		id         CHAR(36) PRIMARY KEY,
		seller_id  CHAR(36) NOT NULL,
		title      VARCHAR(255) NOT NULL,
		price      DECIMAL(14,2) NOT NULL DEFAULT 0,
		space_id   CHAR(36) NULL,
		created_at DATETIME(6) NOT NULL,
		KEY idx_services_space_id (space_id)
	)`,
}
