// Package repository selects the store backend named in the configuration.
package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/community-market/internal/config"
	"github.com/Rrens/community-market/internal/domain"
	"github.com/Rrens/community-market/internal/repository/memory"
	"github.com/Rrens/community-market/internal/repository/postgres"
	"github.com/Rrens/community-market/internal/repository/sqlstore"
)

// Store bundles the repositories of one backend
type Store struct {
	Spaces   domain.SpaceRepository
	Members  domain.MemberRepository
	Users    domain.UserRepository
	Listings domain.ListingRepository

	ping  func(ctx context.Context) error
	close func()
}

// Ping verifies connectivity of the underlying backend
func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Close releases the underlying backend
func (s *Store) Close() {
	s.close()
}

// Open connects to the configured backend. PostgreSQL migrations run here
// when auto_migrate is set; the database/sql backends create their tables on open.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		if cfg.AutoMigrate {
			if err := postgres.RunMigrations(cfg.DSN(), cfg.MigrationsPath); err != nil {
				return nil, err
			}
		}

		db, err := postgres.NewDB(ctx, cfg)
		if err != nil {
			return nil, err
		}

		return &Store{
			Spaces:   postgres.NewSpaceRepository(db),
			Members:  postgres.NewMemberRepository(db),
			Users:    postgres.NewUserRepository(db),
			Listings: postgres.NewListingRepository(db),
			ping:     db.Ping,
			close:    db.Close,
		}, nil

	case config.DriverSQLite, config.DriverMySQL:
		dialect := sqlstore.SQLite
		if cfg.Driver == config.DriverMySQL {
			dialect = sqlstore.MySQL
		}

		db, err := sqlstore.Open(ctx, dialect, cfg.DSN())
		if err != nil {
			return nil, err
		}

		return &Store{
			Spaces:   sqlstore.NewSpaceRepository(db),
			Members:  sqlstore.NewMemberRepository(db),
			Users:    sqlstore.NewUserRepository(db),
			Listings: sqlstore.NewListingRepository(db),
			ping:     db.Ping,
			close:    db.Close,
		}, nil

	case config.DriverMemory:
		log.Warn().Msg("Using in-memory store, data is lost on restart")
		return FromMemory(memory.NewStore()), nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// FromMemory wraps an in-memory store
func FromMemory(m *memory.Store) *Store {
	return &Store{
		Spaces:   m.Spaces(),
		Members:  m.Members(),
		Users:    m.Users(),
		Listings: m.Listings(),
		ping:     m.Ping,
		close:    m.Close,
	}
}
