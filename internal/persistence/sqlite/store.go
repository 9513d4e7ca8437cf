package sqlite

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/example/classroom-scheduler/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Store bundles the connection pool with every repository backed by it.
type Store struct {
	*ConnectionPool

	Users      *UserRepository
	Catalog    *CatalogRepository
	Routines   *RoutineRepository
	RoomStatus *RoomStatusRepository

	logger *slog.Logger
}

// Open connects to the database described by config. Call Migrate before
// serving requests.
func Open(ctx context.Context, config Config, logger *slog.Logger) (*Store, error) {
	pool, err := NewConnectionPool(ctx, config)
	if err != nil {
		return nil, err
	}
	return NewStore(pool, logger), nil
}

// NewStore wires repositories around an existing pool.
func NewStore(pool *ConnectionPool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		ConnectionPool: pool,
		Users:          NewUserRepository(pool),
		Catalog:        NewCatalogRepository(pool),
		Routines:       NewRoutineRepository(pool),
		RoomStatus:     NewRoomStatusRepository(pool),
		logger:         logger,
	}
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	manager := migration.NewManager(
		migration.NewScanner(migrationFiles, "migrations"),
		migration.NewExecutor(s.DB()),
		s.logger,
	)
	if _, err := manager.Run(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
