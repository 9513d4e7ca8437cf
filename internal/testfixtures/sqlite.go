package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/classroom-scheduler/internal/identity"
	"github.com/example/classroom-scheduler/internal/persistence/sqlite"
)

// FastHashParams keeps argon2 cheap enough for tests.
var FastHashParams = identity.Argon2idParams{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  8,
	KeyLength:   16,
}

// SQLiteHarness is a migrated temporary database seeded with DefaultCatalog.
type SQLiteHarness struct {
	Store   *sqlite.Store
	Path    string
	Catalog CatalogFixture
	// Tokens maps each seeded user id to a bearer token accepted by identity.Resolver.
	Tokens map[string]string
}

// NewSQLiteHarness opens, migrates and seeds a database under tb.TempDir.
// The store is closed when the test ends.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	ctx := context.Background()
	path := filepath.Join(tb.TempDir(), "scheduler.db")

	store, err := sqlite.Open(ctx, sqlite.TestConfig(path), nil)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() { _ = store.Close() })

	if err := store.Migrate(ctx); err != nil {
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	catalog := DefaultCatalog()
	tokens := make(map[string]string, len(catalog.Users))
	for i := range catalog.Users {
		token, hash, err := identity.IssueToken(catalog.Users[i].ID, FastHashParams)
		if err != nil {
			tb.Fatalf("failed to issue token: %v", err)
		}
		catalog.Users[i].TokenHash = hash
		tokens[catalog.Users[i].ID] = token
	}

	if err := catalog.Seed(ctx, store.Catalog, store.Users); err != nil {
		tb.Fatalf("failed to seed catalog: %v", err)
	}

	return &SQLiteHarness{Store: store, Path: path, Catalog: catalog, Tokens: tokens}
}
