package migration

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanner_Scan(t *testing.T) {
	tests := []struct {
		name          string
		files         fstest.MapFS
		expectedOrder []string
		errorIs       error
	}{
		{
			name: "orders by numeric version and ignores other files",
			files: fstest.MapFS{
				"migrations/010_add_index.sql":      {Data: []byte("CREATE INDEX idx ON rooms(id);")},
				"migrations/002_add_rooms.sql":      {Data: []byte("CREATE TABLE rooms (id TEXT PRIMARY KEY);")},
				"migrations/001_create_users.sql":   {Data: []byte("CREATE TABLE users (id TEXT PRIMARY KEY);")},
				"migrations/README.md":              {Data: []byte("# notes")},
				"migrations/nested/003_ignored.sql": {Data: []byte("SELECT 1;")},
			},
			expectedOrder: []string{"001", "002", "010"},
		},
		{
			name:          "empty directory",
			files:         fstest.MapFS{"migrations": {Mode: fs.ModeDir | 0o755}},
			expectedOrder: nil,
		},
		{
			name: "invalid filename",
			files: fstest.MapFS{
				"migrations/create_users.sql": {Data: []byte("CREATE TABLE users (id TEXT);")},
			},
			errorIs: ErrInvalidMigrationFile,
		},
		{
			name: "duplicate version",
			files: fstest.MapFS{
				"migrations/001_a.sql":  {Data: []byte("CREATE TABLE a (id TEXT);")},
				"migrations/0001_b.sql": {Data: []byte("CREATE TABLE b (id TEXT);")},
			},
			errorIs: ErrDuplicateVersion,
		},
		{
			name: "comment only file",
			files: fstest.MapFS{
				"migrations/001_empty.sql": {Data: []byte("-- nothing to do\n")},
			},
			errorIs: ErrInvalidMigrationFile,
		},
		{
			name: "unbalanced parentheses",
			files: fstest.MapFS{
				"migrations/001_broken.sql": {Data: []byte("CREATE TABLE a (id TEXT;")},
			},
			errorIs: ErrInvalidMigrationFile,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			migrations, err := NewScanner(tc.files, "migrations").Scan()
			if tc.errorIs != nil {
				require.ErrorIs(t, err, tc.errorIs)
				return
			}
			require.NoError(t, err)

			var versions []string
			for _, m := range migrations {
				versions = append(versions, m.Version)
				assert.NotEmpty(t, m.Checksum)
			}
			assert.Equal(t, tc.expectedOrder, versions)
		})
	}
}

func TestScanner_Description(t *testing.T) {
	files := fstest.MapFS{
		"m/001_create_users.sql": {Data: []byte("-- Description: Create the users table\n\nCREATE TABLE users (id TEXT);")},
		"m/002_add_rooms.sql":    {Data: []byte("CREATE TABLE rooms (id TEXT);")},
	}

	migrations, err := NewScanner(files, "m").Scan()
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, "Create the users table", migrations[0].Description)
	assert.Equal(t, "add rooms", migrations[1].Description)
	assert.Equal(t, "m/002_add_rooms.sql", migrations[1].FilePath)
}

func TestSplitStatements(t *testing.T) {
	sql := `
-- header comment
CREATE TABLE a (id TEXT); -- trailing
CREATE INDEX idx_a ON a (id);

`
	statements := splitStatements(sql)
	assert.Equal(t, []string{"CREATE TABLE a (id TEXT)", "CREATE INDEX idx_a ON a (id)"}, statements)
}
