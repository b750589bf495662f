package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("-- test"), 0o644))
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add returns index", "add_returns_index"},
		{"Add-Returns-Index", "add_returns_index"},
		{"ADD_RETURNS_INDEX", "add_returns_index"},
		{"add__returns__index", "add_returns_index"},
		{"Sales Remarks 2", "sales_remarks_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	t.Run("numbers the first migration 000001", func(t *testing.T) {
		dir := t.TempDir()

		mf, err := CreateMigration(dir, "add returns index", "Index returns by bill and product")
		require.NoError(t, err)

		assert.Equal(t, "000001", mf.Version)
		assert.Equal(t, filepath.Join(dir, "000001_add_returns_index.up.sql"), mf.UpPath)
		assert.Equal(t, filepath.Join(dir, "000001_add_returns_index.down.sql"), mf.DownPath)

		up, err := os.ReadFile(mf.UpPath)
		require.NoError(t, err)
		assert.Contains(t, string(up), "add returns index")
		assert.Contains(t, string(up), "Index returns by bill and product")
		assert.Contains(t, string(up), "DECIMAL(18,2)")

		down, err := os.ReadFile(mf.DownPath)
		require.NoError(t, err)
		assert.Contains(t, string(down), "Rollback")
	})

	t.Run("continues after the highest existing version", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir,
			"000001_create_pos_tables.up.sql", "000001_create_pos_tables.down.sql",
			"000004_sales_remarks.up.sql", "000004_sales_remarks.down.sql",
			"notes_without_version.up.sql",
		)

		mf, err := CreateMigration(dir, "billbook line no", "")
		require.NoError(t, err)
		assert.Equal(t, "000005", mf.Version)
		assert.True(t, strings.HasSuffix(mf.UpPath, "000005_billbook_line_no.up.sql"))
	})

	t.Run("creates the directory", func(t *testing.T) {
		nested := filepath.Join(t.TempDir(), "nested", "migrations")

		_, err := CreateMigration(nested, "test", "test migration")
		require.NoError(t, err)

		info, err := os.Stat(nested)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("rejects a name with no usable characters", func(t *testing.T) {
		_, err := CreateMigration(t.TempDir(), "!!!", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no usable characters")
	})
}

func TestListMigrations(t *testing.T) {
	t.Run("lists up migrations sorted", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir,
			"000003_add_products.up.sql", "000003_add_products.down.sql",
			"000001_init_schema.up.sql", "000001_init_schema.down.sql",
			"000002_add_returns.up.sql", "000002_add_returns.down.sql",
		)

		migrations, err := ListMigrations(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"000001_init_schema", "000002_add_returns", "000003_add_products"}, migrations)
	})

	t.Run("empty directory", func(t *testing.T) {
		migrations, err := ListMigrations(t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, migrations)
	})

	t.Run("nonexistent directory", func(t *testing.T) {
		migrations, err := ListMigrations("/nonexistent/path/to/migrations")
		require.NoError(t, err)
		assert.Empty(t, migrations)
	})

	t.Run("ignores other files and directories", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, "000001_init.up.sql", "000001_init.down.sql", "README.md", ".gitkeep", ".up.sql")
		require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir.up.sql"), 0o755))

		migrations, err := ListMigrations(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"000001_init"}, migrations)
	})
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, "migrations", cfg.MigrationsPath)
	assert.Equal(t, DefaultMigrationsTable, cfg.MigrationsTable)
	assert.Empty(t, cfg.Schema)

	custom := Config{MigrationsPath: "/srv/pos/migrations", Schema: "mainDB", MigrationsTable: "till_versions"}.withDefaults()
	assert.Equal(t, "/srv/pos/migrations", custom.MigrationsPath)
	assert.Equal(t, "till_versions", custom.MigrationsTable)
	assert.Equal(t, "mainDB", custom.Schema)
}

func TestPendingAfter(t *testing.T) {
	files := []string{"000001_pos_tables", "000002_purchase_audit", "notes", "000010_returns_reason"}
	assert.Equal(t, []string{"000002_purchase_audit", "000010_returns_reason"}, pendingAfter(files, 1))
	assert.Empty(t, pendingAfter(files, 10))
	assert.Len(t, pendingAfter(files, 0), 3)
}
