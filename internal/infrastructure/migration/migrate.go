package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// DefaultMigrationsTable keeps the till's version row apart from any other
// tool migrating the same database (the purchase audit owner, for one).
const DefaultMigrationsTable = "pos_schema_migrations"

// Config holds migration configuration
type Config struct {
	MigrationsPath  string
	Schema          string // empty = the connection's search_path
	MigrationsTable string
}

func (c Config) withDefaults() Config {
	if c.MigrationsPath == "" {
		c.MigrationsPath = "migrations"
	}
	if c.MigrationsTable == "" {
		c.MigrationsTable = DefaultMigrationsTable
	}
	return c
}

// Migrator applies the SQL files under migrations/ to the sales, billbook,
// returns and balance_payments tables.
type Migrator struct {
	migrate *migrate.Migrate
	path    string
	logger  *zap.Logger
}

// Status describes the schema state against the files on disk
type Status struct {
	Version uint
	Dirty   bool
	Pending []string
}

// New creates a Migrator on an open connection. The caller keeps ownership
// of db until Close.
func New(db *sql.DB, cfg Config, logger *zap.Logger) (*Migrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: cfg.MigrationsTable,
		SchemaName:      cfg.Schema,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+cfg.MigrationsPath, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("open migrations in %s: %w", cfg.MigrationsPath, err)
	}

	return &Migrator{
		migrate: m,
		path:    cfg.MigrationsPath,
		logger:  logger.With(zap.String("migrations_table", cfg.MigrationsTable)),
	}, nil
}

// apply runs one golang-migrate operation. ErrNoChange is success.
func (m *Migrator) apply(op string, fn func() error) error {
	if err := fn(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info("Schema already current", zap.String("op", op))
			return nil
		}
		return fmt.Errorf("migrate %s: %w", op, err)
	}
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Info("Schema migrated",
		zap.String("op", op),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

// Up runs all pending migrations
func (m *Migrator) Up() error {
	return m.apply("up", m.migrate.Up)
}

// Down rolls back every migration. Sales history is lost.
func (m *Migrator) Down() error {
	m.logger.Warn("Rolling back all migrations")
	return m.apply("down", m.migrate.Down)
}

// Steps applies n migrations (positive = up, negative = down)
func (m *Migrator) Steps(n int) error {
	if n == 0 {
		return errors.New("steps must not be zero")
	}
	return m.apply("step "+strconv.Itoa(n), func() error { return m.migrate.Steps(n) })
}

// GoTo migrates up or down to a specific version
func (m *Migrator) GoTo(version uint) error {
	return m.apply(fmt.Sprintf("goto %d", version), func() error { return m.migrate.Migrate(version) })
}

// Version returns the current migration version; 0 when nothing was applied
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read migration version: %w", err)
	}
	return version, dirty, nil
}

// Status reports the applied version and the files not yet applied
func (m *Migrator) Status() (*Status, error) {
	version, dirty, err := m.Version()
	if err != nil {
		return nil, err
	}
	files, err := ListMigrations(m.path)
	if err != nil {
		return nil, err
	}
	return &Status{Version: version, Dirty: dirty, Pending: pendingAfter(files, version)}, nil
}

// pendingAfter filters migration base names ("000002_purchase_audit") down
// to those numbered above version
func pendingAfter(files []string, version uint) []string {
	var pending []string
	for _, f := range files {
		if n, ok := versionOf(f); ok && n > uint64(version) {
			pending = append(pending, f)
		}
	}
	return pending
}

// Force sets the migration version without running migrations.
// Only for clearing a dirty flag after fixing a failed migration by hand.
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing migration version", zap.Int("version", version))
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

// Close releases the source and database handles
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	return errors.Join(sourceErr, dbErr)
}
