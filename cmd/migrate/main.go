package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/anchala/pos/internal/infrastructure/config"
	"github.com/anchala/pos/internal/infrastructure/logger"
	"github.com/anchala/pos/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

// dbCommand runs against an open migrator; args excludes the command name
type dbCommand func(m *migration.Migrator, log *zap.Logger, args []string) error

var dbCommands = map[string]dbCommand{
	"up": func(m *migration.Migrator, _ *zap.Logger, _ []string) error {
		return m.Up()
	},
	"down": func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		if !hasConfirm(args) {
			return errors.New("rolling back drops every sale; rerun as 'migrate down -confirm'")
		}
		return m.Down()
	},
	"step": func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		n, err := intArg(args, "step <n>")
		if err != nil {
			return err
		}
		return m.Steps(n)
	},
	"goto": func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		v, err := intArg(args, "goto <version>")
		if err != nil {
			return err
		}
		if v < 0 {
			return fmt.Errorf("version must not be negative: %d", v)
		}
		return m.GoTo(uint(v))
	},
	"force": func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		v, err := intArg(args, "force <version>")
		if err != nil {
			return err
		}
		return m.Force(v)
	},
	"version": func(m *migration.Migrator, log *zap.Logger, _ []string) error {
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	},
	"status": func(m *migration.Migrator, log *zap.Logger, _ []string) error {
		st, err := m.Status()
		if err != nil {
			return err
		}
		log.Info("Migration status",
			zap.Uint("version", st.Version),
			zap.Bool("dirty", st.Dirty),
			zap.Strings("pending", st.Pending),
		)
		return nil
	},
}

func main() {
	var (
		migrationsPath  string
		migrationsTable string
		logLevel        string
	)
	flag.StringVar(&migrationsPath, "path", "", "Path to migrations directory (default: ./migrations)")
	flag.StringVar(&migrationsTable, "table", migration.DefaultMigrationsTable, "Version table name")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{Level: logLevel, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	path, err := filepath.Abs(resolveMigrationsPath(migrationsPath))
	if err != nil {
		log.Fatal("Failed to resolve migrations path", zap.Error(err))
	}
	log = log.With(zap.String("command", args[0]), zap.String("migrations_path", path))

	if err := run(log, path, migrationsTable, args[0], args[1:]); err != nil {
		log.Error("Migration command failed", zap.Error(err))
		_ = logger.Sync(log)
		os.Exit(1)
	}
	_ = logger.Sync(log)
}

func run(log *zap.Logger, path, table, command string, args []string) error {
	switch command {
	case "create":
		if len(args) == 0 {
			return errors.New("usage: migrate create <name> [description]")
		}
		description := ""
		if len(args) > 1 {
			description = args[1]
		}
		mf, err := migration.CreateMigration(path, args[0], description)
		if err != nil {
			return err
		}
		log.Info("Migration created", zap.String("up_file", mf.UpPath), zap.String("down_file", mf.DownPath))
		return nil
	case "list":
		files, err := migration.ListMigrations(path)
		if err != nil {
			return err
		}
		log.Info("Available migrations", zap.Int("count", len(files)))
		for _, f := range files {
			fmt.Println("  -", f)
		}
		return nil
	}

	cmd, ok := dbCommands[command]
	if !ok {
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	m, err := migration.New(db, migration.Config{
		MigrationsPath:  path,
		Schema:          cfg.Database.Schema,
		MigrationsTable: table,
	}, log)
	if err != nil {
		return err
	}
	defer m.Close()
	return cmd(m, log, args)
}

func intArg(args []string, usage string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("usage: migrate %s", usage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", args[0])
	}
	return n, nil
}

// resolveMigrationsPath prefers the flag, then ./migrations, then the
// directory two levels above the binary (bin/<os>/migrate layouts).
func resolveMigrationsPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if _, err := os.Stat(defaultMigrationsPath); err == nil {
		return defaultMigrationsPath
	}
	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), "..", "..", defaultMigrationsPath)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return defaultMigrationsPath
}

func hasConfirm(args []string) bool {
	for _, arg := range args {
		if arg == "-confirm" || arg == "--confirm" {
			return true
		}
	}
	return false
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Anchala POS schema migrations

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down -confirm         Roll back all migrations (drops sales history)
  step <n>              Apply n migrations (positive=up, negative=down)
  goto <version>        Migrate to a specific version
  version               Show current migration version
  status                Show version, dirty flag and pending files
  force <version>       Force set migration version (clears the dirty flag)
  create <name> [desc]  Create a new migration file pair
  list                  List available migrations

Flags:
  -path string          Path to migrations directory (default: ./migrations)
  -table string         Version table (default: pos_schema_migrations)
  -log-level string     Log level: debug, info, warn, error (default: info)

Database settings come from config.toml or POS_DATABASE_* variables.`)
}
