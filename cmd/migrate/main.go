// Command migrate manages the focco-sync PostgreSQL schema.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/erp/focco-sync/internal/infrastructure/config"
	"github.com/erp/focco-sync/internal/infrastructure/logger"
	"github.com/erp/focco-sync/internal/infrastructure/migration"
	"github.com/erp/focco-sync/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const usage = `focco-sync schema migrations

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (negative rolls back)
  goto <version>        Migrate up or down to a version
  status                Show the applied version and pending migrations
  force <version>       Mark a version as applied (repairs a dirty schema)
  create <name> [desc]  Write a new up/down pair into -dir

Flags:
  -config string        Config file (default: search ., ./config, /etc/focco-sync)
  -dir string           Migrations directory (default: the migrations built into the binary)
  -log-level string     debug, info, warn or error (default: info)

The connection comes from the database section of the config, overridable
with FOCCO_SYNC_DATABASE_* variables.`

var errUsage = errors.New("invalid usage")

func main() {
	var (
		configPath string
		dir        string
		logLevel   string
	)
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&dir, "dir", "", "Migrations directory instead of the embedded ones")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	log, err := logger.New(logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, log, configPath, dir, flag.Args())
	stop()
	_ = log.Sync()

	switch {
	case errors.Is(err, errUsage):
		fmt.Fprintf(os.Stderr, "%v\n\n%s\n", err, usage)
		os.Exit(2)
	case err != nil:
		log.Error("Migration command failed", zap.String("command", flag.Arg(0)), zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *zap.Logger, configPath, dir string, args []string) error {
	command, rest := args[0], args[1:]

	// create never touches the database
	if command == "create" {
		return create(log, configPath, dir, rest)
	}

	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping database %s: %w", cfg.Database.DBName, err)
	}

	var m *migration.Migrator
	if dir != "" {
		log.Info("Using migrations directory", zap.String("dir", dir))
		m, err = migration.NewFromDir(db, dir, log)
	} else {
		m, err = migration.NewFromFS(db, migrations.FS, log)
	}
	if err != nil {
		_ = db.Close()
		return err
	}
	// closes db as well
	defer func() { _ = m.Close() }()

	switch command {
	case "up":
		return m.Up(ctx)
	case "down":
		return m.Down(ctx)
	case "step":
		n, err := intArg(rest, "step <n>")
		if err != nil {
			return err
		}
		return m.Steps(ctx, n)
	case "goto":
		v, err := intArg(rest, "goto <version>")
		if err != nil {
			return err
		}
		if v < 0 {
			return fmt.Errorf("%w: version must not be negative", errUsage)
		}
		return m.GoTo(ctx, uint(v))
	case "force":
		v, err := intArg(rest, "force <version>")
		if err != nil {
			return err
		}
		return m.Force(v)
	case "status":
		st, err := m.Status()
		if err != nil {
			return err
		}
		fmt.Printf("version: %d\ndirty:   %t\npending: %d\n", st.Version, st.Dirty, len(st.Pending))
		for _, v := range st.Pending {
			fmt.Println("  -", v)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, command)
}

func create(log *zap.Logger, configPath, dir string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: create <name> [description]", errUsage)
	}
	if dir == "" {
		cfg, err := config.LoadFile(configPath)
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		dir = cfg.Database.MigrationsPath
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	description := ""
	if len(args) > 1 {
		description = args[1]
	}
	mf, err := migration.CreateMigration(dir, args[0], description, time.Now())
	if err != nil {
		return err
	}
	log.Info("Migration created",
		zap.String("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath),
	)
	return nil
}

func intArg(args []string, form string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: %s", errUsage, form)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", errUsage, args[0])
	}
	return n, nil
}
