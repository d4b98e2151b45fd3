package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// Migrator applies the schema of the sales_orders and products tables.
type Migrator struct {
	migrate *migrate.Migrate
	source  source.Driver
	log     *zap.Logger
}

// Status is the schema state of the database.
type Status struct {
	Version uint
	Dirty   bool
	Pending []uint
}

// NewFromFS reads migrations from an embedded filesystem, normally migrations.FS.
func NewFromFS(db *sql.DB, fsys fs.FS, log *zap.Logger) (*Migrator, error) {
	src, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	return newMigrator(db, "iofs", src, log)
}

// NewFromDir reads migrations from a directory on disk.
func NewFromDir(db *sql.DB, dir string, log *zap.Logger) (*Migrator, error) {
	src, err := source.Open("file://" + dir)
	if err != nil {
		return nil, fmt.Errorf("open migrations in %s: %w", dir, err)
	}
	return newMigrator(db, "file", src, log)
}

func newMigrator(db *sql.DB, sourceName string, src source.Driver, log *zap.Logger) (*Migrator, error) {
	if log == nil {
		log = zap.NewNop()
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance(sourceName, src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("migrate instance: %w", err)
	}
	log = log.Named("migrate")
	m.Log = migrateLogger{log: log}
	return &Migrator{migrate: m, source: src, log: log}, nil
}

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) error {
	return m.apply(ctx, "up", m.migrate.Up)
}

// Down rolls back every applied migration.
func (m *Migrator) Down(ctx context.Context) error {
	return m.apply(ctx, "down", m.migrate.Down)
}

// Steps applies n migrations, rolling back when n is negative.
func (m *Migrator) Steps(ctx context.Context, n int) error {
	return m.apply(ctx, fmt.Sprintf("steps %d", n), func() error { return m.migrate.Steps(n) })
}

// GoTo migrates up or down to version.
func (m *Migrator) GoTo(ctx context.Context, version uint) error {
	return m.apply(ctx, fmt.Sprintf("goto %d", version), func() error { return m.migrate.Migrate(version) })
}

// apply runs fn, asking golang-migrate to stop after the current file once
// ctx is cancelled.
func (m *Migrator) apply(ctx context.Context, op string, fn func() error) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.migrate.GracefulStop <- true
		case <-done:
		}
	}()

	err := fn()
	if errors.Is(err, migrate.ErrNoChange) {
		m.log.Info("Schema already up to date", zap.String("op", op))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", op, err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("migrate %s interrupted: %w", op, err)
	}

	st, err := m.Status()
	if err != nil {
		return err
	}
	m.log.Info("Migrations applied",
		zap.String("op", op),
		zap.Uint("version", st.Version),
		zap.Int("pending", len(st.Pending)),
	)
	return nil
}

// Status reports the applied version and the versions still to apply.
func (m *Migrator) Status() (Status, error) {
	var st Status
	version, dirty, err := m.migrate.Version()
	applied := true
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		applied = false
	case err != nil:
		return st, fmt.Errorf("read schema version: %w", err)
	}
	st.Version, st.Dirty = version, dirty

	st.Pending, err = pendingVersions(m.source, version, applied)
	if err != nil {
		return st, err
	}
	return st, nil
}

// pendingVersions walks the source in order and keeps what lies past current.
func pendingVersions(src source.Driver, current uint, applied bool) ([]uint, error) {
	var pending []uint
	v, err := src.First()
	for err == nil {
		if !applied || v > current {
			pending = append(pending, v)
		}
		v, err = src.Next(v)
	}
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, fs.ErrNotExist) {
		return pending, nil
	}
	return nil, fmt.Errorf("walk migrations: %w", err)
}

// Force records version as applied and clean without running anything.
// It repairs a database left dirty by a failed migration.
func (m *Migrator) Force(version int) error {
	m.log.Warn("Forcing schema version", zap.Int("version", version))
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

// Close releases the source and the database driver. The driver owns the
// *sql.DB it was built from, so a pool shared with gorm must not be closed
// this way.
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	return errors.Join(sourceErr, dbErr)
}

// migrateLogger sends golang-migrate progress to zap at debug.
type migrateLogger struct {
	log *zap.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool {
	return l.log.Core().Enabled(zap.DebugLevel)
}
