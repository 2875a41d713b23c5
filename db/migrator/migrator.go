package migrator

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/eventatlas/eventatlas/db/migrations"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

type Options struct {
	Quiet bool
}

// Migrator is a database migrator
type Migrator struct {
	db   *sql.DB
	opts *Options
}

type Status struct {
	Version  uint
	Dirty    bool
	Pendings []uint
}

func (s Status) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "version: %d", s.Version)
	if s.Dirty {
		b.WriteString(" (dirty)")
	}
	if len(s.Pendings) == 0 {
		b.WriteString("\nschema is up to date")
		return b.String()
	}
	pendings := make([]string, 0, len(s.Pendings))
	for _, v := range s.Pendings {
		pendings = append(pendings, strconv.FormatUint(uint64(v), 10))
	}
	fmt.Fprintf(&b, "\n%d pending migration(s): %s", len(s.Pendings), strings.Join(pendings, ", "))
	return b.String()
}

type logger struct {
	log *zap.SugaredLogger
}

func (l *logger) Printf(format string, v ...interface{}) {
	l.log.Infof(strings.TrimSuffix(format, "\n"), v...)
}

func (l *logger) Verbose() bool {
	return false
}

func New(db *sql.DB, opts *Options) *Migrator {
	if opts == nil {
		opts = &Options{}
	}
	return &Migrator{
		db:   db,
		opts: opts,
	}
}

func (m *Migrator) init() (*migrate.Migrate, error) {
	driver, err := postgres.WithInstance(m.db, &postgres.Config{})
	if err != nil {
		return nil, err
	}

	d, err := iofs.New(migrations.SQLs, ".")
	if err != nil {
		return nil, err
	}

	mg, err := migrate.NewWithInstance("iofs", d, "postgres", driver)
	if err != nil {
		return nil, err
	}
	if !m.opts.Quiet {
		mg.Log = &logger{log: zap.S().Named("migrator")}
	}
	return mg, nil
}

// Reset drops every table
func (m *Migrator) Reset() error {
	mg, err := m.init()
	if err != nil {
		return err
	}
	return mg.Drop()
}

// Up applies all pending migrations, a no-op when the schema is up to date
func (m *Migrator) Up() error {
	mg, err := m.init()
	if err != nil {
		return err
	}
	err = mg.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// Status returns the current version and the versions not yet applied
func (m *Migrator) Status() (*Status, error) {
	mg, err := m.init()
	if err != nil {
		return nil, err
	}

	status := &Status{}
	version, dirty, err := mg.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return nil, err
	}
	status.Version = version
	status.Dirty = dirty

	versions, err := listVersions(migrations.SQLs)
	if err != nil {
		return nil, err
	}
	for _, v := range versions {
		if v > version {
			status.Pendings = append(status.Pendings, v)
		}
	}
	return status, nil
}

func listVersions(fsys fs.FS) ([]uint, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	versions := make([]uint, 0)
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		prefix, _, _ := strings.Cut(name, "_")
		v, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid migration file name: %s", name)
		}
		versions = append(versions, uint(v))
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions, nil
}
