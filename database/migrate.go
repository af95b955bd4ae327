package database

import (
	"database/sql"
	"embed"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/sahilchouksey/eduplatform-api/config"
	"github.com/sahilchouksey/eduplatform-api/utils/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// Migrator applies the SQL migrations that carry constraints AutoMigrate cannot express
type Migrator struct {
	db  *sql.DB
	log *logger.Logger
}

// OpenMigrator opens a plain database/sql connection through lib/pq
func OpenMigrator(env *config.EnviornmentVariable, log *logger.Logger) (*Migrator, error) {
	db, err := sql.Open("postgres", DSN(env))
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{log: log})
	if err := goose.SetDialect("postgres"); err != nil {
		db.Close()
		return nil, err
	}

	return &Migrator{db: db, log: log}, nil
}

// Run executes a goose command: up, down, status, redo or version
func (m *Migrator) Run(command string) error {
	switch command {
	case "up":
		return goose.Up(m.db, migrationsDir)
	case "down":
		return goose.Down(m.db, migrationsDir)
	case "redo":
		return goose.Redo(m.db, migrationsDir)
	case "status":
		return goose.Status(m.db, migrationsDir)
	case "version":
		return goose.Version(m.db, migrationsDir)
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
}

func (m *Migrator) Close() error {
	return m.db.Close()
}

type gooseLogger struct {
	log *logger.Logger
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.log.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.log.Fatal(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
