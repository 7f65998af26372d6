package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/smallbiznis/entitlements/pkg/db"
	"gorm.io/gorm"
)

const migrationsDir = "sql"

//go:embed sql
var embeddedMigrations embed.FS

// Apply creates the subscription tables for the dialect of conn.
func Apply(conn *gorm.DB, dialect string) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}

	dialect = strings.ToLower(strings.TrimSpace(dialect))
	if dialect == db.DialectSQLite {
		return applySQLite(conn)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB, dialect)
}

// RunMigrations applies the embedded migrations with golang-migrate.
func RunMigrations(sqlDB *sql.DB, dialect string) error {
	if sqlDB == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir+"/"+dialect)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	var driver database.Driver
	switch dialect {
	case db.DialectPostgres:
		driver, err = postgres.WithInstance(sqlDB, &postgres.Config{})
	case db.DialectMySQL:
		driver, err = mysql.WithInstance(sqlDB, &mysql.Config{})
	default:
		return fmt.Errorf("unsupported migration dialect %q", dialect)
	}
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, dialect, driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// applySQLite runs the sqlite up scripts through gorm. The DDL is idempotent,
// so no version table is kept.
func applySQLite(conn *gorm.DB) error {
	dir := migrationsDir + "/" + db.DialectSQLite
	entries, err := fs.ReadDir(embeddedMigrations, dir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		raw, err := fs.ReadFile(embeddedMigrations, dir+"/"+name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		for _, stmt := range strings.Split(string(raw), ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if err := conn.Exec(stmt).Error; err != nil {
				return fmt.Errorf("apply %s: %w", name, err)
			}
		}
	}
	return nil
}
