package history

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed migrations
var migrationFiles embed.FS

// runMigrations applies every pending .up.sql file for the backend, in
// lexical order, each inside its own transaction. Applied versions are
// tracked in schema_migrations.
func runMigrations(sqlDB *sql.DB, dbType string) error {
	if err := ensureSchemaMigrationsTable(sqlDB, dbType); err != nil {
		return err
	}

	dir := "migrations/" + dbType
	entries, err := fs.ReadDir(migrationFiles, dir)
	if err != nil {
		return fmt.Errorf("failed to read embedded migrations for %s: %w", dbType, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		applied, err := migrationApplied(sqlDB, dbType, name)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		script, err := migrationFiles.ReadFile(dir + "/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		tx, err := sqlDB.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %s: %w", name, err)
		}
		// Drivers disagree on multi-statement Exec, so run one statement at
		// a time. The migration files contain no literal semicolons.
		if err := execStatements(tx, string(script)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
		if _, err := tx.Exec(placeholders(dbType, "INSERT INTO schema_migrations (version) VALUES (?)"), name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", name, err)
		}
	}

	return nil
}

func execStatements(tx *sql.Tx, script string) error {
	for _, stmt := range strings.Split(script, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func ensureSchemaMigrationsTable(sqlDB *sql.DB, dbType string) error {
	// MySQL limits indexed VARCHAR length under utf8mb4, hence 191.
	versionType := "TEXT"
	if dbType == "mysql" {
		versionType = "VARCHAR(191)"
	}
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version %s PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`, versionType)
	if _, err := sqlDB.Exec(stmt); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}
	return nil
}

func migrationApplied(sqlDB *sql.DB, dbType, version string) (bool, error) {
	var count int
	query := placeholders(dbType, "SELECT COUNT(*) FROM schema_migrations WHERE version = ?")
	if err := sqlDB.QueryRow(query, version).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check migration state for %s: %w", version, err)
	}
	return count > 0, nil
}

// placeholders rewrites ? markers to the $N form Postgres requires.
func placeholders(dbType, query string) string {
	if dbType != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
