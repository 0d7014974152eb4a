package store

import (
	"fmt"
	"time"
)

// dialect isolates the SQL differences between the two supported drivers
// so RelationalEngine stays dialect-neutral. Everything else (statement
// shape, parameter binding, transactions) is shared.
type dialect interface {
	driverName() string
	placeholder(n int) string
	identityColumn() string
	columnType(k valueKind) string
	tableExistsQuery() string
	listTablesQuery() string
	noLimit() string
	// bindTime converts a timestamp into the parameter form the driver
	// stores losslessly.
	bindTime(t time.Time) any
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case "pgx", "postgres":
		return postgresDialect{}, nil
	case "sqlite":
		return sqliteDialect{}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported database driver %q", ErrInvalidInput, driver)
	}
}

type postgresDialect struct{}

func (postgresDialect) driverName() string { return "pgx" }

func (postgresDialect) placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (postgresDialect) identityColumn() string { return `"id" SERIAL PRIMARY KEY` }

func (postgresDialect) columnType(k valueKind) string {
	switch k {
	case kindInt:
		return "INTEGER"
	case kindFloat:
		return "NUMERIC"
	case kindBool:
		return "BOOLEAN"
	case kindTime:
		return "TIMESTAMP"
	case kindJSON:
		return "JSONB"
	default:
		return "TEXT"
	}
}

func (postgresDialect) tableExistsQuery() string {
	return `SELECT EXISTS (
		SELECT FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name = $1
	)`
}

func (postgresDialect) listTablesQuery() string {
	return `SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'public' ORDER BY table_name`
}

func (postgresDialect) noLimit() string { return "ALL" }

func (postgresDialect) bindTime(t time.Time) any { return t }

type sqliteDialect struct{}

func (sqliteDialect) driverName() string { return "sqlite" }

func (sqliteDialect) placeholder(int) string { return "?" }

func (sqliteDialect) identityColumn() string { return `"id" INTEGER PRIMARY KEY AUTOINCREMENT` }

func (sqliteDialect) columnType(k valueKind) string {
	switch k {
	case kindInt:
		return "INTEGER"
	case kindFloat:
		return "NUMERIC"
	case kindBool:
		return "BOOLEAN"
	case kindTime:
		return "TIMESTAMP"
	case kindJSON:
		// SQLite stores these as JSON text; the JSON declared type lets
		// reads rebuild the structured value.
		return "JSON"
	default:
		return "TEXT"
	}
}

func (sqliteDialect) tableExistsQuery() string {
	return `SELECT EXISTS (
		SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?
	)`
}

func (sqliteDialect) listTablesQuery() string {
	return `SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
}

func (sqliteDialect) noLimit() string { return "-1" }

// SQLite has no timestamp type; store a fixed text layout so reads can
// parse it back regardless of driver time settings.
func (sqliteDialect) bindTime(t time.Time) any {
	return t.Format("2006-01-02 15:04:05.999999999-07:00")
}
