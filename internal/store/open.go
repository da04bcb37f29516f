package store

import "strings"

// Open selects a backend from a DB_URL-shaped data source: a
// "postgres://" or "postgresql://" prefix connects to Postgres, and a
// "sqlite://" prefix (or anything else, treated as a filesystem path)
// opens a SQLite database. Mirrors appliancedb.Connect's single
// connection-string entry point (bg/cloud_models/appliancedb).
func Open(dataSource string) (Repository, error) {
	switch {
	case strings.HasPrefix(dataSource, "postgres://"), strings.HasPrefix(dataSource, "postgresql://"):
		return ConnectPostgres(dataSource)
	case strings.HasPrefix(dataSource, "sqlite://"):
		return ConnectSqlite(strings.TrimPrefix(dataSource, "sqlite://"))
	default:
		return ConnectSqlite(dataSource)
	}
}
