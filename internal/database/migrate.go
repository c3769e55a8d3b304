package database

import (
    "context"
    "database/sql"
    _ "embed"
    "fmt"
    "strings"
)

//go:embed schema.sql
var schema string

// Migrate applies the embedded schema.  Every statement uses CREATE
// TABLE IF NOT EXISTS so the call is idempotent and safe to run on
// every startup.
func Migrate(ctx context.Context, db *sql.DB) error {
    for _, stmt := range strings.Split(schema, ";") {
        stmt = strings.TrimSpace(stmt)
        if stmt == "" {
            continue
        }
        if _, err := db.ExecContext(ctx, stmt); err != nil {
            return fmt.Errorf("apply schema: %w", err)
        }
    }
    return nil
}
