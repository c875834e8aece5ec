// Package database opens the MySQL connection pool used by the
// repositories.
package database

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"

	"github.com/irfanhabeeb-002/foodshare/internal/config"
)

// Open connects to MySQL with the configured pool settings and
// verifies the connection with a bounded ping.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
