package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"gym_sales_backend/internal/config"
	"gym_sales_backend/pkg/utils"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Open creates the connection pool and verifies it with a ping.
func Open(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	utils.LogInfo("Successfully connected to the database", map[string]interface{}{"host": cfg.Host, "db": cfg.Name})
	return db, nil
}

// ApplySchema reads and executes the schema file. An empty path is a no-op.
func ApplySchema(ctx context.Context, db *sql.DB, schemaPath string) error {
	if schemaPath == "" {
		utils.LogInfo("No schema path provided, skipping schema application")
		return nil
	}
	content, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("could not read schema file %s: %w", schemaPath, err)
	}

	if _, err = db.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("could not execute schema script: %w", err)
	}
	utils.LogInfo("Database schema applied", map[string]interface{}{"path": schemaPath})
	return nil
}
