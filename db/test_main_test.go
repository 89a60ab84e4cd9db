// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	testSchemaName string
	testBaseURL    string
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	testBaseURL = os.Getenv("DATABASE_URL")
	if testBaseURL == "" {
		os.Exit(m.Run())
	}

	if err := ensureDatabaseExists(ctx, testBaseURL); err != nil {
		fmt.Fprintln(os.Stderr, "failed to ensure database exists:", err)
		os.Exit(1)
	}

	testSchemaName = fmt.Sprintf("test_%d_%d", time.Now().UnixNano(), os.Getpid())

	if err := createTestSchema(ctx, testBaseURL, testSchemaName); err != nil {
		fmt.Fprintln(os.Stderr, "failed to create test schema:", err)
		os.Exit(1)
	}

	if err := initTestPool(ctx, testBaseURL, testSchemaName); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init test pool:", err)
		os.Exit(1)
	}

	if err := SyncSchema(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "failed to sync schema:", err)
		os.Exit(1)
	}

	code := m.Run()

	Close()

	if err := dropTestSchema(ctx, testBaseURL, testSchemaName); err != nil {
		fmt.Fprintln(os.Stderr, "failed to drop test schema:", err)
	}

	os.Exit(code)
}

func requireDatabase(t *testing.T) {
	t.Helper()

	if testBaseURL == "" {
		t.Skip("DATABASE_URL not set")
	}
}

func initTestPool(ctx context.Context, baseURL string, schemaName string) error {
	searchPathURL, err := withSearchPath(baseURL, schemaName)
	if err != nil {
		return err
	}

	config, err := pgxpool.ParseConfig(searchPathURL)
	if err != nil {
		return fmt.Errorf("failed to parse database url: %w", err)
	}

	config.MaxConns = 5
	config.MinConns = 1

	pool, err = pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create test pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	databaseURL = searchPathURL

	return nil
}

func withSearchPath(databaseURL string, schemaName string) (string, error) {
	parsed, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse database url: %w", err)
	}

	query := parsed.Query()
	query.Set("options", fmt.Sprintf("-c search_path=%s,public", schemaName))
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}

func createTestSchema(ctx context.Context, databaseURL string, schemaName string) error {
	return execAdmin(ctx, databaseURL, "CREATE SCHEMA "+pgx.Identifier{schemaName}.Sanitize())
}

func dropTestSchema(ctx context.Context, databaseURL string, schemaName string) error {
	return execAdmin(ctx, databaseURL, fmt.Sprintf("DROP SCHEMA %s CASCADE", pgx.Identifier{schemaName}.Sanitize()))
}

func execAdmin(ctx context.Context, databaseURL string, query string) error {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	defer func() {
		if err := conn.Close(ctx); err != nil {
			logger.Warn("Failed to close schema connection", "error", err)
		}
	}()

	if _, err := conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to run %q: %w", strings.Fields(query)[0], err)
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()

	requireDatabase(t)

	if _, err := pool.Exec(testContext(), `TRUNCATE kv_entries, flamego_sessions`); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}
