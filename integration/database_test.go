//go:build database

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// exerciseBackend runs the load, detect and runs commands against one backend.
func exerciseBackend(t *testing.T, env []string) {
	t.Helper()
	csvPath := writeFixtureCSV(t)

	_, err := runOutlier(t, env, "runs", "clear")
	require.NoError(t, err)

	out, err := runOutlier(t, env, "load", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 24 records")

	out, err = runOutlier(t, env, "detect", "--measure", "Trucks", "--output", "json")
	require.NoError(t, err)
	var report struct {
		RunID        int64 `json:"run_id"`
		FlaggedCount int   `json:"flagged_count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Positive(t, report.RunID)
	assert.Equal(t, 1, report.FlaggedCount)

	out, err = runOutlier(t, env, "runs", "list", "--output", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "statistical")

	_, err = runOutlier(t, env, "runs", "status")
	require.NoError(t, err)
}

// TestOutlierWithMySQL tests the outlier CLI with a MySQL backend.
func TestOutlierWithMySQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "outlier",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/outlier?parseTime=true", host, port.Port())
	exerciseBackend(t, []string{"OUTLIER_BACKEND=mysql", "OUTLIER_DB_CONNECT=" + connStr})
}

// TestOutlierWithPostgres tests the outlier CLI with a PostgreSQL backend.
func TestOutlierWithPostgres(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
	exerciseBackend(t, []string{"OUTLIER_BACKEND=postgresql", "OUTLIER_DB_CONNECT=" + connStr})
}
