package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenInMemory(t *testing.T) {
	conn, err := Open(Config{})
	require.NoError(t, err)
	defer conn.Close()

	var n int
	require.NoError(t, conn.QueryRow("SELECT 40 + 2").Scan(&n))
	assert.Equal(t, 42, n)
}

func TestOpenCreatesFile(t *testing.T) {
	dir := t.TempDir()
	conn, err := Open(Config{DataDir: dir, DBName: "test"})
	require.NoError(t, err)
	_, err = conn.Exec("CREATE TABLE t (x INTEGER)")
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	_, err = os.Stat(filepath.Join(dir, "duckdb", "test.duckdb"))
	assert.NoError(t, err)
}
