package migrations

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) *sql.DB {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func stubUp(t *testing.T, fn func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error) {
	t.Helper()
	orig := gooseUpContext
	gooseUpContext = fn
	t.Cleanup(func() { gooseUpContext = orig })
}

func TestSource(t *testing.T) {
	for driver, wantDialect := range map[string]string{"mysql": "mysql", "pgx": "pgx"} {
		src, dialect, err := Source(driver)
		require.NoError(t, err, driver)
		assert.Equal(t, wantDialect, dialect)

		names, err := fs.Glob(src, "*.sql")
		require.NoError(t, err)
		require.NotEmpty(t, names, driver)

		raw, err := fs.ReadFile(src, names[0])
		require.NoError(t, err)
		body := string(raw)
		assert.True(t, strings.HasPrefix(body, "-- +goose Up"), driver)
		for _, col := range []string{"id", "enabled", "create_time", "update_time", "create_by", "update_by",
			"version", "remark", "title", "content", "notice_type", "receivers"} {
			assert.Contains(t, body, "    "+col+" ", "%s migration lacks column %s", driver, col)
		}
	}

	_, _, err := Source("sqlite")
	assert.Error(t, err)
}

func TestRun_Success(t *testing.T) {
	var gotDir string
	stubUp(t, func(_ context.Context, _ *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	})

	require.NoError(t, Run(context.Background(), newDB(t), "mysql"))
	assert.Equal(t, ".", gotDir)
	require.NoError(t, Run(context.Background(), newDB(t), "pgx"))
}

func TestRun_Error(t *testing.T) {
	boom := errors.New("boom")
	stubUp(t, func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error { return boom })

	err := Run(context.Background(), newDB(t), "mysql")
	assert.ErrorIs(t, err, boom)
}

func TestRun_UnsupportedDriver(t *testing.T) {
	stubUp(t, func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		t.Fatal("goose must not run for an unknown driver")
		return nil
	})

	assert.Error(t, Run(context.Background(), newDB(t), "oracle"))
}
