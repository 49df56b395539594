package db

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestReadMigrationsSortsAndSkipsJunk(t *testing.T) {
	fsys := fstest.MapFS{
		"010_later.sql":      {Data: []byte("SELECT 2;")},
		"002_add_index.sql":  {Data: []byte("SELECT 1;")},
		"README.md":          {Data: []byte("notes")},
		"nonumber_thing.sql": {Data: []byte("SELECT 3;")},
	}
	got, err := readMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Number)
	assert.Equal(t, "add_index", got[0].Name)
	assert.Equal(t, 10, got[1].Number)
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	got, err := readMigrations(Migrations())
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, 1, got[0].Number)
	assert.Contains(t, got[0].SQL, "CREATE TABLE IF NOT EXISTS leads")
}

func TestRunMigrationsAppliesPending(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	fsys := fstest.MapFS{
		"001_init.sql": {Data: []byte("CREATE TABLE things (id INT);")},
		"002_more.sql": {Data: []byte("CREATE TABLE others (id INT);")},
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM schema_migrations`).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM schema_migrations`).WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE others").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO schema_migrations").WithArgs(2, "more").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	d := Wrap(sqlDB, zaptest.NewLogger(t))
	require.NoError(t, d.RunMigrations(context.Background(), fsys))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsRollsBackOnFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	fsys := fstest.MapFS{"001_init.sql": {Data: []byte("CREATE TABLE broken;")}}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM schema_migrations`).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE broken").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err = Wrap(sqlDB, nil).RunMigrations(context.Background(), fsys)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewRequiresConnectionString(t *testing.T) {
	_, err := New(context.Background(), "", nil)
	assert.Error(t, err)
}
