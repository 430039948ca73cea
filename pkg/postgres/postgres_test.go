package postgres

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		mockDB.Close()
	})

	db := sqlx.NewDb(mockDB, "sqlmock")

	for _, opt := range []Option{
		WithMaxOpenConns(7),
		WithMaxIdleConns(0),
		WithConnMaxIdleTime(time.Minute),
		WithConnMaxLifetime(time.Hour),
	} {
		opt(db)
	}

	assert.Equal(t, 7, db.Stats().MaxOpenConnections)
}
