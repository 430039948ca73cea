package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/shortlink/internal/database"
	"github.com/vadimbarashkov/shortlink/internal/models"
)

type URLRepositoryTestSuite struct {
	suite.Suite
	errUnknown      error
	errAffectedRows error
	createdAt       time.Time
	columns         []string
	mock            sqlmock.Sqlmock
	repo            *URLRepository
}

func (suite *URLRepositoryTestSuite) SetupSuite() {
	suite.errUnknown = errors.New("unknown error")
	suite.errAffectedRows = errors.New("affected rows error")
	suite.createdAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	suite.columns = []string{"short_code", "long_url", "click_count", "is_active", "created_by_ip", "created_at"}
}

func (suite *URLRepositoryTestSuite) SetupSubTest() {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		suite.T().Fatalf("Failed to create mock database: %v", err)
	}
	suite.T().Cleanup(func() {
		mockDB.Close()
	})

	db := sqlx.NewDb(mockDB, "sqlmock")

	suite.mock = mock
	suite.repo = NewURLRepository(db)
}

func (suite *URLRepositoryTestSuite) TearDownSubTest() {
	suite.NoError(suite.mock.ExpectationsWereMet())
}

func (suite *URLRepositoryTestSuite) TestGetByShortCode() {
	suite.Run("url not found", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM short_urls`).
			WithArgs("abc123").
			WillReturnError(sql.ErrNoRows)

		url, err := suite.repo.GetByShortCode(context.Background(), "abc123")

		suite.ErrorIs(err, database.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM short_urls`).
			WithArgs("abc123").
			WillReturnError(suite.errUnknown)

		url, err := suite.repo.GetByShortCode(context.Background(), "abc123")

		suite.ErrorIs(err, suite.errUnknown)
		suite.NotErrorIs(err, database.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		rows := sqlmock.NewRows(suite.columns).
			AddRow("abc123", "https://example.com", int64(3), true, "203.0.113.7", suite.createdAt)

		suite.mock.ExpectQuery(`SELECT (.+) FROM short_urls`).
			WithArgs("abc123").
			WillReturnRows(rows)

		url, err := suite.repo.GetByShortCode(context.Background(), "abc123")

		suite.NoError(err)
		suite.Equal(&models.URL{
			ShortCode:   "abc123",
			OriginalURL: "https://example.com",
			ClickCount:  3,
			IsActive:    true,
			CreatedByIP: "203.0.113.7",
			CreatedAt:   suite.createdAt,
		}, url)
	})

	suite.Run("success without creator ip", func() {
		rows := sqlmock.NewRows(suite.columns).
			AddRow("abc123", "https://example.com", int64(0), false, nil, suite.createdAt)

		suite.mock.ExpectQuery(`SELECT (.+) FROM short_urls`).
			WithArgs("abc123").
			WillReturnRows(rows)

		url, err := suite.repo.GetByShortCode(context.Background(), "abc123")

		suite.NoError(err)
		suite.Require().NotNil(url)
		suite.Empty(url.CreatedByIP)
		suite.False(url.IsActive)
	})
}

func (suite *URLRepositoryTestSuite) TestCreate() {
	url := &models.URL{
		ShortCode:   "abc123",
		OriginalURL: "https://example.com",
		IsActive:    true,
		CreatedByIP: "203.0.113.7",
		CreatedAt:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	suite.Run("short code exists", func() {
		suite.mock.ExpectExec(`INSERT INTO short_urls`).
			WithArgs("abc123", "https://example.com", int64(0), true, "203.0.113.7", sqlmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: uniqueViolationErrCode})

		err := suite.repo.Create(context.Background(), url)

		suite.ErrorIs(err, database.ErrShortCodeExists)
	})

	suite.Run("unknown error", func() {
		suite.mock.ExpectExec(`INSERT INTO short_urls`).
			WithArgs("abc123", "https://example.com", int64(0), true, "203.0.113.7", sqlmock.AnyArg()).
			WillReturnError(suite.errUnknown)

		err := suite.repo.Create(context.Background(), url)

		suite.ErrorIs(err, suite.errUnknown)
	})

	suite.Run("success", func() {
		suite.mock.ExpectExec(`INSERT INTO short_urls`).
			WithArgs("abc123", "https://example.com", int64(0), true, "203.0.113.7", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := suite.repo.Create(context.Background(), url)

		suite.NoError(err)
	})

	suite.Run("success without creator ip", func() {
		anonymous := *url
		anonymous.CreatedByIP = ""

		suite.mock.ExpectExec(`INSERT INTO short_urls`).
			WithArgs("abc123", "https://example.com", int64(0), true, nil, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := suite.repo.Create(context.Background(), &anonymous)

		suite.NoError(err)
	})
}

func (suite *URLRepositoryTestSuite) TestIncrementClickCount() {
	suite.Run("unknown error", func() {
		suite.mock.ExpectExec(`UPDATE short_urls`).
			WithArgs("abc123").
			WillReturnError(suite.errUnknown)

		err := suite.repo.IncrementClickCount(context.Background(), "abc123")

		suite.ErrorIs(err, suite.errUnknown)
	})

	suite.Run("affected rows error", func() {
		suite.mock.ExpectExec(`UPDATE short_urls`).
			WithArgs("abc123").
			WillReturnResult(sqlmock.NewErrorResult(suite.errAffectedRows))

		err := suite.repo.IncrementClickCount(context.Background(), "abc123")

		suite.ErrorIs(err, suite.errAffectedRows)
	})

	suite.Run("url not found", func() {
		suite.mock.ExpectExec(`UPDATE short_urls`).
			WithArgs("abc123").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := suite.repo.IncrementClickCount(context.Background(), "abc123")

		suite.ErrorIs(err, database.ErrURLNotFound)
	})

	suite.Run("success", func() {
		suite.mock.ExpectExec(`UPDATE short_urls SET click_count = click_count \+ 1`).
			WithArgs("abc123").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := suite.repo.IncrementClickCount(context.Background(), "abc123")

		suite.NoError(err)
	})
}

func TestURLRepository(t *testing.T) {
	suite.Run(t, new(URLRepositoryTestSuite))
}
