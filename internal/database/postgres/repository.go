package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortlink/internal/database"
	"github.com/vadimbarashkov/shortlink/internal/models"
)

type urlRecord struct {
	ShortCode   string         `db:"short_code"`
	OriginalURL string         `db:"long_url"`
	ClickCount  int64          `db:"click_count"`
	IsActive    bool           `db:"is_active"`
	CreatedByIP sql.NullString `db:"created_by_ip"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (r *urlRecord) ToURL() *models.URL {
	return &models.URL{
		ShortCode:   r.ShortCode,
		OriginalURL: r.OriginalURL,
		ClickCount:  r.ClickCount,
		IsActive:    r.IsActive,
		CreatedByIP: r.CreatedByIP.String,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{
		db: db,
	}
}

func (r *URLRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.GetByShortCode"

	rec := new(urlRecord)
	query := `SELECT short_code, long_url, click_count, is_active, created_by_ip, created_at
		FROM short_urls
		WHERE short_code = $1`

	err := r.db.GetContext(ctx, rec, query, shortCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

func (r *URLRepository) Create(ctx context.Context, url *models.URL) error {
	const op = "database.postgres.URLRepository.Create"

	query := `INSERT INTO short_urls(short_code, long_url, click_count, is_active, created_by_ip, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	createdByIP := sql.NullString{String: url.CreatedByIP, Valid: url.CreatedByIP != ""}

	_, err := r.db.ExecContext(ctx, query,
		url.ShortCode, url.OriginalURL, url.ClickCount, url.IsActive, createdByIP, url.CreatedAt)
	if err != nil {
		if isUniqueViolationError(err) {
			return fmt.Errorf("%s: %w", op, database.ErrShortCodeExists)
		}

		return fmt.Errorf("%s: failed to create url record: %w", op, err)
	}

	return nil
}

func (r *URLRepository) IncrementClickCount(ctx context.Context, shortCode string) error {
	const op = "database.postgres.URLRepository.IncrementClickCount"

	query := `UPDATE short_urls
		SET click_count = click_count + 1
		WHERE short_code = $1`

	res, err := r.db.ExecContext(ctx, query, shortCode)
	if err != nil {
		return fmt.Errorf("%s: failed to increment click count: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get number of affected rows: %w", op, err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
	}

	return nil
}
