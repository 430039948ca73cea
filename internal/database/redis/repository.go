// Package redis stores short URL records as Redis hashes, one key per short code.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vadimbarashkov/shortlink/internal/database"
	"github.com/vadimbarashkov/shortlink/internal/models"
)

const (
	fieldShortCode   = "short_code"
	fieldLongURL     = "long_url"
	fieldClickCount  = "click_count"
	fieldIsActive    = "is_active"
	fieldCreatedByIP = "created_by_ip"
	fieldCreatedAt   = "created_at"
)

// createScript writes the hash only if the key does not exist yet.
var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1],
	'short_code', ARGV[1],
	'long_url', ARGV[2],
	'click_count', ARGV[3],
	'is_active', ARGV[4],
	'created_at', ARGV[5])
if ARGV[6] ~= '' then
	redis.call('HSET', KEYS[1], 'created_by_ip', ARGV[6])
end
return 1
`)

// incrementScript bumps click_count only for existing keys, returning -1 otherwise.
var incrementScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
return redis.call('HINCRBY', KEYS[1], 'click_count', 1)
`)

type URLRepository struct {
	client    redis.UniversalClient
	keyPrefix string
}

func NewURLRepository(client redis.UniversalClient, keyPrefix string) *URLRepository {
	return &URLRepository{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (r *URLRepository) key(shortCode string) string {
	return r.keyPrefix + ":" + shortCode
}

func (r *URLRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "database.redis.URLRepository.GetByShortCode"

	fields, err := r.client.HGetAll(ctx, r.key(shortCode)).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url record: %w", op, err)
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
	}

	url, err := toURL(shortCode, fields)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return url, nil
}

func (r *URLRepository) Create(ctx context.Context, url *models.URL) error {
	const op = "database.redis.URLRepository.Create"

	created, err := createScript.Run(ctx, r.client, []string{r.key(url.ShortCode)},
		url.ShortCode,
		url.OriginalURL,
		url.ClickCount,
		formatBool(url.IsActive),
		url.CreatedAt.UTC().Format(time.RFC3339Nano),
		url.CreatedByIP,
	).Int()
	if err != nil {
		return fmt.Errorf("%s: failed to create url record: %w", op, err)
	}

	if created == 0 {
		return fmt.Errorf("%s: %w", op, database.ErrShortCodeExists)
	}

	return nil
}

func (r *URLRepository) IncrementClickCount(ctx context.Context, shortCode string) error {
	const op = "database.redis.URLRepository.IncrementClickCount"

	count, err := incrementScript.Run(ctx, r.client, []string{r.key(shortCode)}).Int64()
	if err != nil {
		return fmt.Errorf("%s: failed to increment click count: %w", op, err)
	}

	if count < 0 {
		return fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
	}

	return nil
}

// toURL converts a stored hash into a record. Missing click_count and
// is_active fields default to 0 and true.
func toURL(shortCode string, fields map[string]string) (*models.URL, error) {
	url := &models.URL{
		ShortCode:   shortCode,
		OriginalURL: fields[fieldLongURL],
		IsActive:    true,
		CreatedByIP: fields[fieldCreatedByIP],
	}

	if v, ok := fields[fieldShortCode]; ok && v != "" {
		url.ShortCode = v
	}

	if v, ok := fields[fieldClickCount]; ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", fieldClickCount, v, err)
		}
		url.ClickCount = n
	}

	if v, ok := fields[fieldIsActive]; ok {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", fieldIsActive, v, err)
		}
		url.IsActive = active
	}

	if v, ok := fields[fieldCreatedAt]; ok {
		createdAt, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", fieldCreatedAt, v, err)
		}
		url.CreatedAt = createdAt.UTC()
	}

	if url.OriginalURL == "" {
		return nil, errors.New("record has no long_url")
	}

	return url, nil
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
