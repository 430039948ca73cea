package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vadimbarashkov/shortlink/internal/database"
	"github.com/vadimbarashkov/shortlink/internal/metrics"
	"github.com/vadimbarashkov/shortlink/internal/models"
	"github.com/vadimbarashkov/shortlink/internal/shortcode"
)

// DefaultMaxRetries bounds the number of short code candidates tried per URL.
const DefaultMaxRetries = 5

var (
	// ErrMaxRetriesExceeded is returned when no free short code was found within the retry bound.
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating short code")
	// ErrURLInactive is returned when a short code exists but has been disabled.
	ErrURLInactive = errors.New("url is no longer active")
	// ErrPersistence marks failures of the underlying store.
	ErrPersistence = errors.New("persistence failure")
)

// URLRepository defines the store operations the service depends on.
type URLRepository interface {
	// GetByShortCode retrieves a record by its short code.
	// Returns database.ErrURLNotFound if there is no such record.
	GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error)

	// Create inserts a new record unless its short code is taken,
	// in which case database.ErrShortCodeExists is returned.
	Create(ctx context.Context, url *models.URL) error
}

// CodeGenerator produces short code candidates.
type CodeGenerator interface {
	Generate() (string, error)
}

// ClickRecorder accepts click events for asynchronous processing.
// Record must not block.
type ClickRecorder interface {
	Record(event models.ClickEvent)
}

// Visit carries the request attributes attached to a click event.
type Visit struct {
	ClientIP  string
	UserAgent string
}

type Option func(*URLService)

func WithGenerator(g CodeGenerator) Option {
	return func(s *URLService) {
		s.generator = g
	}
}

func WithMaxRetries(n int) Option {
	return func(s *URLService) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *URLService) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *URLService) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *URLService) {
		s.now = now
	}
}

// URLService implements shortening, redirect resolution and stats lookup
// on top of a URLRepository.
type URLService struct {
	repo       URLRepository
	recorder   ClickRecorder
	generator  CodeGenerator
	maxRetries int
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewURLService creates a new instance of URLService with the provided repository and click recorder.
func NewURLService(repo URLRepository, recorder ClickRecorder, opts ...Option) *URLService {
	s := &URLService{
		repo:       repo,
		recorder:   recorder,
		generator:  shortcode.NewGenerator(shortcode.DefaultLength),
		maxRetries: DefaultMaxRetries,
		logger:     slog.New(slog.DiscardHandler),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ShortenURL validates originalURL, picks an unused short code and stores a new record.
// clientIP may be empty.
func (s *URLService) ShortenURL(ctx context.Context, originalURL, clientIP string) (*models.URL, error) {
	const op = "service.URLService.ShortenURL"

	if err := ValidateURL(originalURL); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i := 0; i < s.maxRetries; i++ {
		shortCode, err := s.generator.Generate()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		_, err = s.repo.GetByShortCode(ctx, shortCode)
		if err == nil {
			s.metrics.ShortCodeCollision()
			continue
		}
		if !errors.Is(err, database.ErrURLNotFound) {
			return nil, fmt.Errorf("%s: failed to check short code: %w: %w", op, ErrPersistence, err)
		}

		url := &models.URL{
			ShortCode:   shortCode,
			OriginalURL: originalURL,
			ClickCount:  0,
			IsActive:    true,
			CreatedByIP: clientIP,
			CreatedAt:   s.now().UTC(),
		}

		if err := s.repo.Create(ctx, url); err != nil {
			// Another writer took the code between the lookup and the insert.
			if errors.Is(err, database.ErrShortCodeExists) {
				s.metrics.ShortCodeCollision()
				continue
			}

			return nil, fmt.Errorf("%s: failed to create url record: %w: %w", op, ErrPersistence, err)
		}

		s.logger.Info("created short url", slog.String("short_code", shortCode), slog.String("url", originalURL))
		s.metrics.URLCreated()

		return url, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

// ResolveShortCode returns the active record for shortCode and records a click for it.
// The click is processed asynchronously and never affects the result.
func (s *URLService) ResolveShortCode(ctx context.Context, shortCode string, visit Visit) (*models.URL, error) {
	const op = "service.URLService.ResolveShortCode"

	if err := ValidateShortCode(shortCode); err != nil {
		s.metrics.Redirect(metrics.OutcomeInvalid)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	url, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		if errors.Is(err, database.ErrURLNotFound) {
			s.logger.Info("short code not found", slog.String("short_code", shortCode))
			s.metrics.Redirect(metrics.OutcomeNotFound)
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		s.metrics.Redirect(metrics.OutcomeError)
		return nil, fmt.Errorf("%s: failed to resolve short code: %w: %w", op, ErrPersistence, err)
	}

	if !url.IsActive {
		s.logger.Info("inactive short code accessed", slog.String("short_code", shortCode))
		s.metrics.Redirect(metrics.OutcomeInactive)
		return nil, fmt.Errorf("%s: %w", op, ErrURLInactive)
	}

	userAgent := visit.UserAgent
	if userAgent == "" {
		userAgent = "Unknown"
	}

	if s.recorder != nil {
		s.recorder.Record(models.ClickEvent{
			ID:        uuid.NewString(),
			ShortCode: shortCode,
			ClientIP:  visit.ClientIP,
			UserAgent: userAgent,
			Timestamp: s.now().UTC(),
		})
	}

	s.metrics.Redirect(metrics.OutcomeRedirected)

	return url, nil
}

// GetURLStats retrieves the record for shortCode without changing it.
func (s *URLService) GetURLStats(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "service.URLService.GetURLStats"

	if err := ValidateShortCode(shortCode); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	url, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		if errors.Is(err, database.ErrURLNotFound) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return nil, fmt.Errorf("%s: failed to get url stats: %w: %w", op, ErrPersistence, err)
	}

	return url, nil
}
