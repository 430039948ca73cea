// Package memory provides an in-process URL repository for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vadimbarashkov/shortlink/internal/database"
	"github.com/vadimbarashkov/shortlink/internal/models"
)

type URLRepository struct {
	mu   sync.RWMutex
	urls map[string]models.URL
}

func NewURLRepository() *URLRepository {
	return &URLRepository{
		urls: make(map[string]models.URL),
	}
}

func (r *URLRepository) GetByShortCode(_ context.Context, shortCode string) (*models.URL, error) {
	const op = "database.memory.URLRepository.GetByShortCode"

	r.mu.RLock()
	defer r.mu.RUnlock()

	url, ok := r.urls[shortCode]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
	}

	return &url, nil
}

func (r *URLRepository) Create(_ context.Context, url *models.URL) error {
	const op = "database.memory.URLRepository.Create"

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.urls[url.ShortCode]; ok {
		return fmt.Errorf("%s: %w", op, database.ErrShortCodeExists)
	}

	r.urls[url.ShortCode] = *url

	return nil
}

func (r *URLRepository) IncrementClickCount(_ context.Context, shortCode string) error {
	const op = "database.memory.URLRepository.IncrementClickCount"

	r.mu.Lock()
	defer r.mu.Unlock()

	url, ok := r.urls[shortCode]
	if !ok {
		return fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
	}

	url.ClickCount++
	r.urls[shortCode] = url

	return nil
}

// SetActive flips the active flag of an existing record.
func (r *URLRepository) SetActive(_ context.Context, shortCode string, active bool) error {
	const op = "database.memory.URLRepository.SetActive"

	r.mu.Lock()
	defer r.mu.Unlock()

	url, ok := r.urls[shortCode]
	if !ok {
		return fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
	}

	url.IsActive = active
	r.urls[shortCode] = url

	return nil
}
