package models

import "time"

// URL represents a shortened URL record and its click statistics.
type URL struct {
	// ShortCode is the unique alphanumeric key associated with the original URL.
	ShortCode string
	// OriginalURL is the validated destination the short code redirects to.
	OriginalURL string
	// ClickCount tracks the number of redirects served for the short code.
	ClickCount int64
	// IsActive gates redirects. Inactive records still resolve for stats.
	IsActive bool
	// CreatedByIP is the client address that created the record, empty when unknown.
	CreatedByIP string
	// CreatedAt is the timestamp indicating when the record was created.
	CreatedAt time.Time
}

// ClickEvent describes a single served redirect.
type ClickEvent struct {
	ID        string    `json:"id"`
	ShortCode string    `json:"short_code"`
	ClientIP  string    `json:"client_ip,omitempty"`
	UserAgent string    `json:"user_agent"`
	Timestamp time.Time `json:"timestamp"`
}
