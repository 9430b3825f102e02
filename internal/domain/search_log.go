package domain

import "time"

// SearchLog records one retrieval for later relevance debugging.
type SearchLog struct {
	ID          string
	BusinessID  string
	WidgetID    string
	Query       string
	Collection  string
	ResultCount int
	TopScore    float32
	CreatedAt   time.Time
}
