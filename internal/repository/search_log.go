package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relaydesk/relaydesk/internal/domain"
)

// SearchLogRepository stores retrieval logs for relevance debugging.
type SearchLogRepository struct {
	pool *pgxpool.Pool
}

func NewSearchLogRepository(pool *pgxpool.Pool) *SearchLogRepository {
	return &SearchLogRepository{pool: pool}
}

func (r *SearchLogRepository) Insert(ctx context.Context, entry *domain.SearchLog) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO search_logs (id, business_id, widget_id, query, collection, result_count, top_score, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID,
		nullable(entry.BusinessID),
		nullable(entry.WidgetID),
		entry.Query,
		entry.Collection,
		entry.ResultCount,
		entry.TopScore,
		entry.CreatedAt,
	)
	return err
}

// RecentByBusiness returns the latest retrievals for a business, newest
// first.
func (r *SearchLogRepository) RecentByBusiness(ctx context.Context, businessID string, limit int) ([]*domain.SearchLog, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, business_id, widget_id, query, collection, result_count, top_score, created_at
		 FROM search_logs
		 WHERE business_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		businessID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.SearchLog
	for rows.Next() {
		var entry domain.SearchLog
		var businessID, widgetID *string
		if err := rows.Scan(&entry.ID, &businessID, &widgetID, &entry.Query, &entry.Collection,
			&entry.ResultCount, &entry.TopScore, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if businessID != nil {
			entry.BusinessID = *businessID
		}
		if widgetID != nil {
			entry.WidgetID = *widgetID
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
