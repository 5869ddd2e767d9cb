package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// RequestMetric records one backend call, or one read served from the cache.
type RequestMetric struct {
	Method    string
	Path      string
	Status    int // 0 when the request never got a response
	Latency   time.Duration
	CacheHit  bool
	Timestamp time.Time
}

// Failed reports whether the call did not get a 2xx response.
func (m RequestMetric) Failed() bool {
	return m.Status < 200 || m.Status > 299
}

// Store handles persistence of metrics to SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Record saves a metric to the database.
func (s *Store) Record(ctx context.Context, m RequestMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	ts = ts.UTC()

	hit := 0
	if m.CacheHit {
		hit = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO request_metrics (method, path, status, latency_ms, cache_hit, day, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.Method, m.Path, m.Status, m.Latency.Milliseconds(), hit, ts.Format(dayLayout), ts.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record request metric: %w", err)
	}
	return nil
}

// DailyUsage represents request totals for a single day.
type DailyUsage struct {
	Date         string
	Requests     int
	CacheHits    int
	Failures     int
	AvgLatencyMS float64 // network calls only
}

// GetDailyUsage retrieves usage for the last N days, newest first.
func (s *Store) GetDailyUsage(ctx context.Context, days int) ([]DailyUsage, error) {
	since := s.now().UTC().AddDate(0, 0, -days).UnixMilli()
	rows, err := s.db.QueryContext(ctx, `
		SELECT day,
		       COUNT(*),
		       SUM(cache_hit),
		       SUM(CASE WHEN status < 200 OR status > 299 THEN 1 ELSE 0 END),
		       AVG(CASE WHEN cache_hit = 0 THEN latency_ms END)
		FROM request_metrics
		WHERE recorded_at >= ?
		GROUP BY day
		ORDER BY day DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily usage: %w", err)
	}
	defer rows.Close()

	var results []DailyUsage
	for rows.Next() {
		var (
			u   DailyUsage
			avg sql.NullFloat64
		)
		if err := rows.Scan(&u.Date, &u.Requests, &u.CacheHits, &u.Failures, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan daily usage: %w", err)
		}
		if avg.Valid {
			u.AvgLatencyMS = avg.Float64
		}
		results = append(results, u)
	}
	return results, rows.Err()
}

// Cleanup removes records older than the specified number of days and
// returns how many were deleted.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := s.now().UTC().AddDate(0, 0, -olderThanDays).UnixMilli()
	res, err := s.db.ExecContext(ctx, `DELETE FROM request_metrics WHERE recorded_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up request metrics: %w", err)
	}
	return res.RowsAffected()
}
