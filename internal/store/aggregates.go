package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Overview holds table-wide totals.
type Overview struct {
	Total          int
	Agencies       int
	Countries      int
	Active         int
	MeanConfidence float64
}

// CategoryStat aggregates postings sharing a primary category.
type CategoryStat struct {
	Category       string
	Total          int
	MeanConfidence float64
	Agencies       int
	Countries      int
}

// AgencyStat aggregates postings of one agency.
type AgencyStat struct {
	Agency     string
	Total      int
	Categories int
	Countries  int
}

// Bucket is one row of a histogram.
type Bucket struct {
	Key   string
	Count int
}

// Overview returns totals over the live table.
func (s *SQLiteStore) Overview(ctx context.Context) (Overview, error) {
	var o Overview
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(DISTINCT NULLIF(agency_short, '')),
		        COUNT(DISTINCT NULLIF(duty_country, '')),
		        COALESCE(SUM(is_active), 0),
		        COALESCE(AVG(classification_confidence), 0)
		 FROM postings`,
	).Scan(&o.Total, &o.Agencies, &o.Countries, &o.Active, &o.MeanConfidence)
	if err != nil {
		return o, fmt.Errorf("querying overview: %w", err)
	}
	return o, nil
}

// CategoryStats returns one row per primary category, largest first.
func (s *SQLiteStore) CategoryStats(ctx context.Context) ([]CategoryStat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT primary_category, COUNT(*), AVG(classification_confidence),
		        COUNT(DISTINCT NULLIF(agency_short, '')), COUNT(DISTINCT NULLIF(duty_country, ''))
		 FROM postings
		 GROUP BY primary_category
		 ORDER BY COUNT(*) DESC, primary_category ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying category stats: %w", err)
	}
	defer rows.Close()

	var stats []CategoryStat
	for rows.Next() {
		var c CategoryStat
		if err := rows.Scan(&c.Category, &c.Total, &c.MeanConfidence, &c.Agencies, &c.Countries); err != nil {
			return nil, fmt.Errorf("scanning category stats: %w", err)
		}
		stats = append(stats, c)
	}
	return stats, rows.Err()
}

// AgencyStats returns one row per agency, largest first. Postings without an
// agency are left out.
func (s *SQLiteStore) AgencyStats(ctx context.Context) ([]AgencyStat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT agency_short, COUNT(*), COUNT(DISTINCT primary_category), COUNT(DISTINCT NULLIF(duty_country, ''))
		 FROM postings
		 WHERE agency_short <> ''
		 GROUP BY agency_short
		 ORDER BY COUNT(*) DESC, agency_short ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying agency stats: %w", err)
	}
	defer rows.Close()

	var stats []AgencyStat
	for rows.Next() {
		var a AgencyStat
		if err := rows.Scan(&a.Agency, &a.Total, &a.Categories, &a.Countries); err != nil {
			return nil, fmt.Errorf("scanning agency stats: %w", err)
		}
		stats = append(stats, a)
	}
	return stats, rows.Err()
}

// MonthlyCounts returns posting counts per YYYY-MM for postings dated at or
// after since, oldest month first.
func (s *SQLiteStore) MonthlyCounts(ctx context.Context, since time.Time) ([]Bucket, error) {
	return s.buckets(ctx, "monthly counts",
		`SELECT strftime('%Y-%m', posting_date) AS month, COUNT(*)
		 FROM postings
		 WHERE posting_date IS NOT NULL AND posting_date >= ?
		 GROUP BY month
		 ORDER BY month ASC`,
		since.UTC().Format(time.RFC3339),
	)
}

// GradeDistribution counts postings per grade code.
func (s *SQLiteStore) GradeDistribution(ctx context.Context) ([]Bucket, error) {
	return s.buckets(ctx, "grade distribution",
		`SELECT grade, COUNT(*) FROM postings WHERE grade <> ''
		 GROUP BY grade ORDER BY COUNT(*) DESC, grade ASC`,
	)
}

// SeniorityDistribution counts postings per inferred seniority level.
func (s *SQLiteStore) SeniorityDistribution(ctx context.Context) ([]Bucket, error) {
	return s.buckets(ctx, "seniority distribution",
		`SELECT seniority_level, COUNT(*) FROM postings
		 GROUP BY seniority_level ORDER BY COUNT(*) DESC, seniority_level ASC`,
	)
}

// TopLabels returns the most frequent labels across all postings.
func (s *SQLiteStore) TopLabels(ctx context.Context, limit int) ([]Bucket, error) {
	return s.buckets(ctx, "label frequency",
		`SELECT l.value, COUNT(*)
		 FROM postings p, json_each(p.labels) l
		 GROUP BY l.value
		 ORDER BY COUNT(*) DESC, l.value ASC
		 LIMIT ?`,
		limit,
	)
}

func (s *SQLiteStore) buckets(ctx context.Context, what, query string, args ...any) ([]Bucket, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", what, err)
	}
	defer rows.Close()

	var out []Bucket
	for rows.Next() {
		var (
			key sql.NullString
			b   Bucket
		)
		if err := rows.Scan(&key, &b.Count); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", what, err)
		}
		b.Key = key.String
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", what, err)
	}
	return out, nil
}
