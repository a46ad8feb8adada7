// Package source reads postings from the authoritative Postgres store.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amishk599/jobatlas/internal/model"
)

// DefaultTable is the source table read when none is configured.
const DefaultTable = "jobs"

// NewPostgresPool creates and verifies a pgxpool connection pool.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return pool, nil
}

// Querier is the subset of pgxpool.Pool used by PostgresSource.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource implements model.PostingSource over one table of the
// source database.
type PostgresSource struct {
	db      Querier
	query   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewPostgresSource returns a source reading every row of table. A zero
// timeout leaves the query bounded only by the caller's context.
func NewPostgresSource(db Querier, table string, timeout time.Duration, logger *slog.Logger) *PostgresSource {
	if table == "" {
		table = DefaultTable
	}
	return &PostgresSource{
		db:      db,
		query:   selectQuery(table),
		timeout: timeout,
		logger:  logger,
	}
}

func selectQuery(table string) string {
	ident := pgx.Identifier(strings.Split(table, ".")).Sanitize()
	return `SELECT id, title, description, tags, short_name, long_name,
	               duty_station, duty_country, duty_continent, up_grade,
	               posting_date, apply_until, archived, url
	        FROM ` + ident + `
	        ORDER BY id`
}

// FetchPostings returns all current postings ordered by id.
func (s *PostgresSource) FetchPostings(ctx context.Context) ([]model.Posting, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := s.db.Query(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("querying source postings: %w", err)
	}
	defer rows.Close()

	var postings []model.Posting
	for rows.Next() {
		var (
			p                                          model.Posting
			title, desc, tags, short, long             *string
			station, country, continent, grade, jobURL *string
			archived                                   *bool
			postedRaw, deadlineRaw                     any
		)
		if err := rows.Scan(
			&p.ID, &title, &desc, &tags, &short, &long,
			&station, &country, &continent, &grade,
			&postedRaw, &deadlineRaw, &archived, &jobURL,
		); err != nil {
			return nil, fmt.Errorf("scanning source posting: %w", err)
		}
		p.PostingDate = s.parseDate(p.ID, "posting_date", postedRaw)
		p.ApplyUntil = s.parseDate(p.ID, "apply_until", deadlineRaw)
		p.Title = strings.TrimSpace(deref(title))
		p.Description = deref(desc)
		p.Labels = ParseLabels(deref(tags))
		p.AgencyShort = strings.TrimSpace(deref(short))
		p.AgencyLong = strings.TrimSpace(deref(long))
		p.DutyStation = strings.TrimSpace(deref(station))
		p.DutyCountry = strings.TrimSpace(deref(country))
		p.DutyContinent = strings.TrimSpace(deref(continent))
		p.Grade = strings.TrimSpace(deref(grade))
		p.URL = strings.TrimSpace(deref(jobURL))
		p.Archived = archived != nil && *archived
		postings = append(postings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading source postings: %w", err)
	}

	s.logger.Debug("fetched source postings", "count", len(postings), "duration_ms", time.Since(start).Milliseconds())
	return postings, nil
}

// dateLayouts are the textual date forms accepted when the source column is
// not a native date or timestamp.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-07",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDate maps a raw date column to a time. NULL, empty and unparseable
// values become nil so one bad row never fails the fetch.
func (s *PostgresSource) parseDate(id int64, column string, raw any) *time.Time {
	t, ok := ParseDate(raw)
	if !ok {
		s.logger.Debug("ignoring unparseable source date", "id", id, "column", column, "value", raw)
		return nil
	}
	return t
}

// ParseDate converts a scanned date value to a time. It reports false only
// for values that are present but unparseable; NULL yields (nil, true).
func ParseDate(raw any) (*time.Time, bool) {
	var text string
	switch v := raw.(type) {
	case nil:
		return nil, true
	case time.Time:
		return &v, true
	case *time.Time:
		return v, true
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		return nil, false
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return &t, true
		}
	}
	return nil, false
}

// ParseLabels splits the comma-separated label text of the source, trimming
// each label and dropping empty ones.
func ParseLabels(raw string) []string {
	var labels []string
	for _, part := range strings.Split(raw, ",") {
		if l := strings.TrimSpace(part); l != "" {
			labels = append(labels, l)
		}
	}
	return labels
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
