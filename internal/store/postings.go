package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amishk599/jobatlas/internal/filter"
	"github.com/amishk599/jobatlas/internal/model"
)

// ErrNotFound is returned when a posting id is not in the cache.
var ErrNotFound = errors.New("posting not found")

// ReplacePostings swaps the live posting table for rows. Rows are staged in
// batches of batchSize, one transaction per batch, then promoted in a single
// transaction. A failed batch leaves the live table untouched.
func (s *SQLiteStore) ReplacePostings(ctx context.Context, rows []model.ClassifiedPosting, batchSize int) error {
	if err := s.StagePostings(ctx, rows, batchSize); err != nil {
		return err
	}
	return s.PromoteStaging(ctx)
}

// StagePostings truncates the staging table and writes rows into it.
func (s *SQLiteStore) StagePostings(ctx context.Context, rows []model.ClassifiedPosting, batchSize int) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM "+stagingTable); err != nil {
		return fmt.Errorf("truncating staging table: %w", err)
	}
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		if err := s.insertBatch(ctx, stagingTable, rows[start:end]); err != nil {
			return fmt.Errorf("staging batch %d-%d: %w", start, end, err)
		}
	}
	return nil
}

// PromoteStaging atomically replaces the live table with the staged rows.
// Readers see either the previous snapshot or the new one, never a mix.
func (s *SQLiteStore) PromoteStaging(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin promote: %w", err)
	}
	defer tx.Rollback()

	stmts := []string{
		"DELETE FROM " + liveTable,
		"INSERT INTO " + liveTable + " (" + postingColumns + ") SELECT " + postingColumns + " FROM " + stagingTable,
		"DELETE FROM " + stagingTable,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("promoting staged postings: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit promote: %w", err)
	}
	return nil
}

func (s *SQLiteStore) insertBatch(ctx context.Context, table string, rows []model.ClassifiedPosting) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", 28), ", ")
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+table+" ("+postingColumns+") VALUES ("+placeholders+")")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		args, err := postingArgs(r)
		if err != nil {
			return fmt.Errorf("encoding posting %d: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("inserting posting %d: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// postingArgs encodes r in postingColumns order. Repeated fields become JSON
// text here and nowhere else.
func postingArgs(r model.ClassifiedPosting) ([]any, error) {
	labels, err := encodeList(r.Labels)
	if err != nil {
		return nil, err
	}
	secondary := r.SecondaryCategories
	if secondary == nil {
		secondary = []model.CategoryScore{}
	}
	secondaryJSON, err := json.Marshal(secondary)
	if err != nil {
		return nil, err
	}
	reasoning, err := encodeList(r.Reasoning)
	if err != nil {
		return nil, err
	}
	flags, err := json.Marshal(r.Flags)
	if err != nil {
		return nil, err
	}

	return []any{
		r.ID, r.Title, r.Description, labels, r.AgencyShort, r.AgencyLong,
		r.DutyStation, r.DutyCountry, r.DutyContinent, r.Grade,
		formatTime(r.PostingDate), formatTime(r.ApplyUntil),
		r.Archived, r.URL, r.PrimaryCategory, string(secondaryJSON), r.Confidence,
		reasoning, string(flags), r.SeniorityLevel, r.LocationType,
		r.Status, r.IsActive, r.IsExpired, r.DaysRemaining, r.Urgency, r.ApplicationWindowDays,
		r.ProcessedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	return string(b), err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosting(sc rowScanner) (model.ClassifiedPosting, error) {
	var (
		r                                  model.ClassifiedPosting
		labels, secondary, reasoning, flgs string
		postingDate, applyUntil            sql.NullString
		processedAt                        string
	)
	err := sc.Scan(
		&r.ID, &r.Title, &r.Description, &labels, &r.AgencyShort, &r.AgencyLong,
		&r.DutyStation, &r.DutyCountry, &r.DutyContinent, &r.Grade,
		&postingDate, &applyUntil,
		&r.Archived, &r.URL, &r.PrimaryCategory, &secondary, &r.Confidence,
		&reasoning, &flgs, &r.SeniorityLevel, &r.LocationType,
		&r.Status, &r.IsActive, &r.IsExpired, &r.DaysRemaining, &r.Urgency, &r.ApplicationWindowDays,
		&processedAt,
	)
	if err != nil {
		return r, err
	}

	if err := json.Unmarshal([]byte(labels), &r.Labels); err != nil {
		return r, fmt.Errorf("decoding labels of posting %d: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(secondary), &r.SecondaryCategories); err != nil {
		return r, fmt.Errorf("decoding secondary categories of posting %d: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(reasoning), &r.Reasoning); err != nil {
		return r, fmt.Errorf("decoding reasoning of posting %d: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(flgs), &r.Flags); err != nil {
		return r, fmt.Errorf("decoding flags of posting %d: %w", r.ID, err)
	}
	r.PostingDate = parseTime(postingDate)
	r.ApplyUntil = parseTime(applyUntil)
	if t := parseTime(sql.NullString{String: processedAt, Valid: true}); t != nil {
		r.ProcessedAt = *t
	}
	return r, nil
}

// QueryPostings returns one page of postings matching q and the total number
// of matches.
func (s *SQLiteStore) QueryPostings(ctx context.Context, q filter.Query) ([]model.ClassifiedPosting, int, error) {
	c := filter.Build(q)

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM postings "+c.Where, c.Args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting postings: %w", err)
	}

	query := "SELECT " + postingColumns + " FROM postings " + c.Where + " " + c.OrderBy + " LIMIT ? OFFSET ?"
	args := append(append([]any{}, c.Args...), c.Limit, c.Offset)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying postings: %w", err)
	}
	defer rows.Close()

	postings := make([]model.ClassifiedPosting, 0, c.Limit)
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning posting: %w", err)
		}
		postings = append(postings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating postings: %w", err)
	}
	return postings, total, nil
}

// GetPosting returns one cached posting by source id.
func (s *SQLiteStore) GetPosting(ctx context.Context, id int64) (model.ClassifiedPosting, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+postingColumns+" FROM postings WHERE id = ?", id)
	p, err := scanPosting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, fmt.Errorf("getting posting %d: %w", id, err)
	}
	return p, nil
}

// CountPostings returns the number of rows in the live table.
func (s *SQLiteStore) CountPostings(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM postings").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting postings: %w", err)
	}
	return n, nil
}

// IsEmpty returns true if no postings are cached.
func (s *SQLiteStore) IsEmpty(ctx context.Context) (bool, error) {
	n, err := s.CountPostings(ctx)
	return n == 0, err
}
