package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/amishk599/jobatlas/internal/filter"
	"github.com/amishk599/jobatlas/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func row(id int64, url, category string) model.ClassifiedPosting {
	posted := testNow.AddDate(0, 0, -int(id))
	deadline := testNow.AddDate(0, 0, 10)
	return model.ClassifiedPosting{
		Posting: model.Posting{
			ID:          id,
			Title:       "Posting " + url,
			Labels:      []string{"data", "field"},
			AgencyShort: "UNDP",
			DutyCountry: "Kenya",
			Grade:       "P-3",
			PostingDate: &posted,
			ApplyUntil:  &deadline,
			URL:         url,
		},
		PrimaryCategory:     category,
		SecondaryCategories: []model.CategoryScore{{Category: "finance-budget", Confidence: 35}},
		Confidence:          60,
		Reasoning:           []string{"core keyword matched"},
		Status:              model.StatusActive,
		IsActive:            true,
		DaysRemaining:       10,
		SeniorityLevel:      "Mid-Level",
		ProcessedAt:         testNow,
	}
}

func TestReplacePostingsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rows := []model.ClassifiedPosting{row(1, "a", "digital-technology"), row(2, "b", "health-medical"), row(3, "", "digital-technology")}
	if err := s.ReplacePostings(ctx, rows, 2); err != nil {
		t.Fatalf("ReplacePostings: %v", err)
	}

	n, err := s.CountPostings(ctx)
	if err != nil {
		t.Fatalf("CountPostings: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 postings, got %d", n)
	}

	got, err := s.GetPosting(ctx, 1)
	if err != nil {
		t.Fatalf("GetPosting: %v", err)
	}
	if got.PrimaryCategory != "digital-technology" || got.Confidence != 60 {
		t.Errorf("unexpected classification: %s %d", got.PrimaryCategory, got.Confidence)
	}
	if len(got.Labels) != 2 || got.Labels[0] != "data" {
		t.Errorf("labels not decoded: %v", got.Labels)
	}
	if len(got.SecondaryCategories) != 1 || got.SecondaryCategories[0].Confidence != 35 {
		t.Errorf("secondary categories not decoded: %v", got.SecondaryCategories)
	}
	if got.PostingDate == nil || !got.PostingDate.Equal(testNow.AddDate(0, 0, -1)) {
		t.Errorf("posting date not preserved: %v", got.PostingDate)
	}
	if !got.ProcessedAt.Equal(testNow) {
		t.Errorf("processed_at not preserved: %v", got.ProcessedAt)
	}
}

func TestReplacePostingsDropsPreviousSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.ReplacePostings(ctx, []model.ClassifiedPosting{row(1, "a", "x"), row(2, "b", "x")}, 0); err != nil {
		t.Fatalf("first ReplacePostings: %v", err)
	}
	if err := s.ReplacePostings(ctx, []model.ClassifiedPosting{row(3, "c", "x")}, 0); err != nil {
		t.Fatalf("second ReplacePostings: %v", err)
	}

	if _, err := s.GetPosting(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for dropped posting, got %v", err)
	}
	n, _ := s.CountPostings(ctx)
	if n != 1 {
		t.Errorf("expected 1 posting, got %d", n)
	}
}

func TestStagingInvisibleUntilPromoted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.ReplacePostings(ctx, []model.ClassifiedPosting{row(1, "a", "x")}, 0); err != nil {
		t.Fatalf("ReplacePostings: %v", err)
	}
	if err := s.StagePostings(ctx, []model.ClassifiedPosting{row(7, "g", "y"), row(8, "h", "y")}, 1); err != nil {
		t.Fatalf("StagePostings: %v", err)
	}

	if _, err := s.GetPosting(ctx, 1); err != nil {
		t.Errorf("live posting should still be readable while staging: %v", err)
	}
	n, _ := s.CountPostings(ctx)
	if n != 1 {
		t.Errorf("expected old snapshot of 1 posting, got %d", n)
	}

	if err := s.PromoteStaging(ctx); err != nil {
		t.Fatalf("PromoteStaging: %v", err)
	}
	n, _ = s.CountPostings(ctx)
	if n != 2 {
		t.Errorf("expected 2 postings after promote, got %d", n)
	}
}

func TestFailedBatchLeavesLiveUntouched(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.ReplacePostings(ctx, []model.ClassifiedPosting{row(1, "a", "x")}, 0); err != nil {
		t.Fatalf("ReplacePostings: %v", err)
	}

	// Second batch repeats a URL from the first one.
	bad := []model.ClassifiedPosting{row(10, "dup", "y"), row(11, "dup", "y")}
	if err := s.ReplacePostings(ctx, bad, 1); err == nil {
		t.Fatal("expected error for duplicate url")
	}

	got, err := s.GetPosting(ctx, 1)
	if err != nil {
		t.Fatalf("previous snapshot lost: %v", err)
	}
	if got.PrimaryCategory != "x" {
		t.Errorf("expected previous row, got %s", got.PrimaryCategory)
	}
	n, _ := s.CountPostings(ctx)
	if n != 1 {
		t.Errorf("expected 1 posting, got %d", n)
	}
}

func TestIsEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	empty, err := s.IsEmpty(ctx)
	if err != nil {
		t.Fatalf("IsEmpty: %v", err)
	}
	if !empty {
		t.Error("expected fresh store to be empty")
	}

	if err := s.ReplacePostings(ctx, []model.ClassifiedPosting{row(1, "a", "x")}, 0); err != nil {
		t.Fatalf("ReplacePostings: %v", err)
	}
	empty, _ = s.IsEmpty(ctx)
	if empty {
		t.Error("expected store to be non-empty")
	}
}

func TestQueryPostingsFilterAndPage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rows := []model.ClassifiedPosting{
		row(1, "a", "digital-technology"),
		row(2, "b", "digital-technology"),
		row(3, "c", "digital-technology"),
		row(4, "d", "health-medical"),
	}
	rows[3].Title = "Nurse 100% remote"
	if err := s.ReplacePostings(ctx, rows, 0); err != nil {
		t.Fatalf("ReplacePostings: %v", err)
	}

	page, total, err := s.QueryPostings(ctx, filter.Query{Category: "digital-technology", Sort: "posting_date", Desc: true, Limit: 2, Page: 1})
	if err != nil {
		t.Fatalf("QueryPostings: %v", err)
	}
	if total != 3 {
		t.Errorf("expected total 3, got %d", total)
	}
	if len(page) != 2 || page[0].ID != 1 || page[1].ID != 2 {
		t.Errorf("unexpected first page: %+v", ids(page))
	}

	page, _, err = s.QueryPostings(ctx, filter.Query{Category: "digital-technology", Sort: "posting_date", Desc: true, Limit: 2, Page: 2})
	if err != nil {
		t.Fatalf("QueryPostings page 2: %v", err)
	}
	if len(page) != 1 || page[0].ID != 3 {
		t.Errorf("unexpected second page: %+v", ids(page))
	}

	page, total, err = s.QueryPostings(ctx, filter.Query{Search: "100%"})
	if err != nil {
		t.Fatalf("QueryPostings search: %v", err)
	}
	if total != 1 || page[0].ID != 4 {
		t.Errorf("expected literal %% search to match only posting 4, got %v", ids(page))
	}
}

func ids(rows []model.ClassifiedPosting) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestSyncMetadataTransitions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m, err := s.GetSyncMetadata(ctx)
	if err != nil {
		t.Fatalf("GetSyncMetadata: %v", err)
	}
	if m.Status != model.SyncNeverSynced {
		t.Errorf("expected never_synced, got %s", m.Status)
	}

	if err := s.MarkSyncing(ctx, "run-1", testNow); err != nil {
		t.Fatalf("MarkSyncing: %v", err)
	}
	m, _ = s.GetSyncMetadata(ctx)
	if m.Status != model.SyncSyncing || m.RunID != "run-1" || m.StartedAt == nil {
		t.Errorf("unexpected syncing metadata: %+v", m)
	}

	if err := s.MarkCompleted(ctx, 42, 1500*time.Millisecond, testNow.Add(2*time.Second)); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	m, _ = s.GetSyncMetadata(ctx)
	if m.Status != model.SyncCompleted || m.TotalJobs != 42 || m.DurationMs != 1500 {
		t.Errorf("unexpected completed metadata: %+v", m)
	}
	if m.LastSyncAt == nil || !m.LastSyncAt.Equal(testNow.Add(2*time.Second)) {
		t.Errorf("unexpected last_sync_at: %v", m.LastSyncAt)
	}

	if err := s.MarkSyncing(ctx, "run-2", testNow.Add(time.Hour)); err != nil {
		t.Fatalf("MarkSyncing: %v", err)
	}
	if err := s.MarkFailed(ctx, "source unreachable", time.Second); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	m, _ = s.GetSyncMetadata(ctx)
	if m.Status != model.SyncFailed || m.LastError != "source unreachable" {
		t.Errorf("unexpected failed metadata: %+v", m)
	}
	if m.TotalJobs != 42 {
		t.Errorf("expected total_jobs kept from last success, got %d", m.TotalJobs)
	}
}

func TestAnalyticsCache(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetAnalytics(ctx, "overview"); !errors.Is(err, model.ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}

	if err := s.PutAnalytics(ctx, "overview", []byte(`{"v":1}`), testNow, time.Hour); err != nil {
		t.Fatalf("PutAnalytics: %v", err)
	}
	if err := s.PutAnalytics(ctx, "overview", []byte(`{"v":2}`), testNow, time.Hour); err != nil {
		t.Fatalf("PutAnalytics upsert: %v", err)
	}

	e, err := s.GetAnalytics(ctx, "overview")
	if err != nil {
		t.Fatalf("GetAnalytics: %v", err)
	}
	if string(e.Data) != `{"v":2}` {
		t.Errorf("expected upserted data, got %s", e.Data)
	}
	if !e.IsFresh(testNow.Add(59*time.Minute)) || e.IsFresh(testNow.Add(time.Hour)) {
		t.Errorf("unexpected freshness window: expires %v", e.ExpiresAt)
	}

	if err := s.PutAnalytics(ctx, "temporal_trends", []byte(`{}`), testNow, time.Minute); err != nil {
		t.Fatalf("PutAnalytics: %v", err)
	}
	n, err := s.PurgeExpiredAnalytics(ctx, testNow.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("PurgeExpiredAnalytics: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 purged entry, got %d", n)
	}
	if _, err := s.GetAnalytics(ctx, "overview"); err != nil {
		t.Errorf("fresh entry should survive purge: %v", err)
	}
}

func TestSyncLease(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok, err := s.AcquireLease(ctx, "a", testNow, time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first acquire to succeed: %v %v", ok, err)
	}
	ok, _ = s.AcquireLease(ctx, "b", testNow.Add(30*time.Second), time.Minute)
	if ok {
		t.Error("expected lease held by a to block b")
	}
	ok, _ = s.AcquireLease(ctx, "b", testNow.Add(2*time.Minute), time.Minute)
	if !ok {
		t.Error("expected expired lease to be taken over")
	}

	// a no longer owns the lease; its release must not free it.
	if err := s.ReleaseLease(ctx, "a"); err != nil {
		t.Fatalf("ReleaseLease: %v", err)
	}
	ok, _ = s.AcquireLease(ctx, "c", testNow.Add(2*time.Minute), time.Minute)
	if ok {
		t.Error("expected lease still held by b")
	}

	if err := s.ReleaseLease(ctx, "b"); err != nil {
		t.Fatalf("ReleaseLease: %v", err)
	}
	ok, _ = s.AcquireLease(ctx, "c", testNow.Add(2*time.Minute), time.Minute)
	if !ok {
		t.Error("expected released lease to be free")
	}
}

func TestAggregates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rows := []model.ClassifiedPosting{
		row(1, "a", "digital-technology"),
		row(2, "b", "digital-technology"),
		row(3, "c", "health-medical"),
	}
	rows[2].AgencyShort = "WHO"
	rows[2].DutyCountry = "Switzerland"
	rows[2].IsActive = false
	rows[2].Labels = []string{"health"}
	if err := s.ReplacePostings(ctx, rows, 0); err != nil {
		t.Fatalf("ReplacePostings: %v", err)
	}

	o, err := s.Overview(ctx)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if o.Total != 3 || o.Agencies != 2 || o.Countries != 2 || o.Active != 2 {
		t.Errorf("unexpected overview: %+v", o)
	}

	cats, err := s.CategoryStats(ctx)
	if err != nil {
		t.Fatalf("CategoryStats: %v", err)
	}
	if len(cats) != 2 || cats[0].Category != "digital-technology" || cats[0].Total != 2 {
		t.Errorf("unexpected category stats: %+v", cats)
	}

	agencies, err := s.AgencyStats(ctx)
	if err != nil {
		t.Fatalf("AgencyStats: %v", err)
	}
	if len(agencies) != 2 || agencies[0].Agency != "UNDP" || agencies[0].Total != 2 {
		t.Errorf("unexpected agency stats: %+v", agencies)
	}

	months, err := s.MonthlyCounts(ctx, testNow.AddDate(0, -1, 0))
	if err != nil {
		t.Fatalf("MonthlyCounts: %v", err)
	}
	if len(months) != 1 || months[0].Key != "2025-03" || months[0].Count != 3 {
		t.Errorf("unexpected monthly counts: %+v", months)
	}

	labels, err := s.TopLabels(ctx, 10)
	if err != nil {
		t.Fatalf("TopLabels: %v", err)
	}
	if len(labels) != 3 || labels[0].Count != 2 {
		t.Errorf("unexpected label counts: %+v", labels)
	}
}
