package syncer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobatlas/internal/classifier"
	"github.com/amishk599/jobatlas/internal/filter"
	"github.com/amishk599/jobatlas/internal/lock"
	"github.com/amishk599/jobatlas/internal/model"
	"github.com/amishk599/jobatlas/internal/store"
)

var fixedNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSource struct {
	postings []model.Posting
	err      error
	calls    int
}

func (f *fakeSource) FetchPostings(context.Context) ([]model.Posting, error) {
	f.calls++
	return f.postings, f.err
}

type countingPrecomputer struct {
	runs int
	err  error
}

func (c *countingPrecomputer) Run(context.Context) error {
	c.runs++
	return c.err
}

type recordingNotifier struct {
	reports []model.SyncReport
}

func (r *recordingNotifier) NotifySync(_ context.Context, report model.SyncReport) error {
	r.reports = append(r.reports, report)
	return nil
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestSyncer(t *testing.T, src model.PostingSource, st Store) *Syncer {
	t.Helper()
	cls := classifier.New(classifier.DefaultDictionary(), classifier.DefaultOptions())
	s := New(src, st, cls, nil, lock.NewLocal(), nil, Options{BatchSize: 2}, discardLogger())
	s.now = func() time.Time { return fixedNow }
	return s
}

func days(n int) *time.Time {
	t := fixedNow.AddDate(0, 0, n)
	return &t
}

func samplePostings() []model.Posting {
	return []model.Posting{
		{ID: 1, Title: "Software Engineer", Description: "Build cloud platforms.", AgencyShort: "UNICC", DutyCountry: "Switzerland", Grade: "P-3", ApplyUntil: days(20), PostingDate: days(-10), URL: "https://jobs/1"},
		{ID: 2, Title: "Programme Specialist", Grade: "D-1", AgencyShort: "UNDP", DutyCountry: "Kenya", ApplyUntil: days(2), URL: "https://jobs/2"},
		{ID: 3, Title: "Nurse", Description: "Provide clinical health care.", AgencyShort: "WHO", DutyCountry: "Chad", ApplyUntil: days(-1), URL: "https://jobs/3"},
		{ID: 4, Title: "Finance Assistant", AgencyShort: "UNHCR", DutyStation: "Home based", Archived: true, URL: "https://jobs/4"},
		{ID: 5, Title: "Driver", AgencyShort: "WFP", DutyCountry: "Sudan"},
	}
}

func TestFullSyncWritesSnapshot(t *testing.T) {
	st := newTestStore(t)
	pre := &countingPrecomputer{}
	notif := &recordingNotifier{}
	s := newTestSyncer(t, &fakeSource{postings: samplePostings()}, st)
	s.precomputer = pre
	s.notifier = notif

	report := s.FullSync(context.Background())
	require.True(t, report.Success, report.Error)
	assert.Equal(t, 5, report.TotalSource)
	assert.Equal(t, 5, report.TotalProcessed)
	assert.Equal(t, 0, report.Duplicates)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 1, pre.runs)
	require.Len(t, notif.reports, 1)
	assert.True(t, notif.reports[0].Success)

	meta, err := st.GetSyncMetadata(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.SyncCompleted, meta.Status)
	assert.Equal(t, 5, meta.TotalJobs)
	assert.Equal(t, report.RunID, meta.RunID)

	leader, err := st.GetPosting(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, classifier.LeadershipCategory, leader.PrimaryCategory)
	assert.Equal(t, 95, leader.Confidence)
	assert.Equal(t, model.StatusClosingSoon, leader.Status)
	assert.Equal(t, model.UrgencyUrgent, leader.Urgency)
	assert.Equal(t, model.LocationHQ, leader.LocationType)

	eng, err := st.GetPosting(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "digital-technology", eng.PrimaryCategory)
	assert.Equal(t, model.StatusActive, eng.Status)
	assert.Equal(t, 30, eng.ApplicationWindowDays)
	assert.Equal(t, classifier.SeniorityMid, eng.SeniorityLevel)

	expired, err := st.GetPosting(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, model.StatusExpired, expired.Status)
	assert.True(t, expired.IsExpired)
	assert.False(t, expired.IsActive)
	assert.Equal(t, model.LocationField, expired.LocationType)

	archived, err := st.GetPosting(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, model.StatusArchived, archived.Status)
	assert.Equal(t, model.LocationRemote, archived.LocationType)

	undated, err := st.GetPosting(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 0, undated.DaysRemaining)
	assert.Equal(t, model.StatusClosingSoon, undated.Status)
	assert.Equal(t, model.UrgencyUrgent, undated.Urgency)
	assert.True(t, undated.IsActive)
}

func TestFullSyncDedupKeepsHighestID(t *testing.T) {
	st := newTestStore(t)
	src := &fakeSource{postings: []model.Posting{
		{ID: 20, Title: "Analyst", URL: "https://jobs/same"},
		{ID: 10, Title: "Analyst", URL: "https://jobs/same"},
		{ID: 30, Title: "Analyst", URL: "https://jobs/same"},
		{ID: 40, Title: "Clerk"},
	}}
	report := newTestSyncer(t, src, st).FullSync(context.Background())
	require.True(t, report.Success, report.Error)
	assert.Equal(t, 4, report.TotalSource)
	assert.Equal(t, 2, report.TotalProcessed)
	assert.Equal(t, 2, report.Duplicates)

	rows, total, err := st.QueryPostings(context.Background(), filter.Query{Search: "analyst"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, int64(30), rows[0].ID)
}

func TestFullSyncIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	s := newTestSyncer(t, &fakeSource{postings: samplePostings()}, st)
	ctx := context.Background()

	require.True(t, s.FullSync(ctx).Success)
	first, _, err := st.QueryPostings(ctx, filter.Query{Sort: "posting_date", Limit: 100})
	require.NoError(t, err)
	firstCats, err := st.CategoryStats(ctx)
	require.NoError(t, err)

	require.True(t, s.FullSync(ctx).Success)
	second, _, err := st.QueryPostings(ctx, filter.Query{Sort: "posting_date", Limit: 100})
	require.NoError(t, err)
	secondCats, err := st.CategoryStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstCats, secondCats)
}

func TestFullSyncSourceFailure(t *testing.T) {
	st := newTestStore(t)
	notif := &recordingNotifier{}
	s := newTestSyncer(t, &fakeSource{err: errors.New("connection refused")}, st)
	s.notifier = notif

	report := s.FullSync(context.Background())
	assert.False(t, report.Success)
	assert.Contains(t, report.Error, "connection refused")

	meta, err := st.GetSyncMetadata(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.SyncFailed, meta.Status)
	assert.Contains(t, meta.LastError, "connection refused")
	require.Len(t, notif.reports, 1)
	assert.False(t, notif.reports[0].Success)
}

type panickingSource struct{}

func (panickingSource) FetchPostings(context.Context) ([]model.Posting, error) {
	panic("boom")
}

func TestFullSyncRecoversPanic(t *testing.T) {
	st := newTestStore(t)
	report := newTestSyncer(t, panickingSource{}, st).FullSync(context.Background())
	assert.False(t, report.Success)
	assert.Contains(t, report.Error, "panicked")

	meta, err := st.GetSyncMetadata(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.SyncFailed, meta.Status)
}

// failingStore fails the bulk write after the first successful sync.
type failingStore struct {
	*store.SQLiteStore
	fail bool
}

func (f *failingStore) ReplacePostings(ctx context.Context, rows []model.ClassifiedPosting, batchSize int) error {
	if f.fail {
		return errors.New("disk I/O error")
	}
	return f.SQLiteStore.ReplacePostings(ctx, rows, batchSize)
}

func TestFullSyncWriteFailureKeepsPreviousSnapshot(t *testing.T) {
	st := &failingStore{SQLiteStore: newTestStore(t)}
	src := &fakeSource{postings: samplePostings()}
	s := newTestSyncer(t, src, st)
	ctx := context.Background()

	require.True(t, s.FullSync(ctx).Success)

	st.fail = true
	src.postings = samplePostings()[:1]
	report := s.FullSync(ctx)
	assert.False(t, report.Success)

	n, err := st.CountPostings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	meta, err := st.GetSyncMetadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.SyncFailed, meta.Status)
	assert.Equal(t, 5, meta.TotalJobs)
}

func TestFullSyncPrecomputeFailureIsNonFatal(t *testing.T) {
	st := newTestStore(t)
	s := newTestSyncer(t, &fakeSource{postings: samplePostings()}, st)
	s.precomputer = &countingPrecomputer{err: errors.New("aggregate failed")}

	report := s.FullSync(context.Background())
	assert.True(t, report.Success, report.Error)
}

// blockingSource blocks until released so a second sync can race it.
type blockingSource struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingSource) FetchPostings(context.Context) ([]model.Posting, error) {
	close(b.entered)
	<-b.release
	return samplePostings(), nil
}

func TestConcurrentFullSyncReturnsInProgress(t *testing.T) {
	st := newTestStore(t)
	src := &blockingSource{entered: make(chan struct{}), release: make(chan struct{})}
	s := newTestSyncer(t, src, st)
	ctx := context.Background()

	var (
		wg    sync.WaitGroup
		first model.SyncReport
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		first = s.FullSync(ctx)
	}()
	<-src.entered

	second := s.FullSync(ctx)
	assert.False(t, second.Success)
	assert.Equal(t, model.ErrSyncInProgress.Error(), second.Error)

	meta, err := st.GetSyncMetadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.SyncSyncing, meta.Status, "busy run must not touch metadata")

	close(src.release)
	wg.Wait()
	assert.True(t, first.Success, first.Error)
}

func TestPreviewDoesNotWrite(t *testing.T) {
	st := newTestStore(t)
	s := newTestSyncer(t, &fakeSource{postings: samplePostings()}, st)

	p, err := s.Preview(context.Background())
	require.NoError(t, err)
	assert.Len(t, p.Rows, 5)

	empty, err := st.IsEmpty(context.Background())
	require.NoError(t, err)
	assert.True(t, empty)
}
