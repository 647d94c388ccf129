package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/oneofjob/internal/model"
)

// --- Test doubles ---

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type countingJobs struct {
	calls atomic.Int32
	jobs  []model.Job
	err   error
	gate  chan struct{} // when set, FetchJobs blocks until it is closed
}

func (f *countingJobs) FetchJobs(_ context.Context) ([]model.Job, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	return f.jobs, f.err
}

type countingCompanies struct {
	calls atomic.Int32
	names []string
	err   error
}

func (f *countingCompanies) FetchCompanies(_ context.Context) ([]string, error) {
	f.calls.Add(1)
	return f.names, f.err
}

type memStore struct {
	mu    sync.Mutex
	snaps map[string]model.Snapshot
}

func newMemStore() *memStore {
	return &memStore{snaps: make(map[string]model.Snapshot)}
}

func (s *memStore) Save(snap model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[snap.Key] = snap
	return nil
}

func (s *memStore) LoadAll() ([]model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Snapshot, 0, len(s.snaps))
	for _, snap := range s.snaps {
		out = append(out, snap)
	}
	return out, nil
}

func (s *memStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, key)
	return nil
}

func (s *memStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.snaps)
	return nil
}

// sequencedJobs blocks its first fetch until release is closed and returns
// "pre" for it; later fetches return "post" immediately.
type sequencedJobs struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func newSequencedJobs() *sequencedJobs {
	return &sequencedJobs{started: make(chan struct{}), release: make(chan struct{})}
}

func (f *sequencedJobs) FetchJobs(_ context.Context) ([]model.Job, error) {
	if f.calls.Add(1) == 1 {
		close(f.started)
		<-f.release
		return []model.Job{{ID: "pre", Title: "before crawl", Company: "NAVER"}}, nil
	}
	return []model.Job{{ID: "post", Title: "after crawl", Company: "NAVER"}}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var sampleJobs = []model.Job{
	{ID: "1", Title: "Backend Engineer", Company: "NAVER", Careers: []model.CareerLevel{model.CareerExperienced}},
	{ID: "2", Title: "iOS Engineer", Company: "KAKAO", Careers: []model.CareerLevel{model.CareerNewGrad}},
}

func newTestCache(jobs *countingJobs, companies *countingCompanies, clock *fakeClock, opts ...Option) *Cache {
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return New(jobs, companies, DailyAt(10, 0, seoul), discardLogger(), opts...)
}

// --- Tests ---

func TestJobs_ServesFromCacheUntilNextCrawl(t *testing.T) {
	clock := &fakeClock{now: at(12, 9, 0)}
	jobs := &countingJobs{jobs: sampleJobs}
	c := newTestCache(jobs, &countingCompanies{}, clock)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := c.Jobs(ctx)
		if err != nil {
			t.Fatalf("Jobs: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
	}
	if n := jobs.calls.Load(); n != 1 {
		t.Errorf("fetches before crawl = %d, want 1", n)
	}
	if !c.IsValid(JobsKey) {
		t.Error("IsValid = false right after fetch")
	}

	clock.Set(at(12, 9, 59))
	if _, err := c.Jobs(ctx); err != nil {
		t.Fatal(err)
	}
	if n := jobs.calls.Load(); n != 1 {
		t.Errorf("fetches at 09:59 = %d, want 1", n)
	}

	clock.Set(at(12, 10, 1))
	if c.IsValid(JobsKey) {
		t.Error("IsValid = true after today's crawl")
	}
	if _, err := c.Jobs(ctx); err != nil {
		t.Fatal(err)
	}
	if n := jobs.calls.Load(); n != 2 {
		t.Errorf("fetches after crawl = %d, want 2", n)
	}

	// The refetch reflects today's crawl, so it stays fresh until tomorrow's.
	clock.Set(at(13, 9, 59))
	if !c.IsValid(JobsKey) {
		t.Error("IsValid = false before tomorrow's crawl")
	}
}

func TestJobs_FetchBeforeCrawlGoesStaleAtCrawl(t *testing.T) {
	clock := &fakeClock{now: at(12, 8, 0)}
	jobs := &countingJobs{jobs: sampleJobs}
	c := newTestCache(jobs, &countingCompanies{}, clock)

	if _, err := c.Jobs(context.Background()); err != nil {
		t.Fatal(err)
	}
	clock.Set(at(12, 10, 0))
	if c.IsValid(JobsKey) {
		t.Error("data fetched before the crawl must not survive it")
	}
}

func TestJobs_InvalidateForcesFetch(t *testing.T) {
	clock := &fakeClock{now: at(12, 12, 0)}
	jobs := &countingJobs{jobs: sampleJobs}
	c := newTestCache(jobs, &countingCompanies{}, clock)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if _, err := c.Jobs(ctx); err != nil {
			t.Fatal(err)
		}
		c.Invalidate()
		if n := jobs.calls.Load(); int(n) != i {
			t.Fatalf("after round %d: fetches = %d", i, n)
		}
	}
	if c.Len() != 0 {
		t.Errorf("Len after Invalidate = %d", c.Len())
	}
}

func TestJobs_FetchAt0900RefetchesAt1001(t *testing.T) {
	clock := &fakeClock{now: at(12, 9, 0)}
	jobs := &countingJobs{jobs: sampleJobs}
	c := newTestCache(jobs, &countingCompanies{}, clock)
	ctx := context.Background()

	for _, now := range []time.Time{at(12, 9, 0), at(12, 9, 59), at(12, 10, 1), at(12, 23, 0)} {
		clock.Set(now)
		if _, err := c.Jobs(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if n := jobs.calls.Load(); n != 2 {
		t.Errorf("fetches = %d, want 2 (once before the crawl, once after)", n)
	}
}

func TestJobs_InvalidateDuringFetchDiscardsResult(t *testing.T) {
	clock := &fakeClock{now: at(12, 12, 0)}
	store := newMemStore()
	jobs := newSequencedJobs()
	c := New(jobs, &countingCompanies{}, DailyAt(10, 0, seoul), discardLogger(),
		WithClock(clock.Now), WithSnapshotStore(store))
	ctx := context.Background()

	first := make(chan []model.Job, 1)
	go func() {
		got, err := c.Jobs(ctx)
		if err != nil {
			t.Error(err)
		}
		first <- got
	}()
	<-jobs.started

	c.Invalidate()

	// A request after the invalidation starts its own fetch.
	got, err := c.Jobs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "post" {
		t.Fatalf("after Invalidate served %+v, want post", got)
	}

	close(jobs.release)
	if old := <-first; len(old) != 1 || old[0].ID != "pre" {
		t.Errorf("in-flight caller got %+v, want pre", old)
	}

	got, err = c.Jobs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].ID != "post" {
		t.Errorf("cached %q after the old fetch finished, want post", got[0].ID)
	}
	if n := jobs.calls.Load(); n != 2 {
		t.Errorf("fetches = %d, want 2", n)
	}

	snap, ok := store.snaps[JobsKey]
	if !ok {
		t.Fatal("no jobs snapshot")
	}
	if data := string(snap.Data); strings.Contains(data, `"pre"`) || !strings.Contains(data, `"post"`) {
		t.Errorf("snapshot = %s, want only post", data)
	}
}

func TestInvalidateKey_DuringFetchDiscardsResult(t *testing.T) {
	clock := &fakeClock{now: at(12, 12, 0)}
	jobs := newSequencedJobs()
	c := New(jobs, &countingCompanies{}, DailyAt(10, 0, seoul), discardLogger(), WithClock(clock.Now))
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := c.Jobs(ctx); err != nil {
			t.Error(err)
		}
	}()
	<-jobs.started
	c.InvalidateKey(JobsKey)
	close(jobs.release)
	<-done

	if c.Len() != 0 {
		t.Fatalf("Len = %d, want 0: stale fetch was stored", c.Len())
	}
	got, err := c.Jobs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].ID != "post" || jobs.calls.Load() != 2 {
		t.Errorf("got %q after %d fetches, want post after 2", got[0].ID, jobs.calls.Load())
	}
}

func TestInvalidateKey_LeavesOtherKeys(t *testing.T) {
	clock := &fakeClock{now: at(12, 12, 0)}
	jobs := &countingJobs{jobs: sampleJobs}
	companies := &countingCompanies{names: []string{"NAVER"}}
	c := newTestCache(jobs, companies, clock)
	ctx := context.Background()

	if _, err := c.Jobs(ctx); err != nil {
		t.Fatal(err)
	}
	c.Companies(ctx)

	c.InvalidateKey(JobsKey)
	if c.IsValid(JobsKey) {
		t.Error("jobs still valid after InvalidateKey")
	}
	if !c.IsValid(CompaniesKey) {
		t.Error("companies invalidated by InvalidateKey(jobs)")
	}

	// Unknown keys are a no-op.
	c.InvalidateKey("nope")
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestJobs_FetchErrorPropagatesAndIsNotCached(t *testing.T) {
	clock := &fakeClock{now: at(12, 12, 0)}
	upstream := &model.HTTPError{StatusCode: 503, URL: "http://upstream/jobs"}
	jobs := &countingJobs{err: upstream}
	c := newTestCache(jobs, &countingCompanies{}, clock)

	_, err := c.Jobs(context.Background())
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 503 {
		t.Fatalf("err = %v, want the upstream HTTPError", err)
	}
	if c.Len() != 0 {
		t.Error("failed fetch was cached")
	}

	jobs.err = nil
	jobs.jobs = sampleJobs
	if _, err := c.Jobs(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := jobs.calls.Load(); n != 2 {
		t.Errorf("fetches = %d, want 2", n)
	}
}

func TestJobs_FetchErrorKeepsStaleEntry(t *testing.T) {
	clock := &fakeClock{now: at(12, 12, 0)}
	jobs := &countingJobs{jobs: sampleJobs}
	c := newTestCache(jobs, &countingCompanies{}, clock)

	if _, err := c.Jobs(context.Background()); err != nil {
		t.Fatal(err)
	}
	clock.Set(at(13, 11, 0))
	jobs.err = errors.New("boom")
	if _, err := c.Jobs(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if info := c.Info(); !info.Jobs.Cached {
		t.Error("stale entry dropped by a failed refresh")
	}
}

func TestCompanies_FallbackNotCached(t *testing.T) {
	clock := &fakeClock{now: at(12, 12, 0)}
	companies := &countingCompanies{err: errors.New("unavailable")}
	fallback := []string{"NAVER", "KAKAO", "LINE"}
	c := newTestCache(&countingJobs{}, companies, clock, WithFallbackCompanies(fallback))
	ctx := context.Background()

	got := c.Companies(ctx)
	if len(got) != 3 || got[0] != "NAVER" {
		t.Fatalf("Companies = %v, want fallback", got)
	}
	got[0] = "mutated"
	if again := c.Companies(ctx); again[0] != "NAVER" {
		t.Error("fallback list shared with callers")
	}
	if n := companies.calls.Load(); n != 2 {
		t.Errorf("fetches = %d, want 2 (fallback must not be cached)", n)
	}
	if c.IsValid(CompaniesKey) {
		t.Error("fallback stored in cache")
	}

	companies.err = nil
	companies.names = []string{"TOSS"}
	if got := c.Companies(ctx); len(got) != 1 || got[0] != "TOSS" {
		t.Errorf("Companies after recovery = %v", got)
	}
}

func TestJobs_ConcurrentColdRequestsShareOneFetch(t *testing.T) {
	clock := &fakeClock{now: at(12, 12, 0)}
	jobs := &countingJobs{jobs: sampleJobs, gate: make(chan struct{})}
	c := newTestCache(jobs, &countingCompanies{}, clock)

	const callers = 20
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.Jobs(context.Background())
			if err == nil && len(got) != 2 {
				err = errors.New("wrong result")
			}
			errs <- err
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(jobs.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if n := jobs.calls.Load(); n != 1 {
		t.Errorf("fetches = %d, want 1", n)
	}
}

func TestJobs_CancelledCallerDoesNotAbortSharedFetch(t *testing.T) {
	clock := &fakeClock{now: at(12, 12, 0)}
	var sawCancel atomic.Bool
	fetch := func(ctx context.Context) ([]model.Job, error) {
		if ctx.Err() != nil {
			sawCancel.Store(true)
		}
		return sampleJobs, nil
	}
	c := newTestCache(&countingJobs{}, &countingCompanies{}, clock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := crawlAligned(ctx, c, JobsKey, fetch); err != nil {
		t.Fatal(err)
	}
	if sawCancel.Load() {
		t.Error("shared fetch saw the caller's cancellation")
	}
}

func TestGetData_TTL(t *testing.T) {
	clock := &fakeClock{now: at(12, 12, 0)}
	c := newTestCache(&countingJobs{}, &countingCompanies{}, clock)
	ctx := context.Background()

	var calls int
	fetch := func(context.Context) (map[string]int, error) {
		calls++
		return map[string]int{"n": calls}, nil
	}

	get := func() int {
		t.Helper()
		v, err := GetData(ctx, c, "stats", fetch, time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		return v["n"]
	}

	if got := get(); got != 1 {
		t.Fatalf("first = %d", got)
	}
	clock.Set(at(12, 12, 59))
	if got := get(); got != 1 {
		t.Errorf("at T+59m = %d, want cached 1", got)
	}
	clock.Set(at(12, 13, 1))
	if got := get(); got != 2 {
		t.Errorf("at T+61m = %d, want refetched 2", got)
	}
}

func TestGetData_DefaultTTL(t *testing.T) {
	clock := &fakeClock{now: at(12, 12, 0)}
	c := newTestCache(&countingJobs{}, &countingCompanies{}, clock)

	var calls int
	fetch := func(context.Context) (string, error) {
		calls++
		return "v", nil
	}
	for _, offset := range []time.Duration{0, 30 * time.Minute, 59 * time.Minute} {
		clock.Set(at(12, 12, 0).Add(offset))
		if _, err := GetData(context.Background(), c, "k", fetch, 0); err != nil {
			t.Fatal(err)
		}
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 within default TTL", calls)
	}
	clock.Set(at(12, 13, 0))
	if _, err := GetData(context.Background(), c, "k", fetch, -time.Second); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 at exactly DefaultTTL", calls)
	}
}

func TestGetData_TypeChangeRefetches(t *testing.T) {
	clock := &fakeClock{now: at(12, 12, 0)}
	c := newTestCache(&countingJobs{}, &countingCompanies{}, clock)
	ctx := context.Background()

	if _, err := GetData(ctx, c, "k", func(context.Context) (int, error) { return 1, nil }, time.Hour); err != nil {
		t.Fatal(err)
	}
	got, err := GetData(ctx, c, "k", func(context.Context) (string, error) { return "one", nil }, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if got != "one" {
		t.Errorf("got %q", got)
	}
}

func TestInfo(t *testing.T) {
	clock := &fakeClock{now: at(12, 12, 0)}
	jobs := &countingJobs{jobs: sampleJobs}
	c := newTestCache(jobs, &countingCompanies{names: []string{"NAVER"}}, clock)

	empty := c.Info()
	if empty.Jobs.Cached || empty.Companies.Cached || empty.TotalCacheSize != 0 {
		t.Errorf("empty Info = %+v", empty)
	}

	if _, err := c.Jobs(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := GetData(context.Background(), c, "extra", func(context.Context) (int, error) { return 1, nil }, 0); err != nil {
		t.Fatal(err)
	}

	info := c.Info()
	if !info.Jobs.Cached || info.Jobs.Size != 2 {
		t.Errorf("Jobs = %+v", info.Jobs)
	}
	if info.Jobs.LastUpdated == nil || !info.Jobs.LastUpdated.Equal(at(12, 12, 0)) {
		t.Errorf("LastUpdated = %v", info.Jobs.LastUpdated)
	}
	if info.Companies.Cached {
		t.Error("companies reported cached")
	}
	if info.TotalCacheSize != 2 {
		t.Errorf("TotalCacheSize = %d", info.TotalCacheSize)
	}
	if len(info.CacheKeys) != 2 || info.CacheKeys[0] != "extra" || info.CacheKeys[1] != JobsKey {
		t.Errorf("CacheKeys = %v", info.CacheKeys)
	}
	if !info.NextUpdate.Equal(at(13, 10, 0)) {
		t.Errorf("NextUpdate = %v", info.NextUpdate)
	}
}

func TestStats(t *testing.T) {
	clock := &fakeClock{now: at(12, 12, 0)}
	c := newTestCache(&countingJobs{}, &countingCompanies{}, clock)

	if _, err := GetData(context.Background(), c, "k", func(context.Context) ([]string, error) {
		return []string{"ab"}, nil
	}, 0); err != nil {
		t.Fatal(err)
	}
	clock.Set(at(12, 12, 5))

	stats := c.Stats()
	if stats.TotalEntries != 1 {
		t.Fatalf("TotalEntries = %d", stats.TotalEntries)
	}
	e := stats.Entries["k"]
	if e.Bytes != len(`["ab"]`) {
		t.Errorf("Bytes = %d", e.Bytes)
	}
	if e.AgeMs != (5 * time.Minute).Milliseconds() {
		t.Errorf("AgeMs = %d", e.AgeMs)
	}
	if e.Age != "5m0s" {
		t.Errorf("Age = %q", e.Age)
	}
}

func TestSnapshots_PersistAndRestore(t *testing.T) {
	clock := &fakeClock{now: at(12, 12, 0)}
	store := newMemStore()
	jobs := &countingJobs{jobs: sampleJobs}
	c := newTestCache(jobs, &countingCompanies{names: []string{"NAVER"}}, clock, WithSnapshotStore(store))
	ctx := context.Background()

	if _, err := c.Jobs(ctx); err != nil {
		t.Fatal(err)
	}
	c.Companies(ctx)
	if _, err := GetData(ctx, c, "ttl-only", func(context.Context) (int, error) { return 1, nil }, 0); err != nil {
		t.Fatal(err)
	}
	if len(store.snaps) != 2 {
		t.Fatalf("snapshots = %d, want 2 (TTL entries are memory only)", len(store.snaps))
	}

	// A new process later the same day restores without fetching.
	clock.Set(at(12, 20, 0))
	restartedJobs := &countingJobs{}
	restarted := newTestCache(restartedJobs, &countingCompanies{}, clock, WithSnapshotStore(store))
	n, err := restarted.Restore()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("restored = %d, want 2", n)
	}
	got, err := restarted.Jobs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "1" {
		t.Errorf("restored jobs = %+v", got)
	}
	if restartedJobs.calls.Load() != 0 {
		t.Error("restored cache fetched upstream")
	}

	// After the next crawl the snapshots are stale and skipped.
	clock.Set(at(13, 10, 30))
	stale := newTestCache(&countingJobs{}, &countingCompanies{}, clock, WithSnapshotStore(store))
	if n, err := stale.Restore(); err != nil || n != 0 {
		t.Errorf("Restore after crawl = %d, %v; want 0, nil", n, err)
	}

	restarted.Invalidate()
	if len(store.snaps) != 0 {
		t.Error("Invalidate left snapshots behind")
	}
}

func TestRestore_SkipsUnreadableSnapshots(t *testing.T) {
	clock := &fakeClock{now: at(12, 12, 0)}
	store := newMemStore()
	fresh := at(12, 10, 0)
	_ = store.Save(model.Snapshot{Key: JobsKey, Data: []byte("{not json"), Timestamp: fresh, LastCrawlTime: fresh})
	_ = store.Save(model.Snapshot{Key: "mystery", Data: []byte("1"), Timestamp: fresh, LastCrawlTime: fresh})
	_ = store.Save(model.Snapshot{Key: CompaniesKey, Data: []byte(`["LINE"]`), Timestamp: fresh, LastCrawlTime: fresh})

	c := newTestCache(&countingJobs{}, &countingCompanies{}, clock, WithSnapshotStore(store))
	n, err := c.Restore()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("restored = %d, want 1", n)
	}
	if got := c.Companies(context.Background()); len(got) != 1 || got[0] != "LINE" {
		t.Errorf("Companies = %v", got)
	}
}

func TestRestore_NoStore(t *testing.T) {
	c := New(&countingJobs{}, &countingCompanies{}, DefaultSchedule(), discardLogger())
	if n, err := c.Restore(); n != 0 || err != nil {
		t.Errorf("Restore = %d, %v", n, err)
	}
}
