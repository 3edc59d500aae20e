package core

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MobilityData/gtfs-validator-sub012/internal/notice"
	"github.com/MobilityData/gtfs-validator-sub012/internal/parsing"
	"github.com/MobilityData/gtfs-validator-sub012/internal/schema"
	"github.com/MobilityData/gtfs-validator-sub012/internal/store"
	"github.com/MobilityData/gtfs-validator-sub012/internal/table"
	"github.com/MobilityData/gtfs-validator-sub012/internal/validator"
	"github.com/MobilityData/gtfs-validator-sub012/internal/validator/rules"
)

type memInput struct {
	files  map[string]string
	closed bool
}

func (m *memInput) Members() []string {
	names := make([]string, 0, len(m.files))
	for name := range m.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *memInput) Open(name string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(m.files[name])), nil
}

func (m *memInput) Close() error {
	m.closed = true
	return nil
}

func validFeed() map[string]string {
	return map[string]string{
		"agency.txt": "agency_id,agency_name,agency_url,agency_timezone\n" +
			"a1,Metro,https://metro.example,Europe/Paris\n",
		"stops.txt": "stop_id,stop_name,stop_lat,stop_lon\n" +
			"s1,Central,48.85,2.35\n" +
			"s2,North,48.86,2.35\n",
		"routes.txt": "route_id,agency_id,route_short_name,route_type\n" +
			"r1,a1,1,3\n",
		"trips.txt": "route_id,service_id,trip_id\n" +
			"r1,wk,t1\n",
		"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
			"t1,08:00:00,08:00:00,s1,1\n" +
			"t1,08:10:00,08:10:00,s2,2\n",
	}
}

func brokenFeed() map[string]string {
	files := validFeed()
	files["trips.txt"] = "route_id,service_id,trip_id\n" +
		"r1,wk,t1\n" +
		"r9,wk,t2\n"
	return files
}

type fakeMetrics struct {
	mu       sync.Mutex
	started  int
	outcomes []string
	rejected int
	tables   int
	notices  map[string]int
	skipped  map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{notices: map[string]int{}, skipped: map[string]int{}}
}

func (m *fakeMetrics) TableLoaded(string, table.Status, int, time.Duration) {
	m.mu.Lock()
	m.tables++
	m.mu.Unlock()
}

func (m *fakeMetrics) CacheStats(string, string, parsing.CacheStats) {}

func (m *fakeMetrics) RunStarted() {
	m.mu.Lock()
	m.started++
	m.mu.Unlock()
}

func (m *fakeMetrics) RunFinished(outcome string, _ time.Duration) {
	m.mu.Lock()
	m.outcomes = append(m.outcomes, outcome)
	m.mu.Unlock()
}

func (m *fakeMetrics) RunRejected() {
	m.mu.Lock()
	m.rejected++
	m.mu.Unlock()
}

func (m *fakeMetrics) NoticesEmitted(severity string, count int) {
	m.mu.Lock()
	m.notices[severity] += count
	m.mu.Unlock()
}

func (m *fakeMetrics) ValidatorsSkipped(reason string, count int) {
	m.mu.Lock()
	m.skipped[reason] += count
	m.mu.Unlock()
}

type memStore struct {
	mu      sync.Mutex
	runs    map[uuid.UUID]store.Run
	saveErr error
	pruned  []int
}

func newMemStore() *memStore {
	return &memStore{runs: map[uuid.UUID]store.Run{}}
}

func (s *memStore) SaveRun(_ context.Context, run store.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.runs[run.ID] = run
	return nil
}

func (s *memStore) GetRun(_ context.Context, id uuid.UUID) (*store.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, store.ErrRunNotFound
	}
	return &run, nil
}

func (s *memStore) RecentRuns(_ context.Context, limit int) ([]store.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var runs []store.Run
	for _, r := range s.runs {
		runs = append(runs, r)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].StartedAt.After(runs[j].StartedAt) })
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (s *memStore) Prune(_ context.Context, keep int) (int64, error) {
	s.mu.Lock()
	s.pruned = append(s.pruned, keep)
	s.mu.Unlock()
	return 0, nil
}

func newTestService(opts Options) *Service {
	reg := validator.NewRegistry()
	rules.RegisterDefaults(reg, schema.All())
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	}
	return NewService(schema.Default(), reg, opts)
}

func TestService_ValidateValidFeed(t *testing.T) {
	m := newFakeMetrics()
	s := newTestService(Options{Threads: 4, Metrics: m})
	in := &memInput{files: validFeed()}

	summary, err := s.Validate(context.Background(), ValidateRequest{Source: "metro.zip", Input: in})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if summary.HasErrors {
		t.Errorf("HasErrors = true, notices: %v", summary.Notices)
	}
	if !in.closed {
		t.Error("input was not closed")
	}
	if summary.Source != "metro.zip" {
		t.Errorf("Source = %q", summary.Source)
	}
	if summary.CountryCode != parsing.UnknownCountry {
		t.Errorf("CountryCode = %q, want %q", summary.CountryCode, parsing.UnknownCountry)
	}
	if got, want := len(summary.Tables), len(schema.All()); got != want {
		t.Errorf("len(Tables) = %d, want %d", got, want)
	}
	for _, ts := range summary.Tables {
		if ts.Filename == "stops.txt" && (ts.Rows != 2 || ts.Status != table.ParsableHeadersAndRows.String()) {
			t.Errorf("stops.txt summary = %+v", ts)
		}
	}
	if len(summary.ValidatorsRan) == 0 {
		t.Error("no validator ran")
	}

	if m.started != 1 || len(m.outcomes) != 1 || m.outcomes[0] != OutcomeValid {
		t.Errorf("metrics started=%d outcomes=%v", m.started, m.outcomes)
	}
	if m.tables == 0 {
		t.Error("table loads were not observed")
	}
	if m.notices[notice.SeverityWarning.String()] != 1 {
		t.Errorf("warning notices = %d, want 1", m.notices[notice.SeverityWarning.String()])
	}

	got, err := s.Run(context.Background(), summary.RunID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != summary {
		t.Error("Run returned a different summary")
	}
}

func TestService_ValidateReportsErrors(t *testing.T) {
	m := newFakeMetrics()
	s := newTestService(Options{Metrics: m, CountryCode: "fr"})

	summary, err := s.Validate(context.Background(), ValidateRequest{
		Source:      "broken.zip",
		Input:       &memInput{files: brokenFeed()},
		CountryCode: "ch",
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !summary.HasErrors {
		t.Error("HasErrors = false, want true")
	}
	if summary.CountryCode != "CH" {
		t.Errorf("CountryCode = %q, want CH", summary.CountryCode)
	}

	codes := map[string]int{}
	for _, c := range summary.Codes {
		codes[c.Code] = c.Count
	}
	if codes[notice.CodeForeignKeyViolation] != 1 {
		t.Errorf("foreign_key_violation count = %d, want 1", codes[notice.CodeForeignKeyViolation])
	}
	if codes[notice.CodeUnusableTrip] != 1 {
		t.Errorf("unusable_trip count = %d, want 1", codes[notice.CodeUnusableTrip])
	}
	if len(m.outcomes) != 1 || m.outcomes[0] != OutcomeInvalid {
		t.Errorf("outcomes = %v, want [invalid]", m.outcomes)
	}
}

func TestService_ValidateRequiresInput(t *testing.T) {
	s := newTestService(Options{})
	if _, err := s.Validate(context.Background(), ValidateRequest{}); !errors.Is(err, ErrNoFeed) {
		t.Errorf("Validate = %v, want ErrNoFeed", err)
	}
}

func TestService_ValidateRejectsWhenBusy(t *testing.T) {
	m := newFakeMetrics()
	s := newTestService(Options{MaxConcurrent: 1, MaxWaitTime: 10 * time.Millisecond, Metrics: m})
	if !s.limiter.TryAcquire() {
		t.Fatal("TryAcquire failed")
	}
	defer s.limiter.Release()

	in := &memInput{files: validFeed()}
	_, err := s.Validate(context.Background(), ValidateRequest{Input: in})
	if !errors.Is(err, ErrTooManyValidations) {
		t.Fatalf("Validate = %v, want ErrTooManyValidations", err)
	}
	if m.rejected != 1 || m.started != 0 {
		t.Errorf("rejected=%d started=%d", m.rejected, m.started)
	}
	if !in.closed {
		t.Error("input was not closed")
	}
}

func TestService_ValidateCancelled(t *testing.T) {
	s := newTestService(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Validate(ctx, ValidateRequest{Input: &memInput{files: validFeed()}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Validate = %v, want context.Canceled", err)
	}
}

func TestService_RetainsRecentRuns(t *testing.T) {
	s := newTestService(Options{RetainRuns: 2})

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		summary, err := s.Validate(context.Background(), ValidateRequest{Input: &memInput{files: validFeed()}})
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		ids = append(ids, summary.RunID)
	}

	if _, err := s.Run(context.Background(), ids[0]); !errors.Is(err, store.ErrRunNotFound) {
		t.Errorf("Run(oldest) = %v, want ErrRunNotFound", err)
	}
	runs, err := s.RecentRuns(context.Background(), 0)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != ids[2] || runs[1].RunID != ids[1] {
		t.Errorf("RecentRuns = %+v", runs)
	}
}

func TestService_PersistsRuns(t *testing.T) {
	st := newMemStore()
	s := newTestService(Options{Store: st, RetainRuns: 5})

	summary, err := s.Validate(context.Background(), ValidateRequest{Source: "broken.zip", Input: &memInput{files: brokenFeed()}})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	saved, ok := st.runs[summary.RunID]
	if !ok {
		t.Fatal("run was not saved")
	}
	if !saved.HasErrors || saved.NoticeCount != summary.NoticeCount() || saved.Source != "broken.zip" {
		t.Errorf("saved run = %+v", saved)
	}
	if len(st.pruned) != 1 || st.pruned[0] != 5 {
		t.Errorf("pruned = %v, want [5]", st.pruned)
	}

	// A fresh service only finds the run through the store.
	other := newTestService(Options{Store: st})
	got, err := other.Run(context.Background(), summary.RunID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.RunID != summary.RunID || len(got.Codes) != len(summary.Codes) || got.Codes[0] != summary.Codes[0] {
		t.Errorf("decoded summary = %+v", got)
	}

	runs, err := other.RecentRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != summary.RunID {
		t.Errorf("RecentRuns = %+v", runs)
	}

	if _, err := other.Run(context.Background(), uuid.New()); !errors.Is(err, store.ErrRunNotFound) {
		t.Errorf("Run(unknown) = %v, want ErrRunNotFound", err)
	}
}

func TestService_StoreFailureDoesNotFailRun(t *testing.T) {
	st := newMemStore()
	st.saveErr = errors.New("connection refused")
	s := newTestService(Options{Store: st})

	summary, err := s.Validate(context.Background(), ValidateRequest{Input: &memInput{files: validFeed()}})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if _, err := s.Run(context.Background(), summary.RunID); err != nil {
		t.Errorf("Run: %v", err)
	}
}

func TestService_Tables(t *testing.T) {
	s := newTestService(Options{})

	tables := s.Tables()
	if len(tables) != len(schema.All()) {
		t.Fatalf("len(Tables) = %d", len(tables))
	}
	if !sort.SliceIsSorted(tables, func(i, j int) bool { return tables[i].Filename < tables[j].Filename }) {
		t.Error("tables are not sorted")
	}

	stops, err := s.Table("STOPS.TXT")
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	if stops.Filename != "stops.txt" || len(stops.PrimaryKey) != 1 || stops.PrimaryKey[0] != "stop_id" {
		t.Errorf("stops = %+v", stops)
	}
	var parent ColumnInfo
	for _, c := range stops.Columns {
		if c.Name == "parent_station" {
			parent = c
		}
	}
	if parent.ForeignKey != "stops.txt.stop_id" {
		t.Errorf("parent_station foreign key = %q", parent.ForeignKey)
	}

	if _, err := s.Table("bikes.txt"); !errors.Is(err, ErrUnknownTable) {
		t.Errorf("Table(bikes.txt) = %v, want ErrUnknownTable", err)
	}
}

func TestService_Validators(t *testing.T) {
	s := newTestService(Options{})

	infos := s.Validators()
	if len(infos) != s.validators.Len() {
		t.Fatalf("len(Validators) = %d, want %d", len(infos), s.validators.Len())
	}
	found := false
	for _, v := range infos {
		if v.Name == "stop_time_trip" {
			found = true
			if v.Tier != validator.MultiFile.String() || len(v.Dependencies) != 2 {
				t.Errorf("stop_time_trip = %+v", v)
			}
		}
	}
	if !found {
		t.Error("stop_time_trip not listed")
	}
}

func TestService_Shutdown(t *testing.T) {
	s := newTestService(Options{})
	if err := s.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
	if st := s.LimiterStatus(); st.Active != 0 {
		t.Errorf("Active = %d", st.Active)
	}
}
