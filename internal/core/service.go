package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MobilityData/gtfs-validator-sub012/internal/feed"
	"github.com/MobilityData/gtfs-validator-sub012/internal/logging"
	"github.com/MobilityData/gtfs-validator-sub012/internal/notice"
	"github.com/MobilityData/gtfs-validator-sub012/internal/schema"
	"github.com/MobilityData/gtfs-validator-sub012/internal/store"
	"github.com/MobilityData/gtfs-validator-sub012/internal/table"
	"github.com/MobilityData/gtfs-validator-sub012/internal/validator"
)

// DefaultTimeout is the maximum duration of one validation run.
const DefaultTimeout = 10 * time.Minute

// DefaultRetainRuns is how many run summaries are kept in memory.
const DefaultRetainRuns = 100

// RunStore persists run summaries. *store.Store satisfies it.
type RunStore interface {
	SaveRun(ctx context.Context, run store.Run) error
	GetRun(ctx context.Context, id uuid.UUID) (*store.Run, error)
	RecentRuns(ctx context.Context, limit int) ([]store.Run, error)
	Prune(ctx context.Context, keep int) (int64, error)
}

// Metrics records run activity. *metrics.Metrics satisfies it.
type Metrics interface {
	table.Observer
	RunStarted()
	RunFinished(outcome string, elapsed time.Duration)
	RunRejected()
	NoticesEmitted(severity string, count int)
	ValidatorsSkipped(reason string, count int)
}

// Options configure a Service. Zero values select defaults.
type Options struct {
	Threads           int
	CountryCode       string
	MaxNoticesPerCode int
	Timeout           time.Duration
	RetainRuns        int
	MaxConcurrent     int
	MaxWaitTime       time.Duration

	Logger  *slog.Logger
	Store   RunStore // optional
	Metrics Metrics  // optional

	// Now is the clock used for the validation date. Defaults to time.Now.
	Now func() time.Time
}

// Service validates feeds and keeps their reports.
type Service struct {
	tables     *schema.Registry
	validators *validator.Registry
	limiter    *ValidationLimiter
	opts       Options

	mu    sync.RWMutex
	runs  map[uuid.UUID]*RunSummary
	order []uuid.UUID // oldest first
}

// NewService creates a service over the given tables and validators.
func NewService(tables *schema.Registry, validators *validator.Registry, opts Options) *Service {
	if opts.Threads < 1 {
		opts.Threads = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RetainRuns <= 0 {
		opts.RetainRuns = DefaultRetainRuns
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		tables:     tables,
		validators: validators,
		limiter:    NewValidationLimiter(opts.MaxConcurrent, opts.MaxWaitTime),
		opts:       opts,
		runs:       make(map[uuid.UUID]*RunSummary),
	}
}

// ValidateRequest is one feed to validate.
type ValidateRequest struct {
	// Source names the feed in reports, e.g. the uploaded file name.
	Source string
	Input  feed.Input
	// CountryCode overrides the service default when set.
	CountryCode string
}

// Validate loads and validates a feed and returns its summary. The input is
// closed before returning. Data problems are reported as notices; an error
// is only returned when the run could not complete.
func (s *Service) Validate(ctx context.Context, req ValidateRequest) (*RunSummary, error) {
	if req.Input == nil {
		return nil, ErrNoFeed
	}
	defer req.Input.Close()

	runID := uuid.New()
	base := logging.Enrich(ctx, s.opts.Logger)
	log := base.With("run_id", runID.String())
	if err := s.limiter.Acquire(ctx); err != nil {
		if errors.Is(err, ErrTooManyValidations) && s.opts.Metrics != nil {
			s.opts.Metrics.RunRejected()
		}
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	started := s.opts.Now()
	if s.opts.Metrics != nil {
		s.opts.Metrics.RunStarted()
	}

	countryCode := req.CountryCode
	if countryCode == "" {
		countryCode = s.opts.CountryCode
	}
	vctx := validator.NewContext(countryCode, started)
	loader := feed.NewLoader(s.tables.All(), validator.NewProvider(s.validators, vctx), feed.Options{
		Threads:  s.opts.Threads,
		Logger:   base,
		Observer: s.observer(),
		RunID:    runID,
	})

	notices := notice.NewContainerWithLimit(s.opts.MaxNoticesPerCode)
	result, err := loader.LoadAndValidate(ctx, req.Input, notices)
	if err != nil {
		s.finish(OutcomeFailed, time.Since(started))
		log.Warn("validation did not complete", "source", req.Source, "error", err)
		return nil, fmt.Errorf("validate %s: %w", req.Source, err)
	}

	summary := summarize(req.Source, vctx.CountryCode, started, result, notices)
	s.remember(summary)
	s.record(summary, notices, result.Report)
	if summary.HasErrors {
		s.finish(OutcomeInvalid, result.Duration)
	} else {
		s.finish(OutcomeValid, result.Duration)
	}

	if s.opts.Store != nil {
		if err := s.persist(ctx, summary); err != nil {
			log.Error("failed to persist run", "error", err)
		}
	}
	return summary, nil
}

// Outcomes passed to Metrics.RunFinished.
const (
	OutcomeValid   = "valid"
	OutcomeInvalid = "invalid"
	OutcomeFailed  = "failed"
)

func (s *Service) observer() table.Observer {
	if s.opts.Metrics == nil {
		return nil
	}
	return s.opts.Metrics
}

func (s *Service) finish(outcome string, elapsed time.Duration) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.RunFinished(outcome, elapsed)
	}
}

func (s *Service) record(summary *RunSummary, notices *notice.Container, report *validator.Report) {
	m := s.opts.Metrics
	if m == nil {
		return
	}
	for severity, count := range notices.CountBySeverity() {
		m.NoticesEmitted(severity.String(), count)
	}
	for reason, names := range report.SkippedByReason() {
		m.ValidatorsSkipped(string(reason), len(names))
	}
}

// remember keeps summary in memory, evicting the oldest runs past RetainRuns.
func (s *Service) remember(summary *RunSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[summary.RunID] = summary
	s.order = append(s.order, summary.RunID)
	for len(s.order) > s.opts.RetainRuns {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *Service) persist(ctx context.Context, summary *RunSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	// Saving is not bound by the run deadline.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	err = s.opts.Store.SaveRun(saveCtx, store.Run{
		ID:          summary.RunID,
		Source:      summary.Source,
		StartedAt:   summary.StartedAt,
		Duration:    time.Duration(summary.DurationMS) * time.Millisecond,
		HasErrors:   summary.HasErrors,
		NoticeCount: summary.NoticeCount(),
		Summary:     data,
	})
	if err != nil {
		return err
	}
	_, err = s.opts.Store.Prune(saveCtx, s.opts.RetainRuns)
	return err
}

// Run returns the summary of a run, looking in memory first and then in the
// store. It returns store.ErrRunNotFound for unknown ids.
func (s *Service) Run(ctx context.Context, id uuid.UUID) (*RunSummary, error) {
	s.mu.RLock()
	summary, ok := s.runs[id]
	s.mu.RUnlock()
	if ok {
		return summary, nil
	}
	if s.opts.Store == nil {
		return nil, store.ErrRunNotFound
	}

	run, err := s.opts.Store.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	var stored RunSummary
	if err := json.Unmarshal(run.Summary, &stored); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	return &stored, nil
}

// RecentRuns lists up to limit runs, newest first.
func (s *Service) RecentRuns(ctx context.Context, limit int) ([]RunInfo, error) {
	if limit <= 0 {
		limit = s.opts.RetainRuns
	}
	if s.opts.Store != nil {
		runs, err := s.opts.Store.RecentRuns(ctx, limit)
		if err != nil {
			return nil, err
		}
		infos := make([]RunInfo, len(runs))
		for i, r := range runs {
			infos[i] = RunInfo{
				RunID:       r.ID,
				Source:      r.Source,
				StartedAt:   r.StartedAt,
				DurationMS:  r.Duration.Milliseconds(),
				HasErrors:   r.HasErrors,
				NoticeCount: r.NoticeCount,
			}
		}
		return infos, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]RunInfo, 0, min(limit, len(s.order)))
	for i := len(s.order) - 1; i >= 0 && len(infos) < limit; i-- {
		infos = append(infos, s.runs[s.order[i]].info())
	}
	return infos, nil
}

// Tables lists the schema's tables by filename.
func (s *Service) Tables() []TableInfo {
	descs := s.tables.All()
	infos := make([]TableInfo, len(descs))
	for i, d := range descs {
		infos[i] = tableInfo(d)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Filename < infos[j].Filename })
	return infos
}

// Table describes one table. Lookups ignore case.
func (s *Service) Table(filename string) (TableInfo, error) {
	desc, ok := s.tables.Get(filename)
	if !ok {
		return TableInfo{}, fmt.Errorf("%w: %s", ErrUnknownTable, filename)
	}
	return tableInfo(desc), nil
}

// Validators lists the registered validators in registration order.
func (s *Service) Validators() []ValidatorInfo {
	regs := s.validators.List()
	infos := make([]ValidatorInfo, len(regs))
	for i, r := range regs {
		infos[i] = ValidatorInfo{
			Name:         r.Name,
			Tier:         r.Tier.String(),
			Table:        r.Table,
			Dependencies: r.DependsOn(),
		}
	}
	return infos
}

// LimiterStatus reports how many runs are in progress.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// Shutdown waits for in-flight runs to finish or ctx to end.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
