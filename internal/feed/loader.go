// Package feed loads every table of a feed and runs the registered validators
// over them.
//
// A run has three phases separated by barriers. Tables load in parallel, one
// table per worker. Once every table has a final status the feed is
// assembled, then single-entity and single-file validators run per table, and
// multi-file validators run last. Each worker writes to a private notice
// container; containers are merged in a fixed order so that a run produces
// the same report whatever the number of workers.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MobilityData/gtfs-validator-sub012/internal/notice"
	"github.com/MobilityData/gtfs-validator-sub012/internal/parsing"
	"github.com/MobilityData/gtfs-validator-sub012/internal/schema"
	"github.com/MobilityData/gtfs-validator-sub012/internal/table"
	"github.com/MobilityData/gtfs-validator-sub012/internal/validator"
)

// Options tune a Loader. The zero value loads sequentially.
type Options struct {
	// Threads is the number of tables loaded, and validated, at once.
	// Values below one mean one.
	Threads int
	// FieldValidator checks cell hygiene and formats while parsing.
	// Defaults to a DefaultFieldValidator for the provider's country.
	FieldValidator parsing.FieldValidator
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Observer receives per-table load statistics. Optional.
	Observer table.Observer
	// RunID identifies the run in logs and results. A random id is used
	// when unset.
	RunID uuid.UUID
}

// Result is the outcome of one run.
type Result struct {
	RunID    uuid.UUID
	Feed     *table.Feed
	Report   *validator.Report
	Duration time.Duration
}

// Loader runs feeds through table loading and validation.
type Loader struct {
	descriptors []*schema.TableDescriptor
	byName      map[string]*schema.TableDescriptor
	provider    *validator.Provider
	opts        Options
}

// NewLoader creates a loader for the given tables and validators.
func NewLoader(descriptors []*schema.TableDescriptor, provider *validator.Provider, opts Options) *Loader {
	if opts.Threads < 1 {
		opts.Threads = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.FieldValidator == nil {
		opts.FieldValidator = parsing.NewDefaultFieldValidator(provider.Context().CountryCode)
	}

	byName := make(map[string]*schema.TableDescriptor, len(descriptors))
	for _, desc := range descriptors {
		byName[schema.Key(desc.Filename)] = desc
	}
	return &Loader{descriptors: descriptors, byName: byName, provider: provider, opts: opts}
}

// Threads returns the size of the worker pool.
func (l *Loader) Threads() int { return l.opts.Threads }

// job is one member to load, in member order.
type job struct {
	member string
	desc   *schema.TableDescriptor
}

// workerResult is what one worker hands back at a barrier.
type workerResult struct {
	container *table.Container
	notices   *notice.Container
}

// LoadAndValidate loads every table of input and validates the feed, writing
// all notices to notices. It only returns an error when ctx is cancelled;
// data problems, unreadable members and panicking workers become notices.
func (l *Loader) LoadAndValidate(ctx context.Context, input Input, notices *notice.Container) (*Result, error) {
	start := time.Now()
	runID := l.opts.RunID
	if runID == uuid.Nil {
		runID = uuid.New()
	}
	log := l.opts.Logger.With("run_id", runID.String())
	log.Info("loading feed", "threads", l.opts.Threads, "tables", len(l.descriptors))

	jobs, missing := l.plan(input, notices)

	var containers []*table.Container
	for _, desc := range missing {
		containers = append(containers, table.LoadMissing(desc, notices))
	}

	loaded, err := l.loadTables(ctx, input, jobs, log)
	if err != nil {
		return nil, err
	}
	for _, r := range loaded {
		notices.AddAll(r.notices)
		containers = append(containers, r.container)
	}

	feed := table.NewFeed(containers)
	report := validator.NewReport()

	if err := l.validateTables(ctx, feed, report, notices); err != nil {
		return nil, err
	}
	if err := l.validateFeed(ctx, feed, report, notices); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:    runID,
		Feed:     feed,
		Report:   report,
		Duration: time.Since(start),
	}
	log.Info("feed validated",
		"duration", result.Duration,
		"notices", notices.Len(),
		"system_errors", len(notices.SystemErrors()),
		"validators_ran", len(report.Ran()),
		"validators_skipped", report.SkippedCount(),
	)
	return result, nil
}

// plan matches members to descriptors. Unknown members are reported on
// notices; descriptors without a member are returned as missing.
func (l *Loader) plan(input Input, notices *notice.Container) ([]job, []*schema.TableDescriptor) {
	var jobs []job
	matched := make(map[string]bool)

	for _, member := range input.Members() {
		key := schema.Key(member)
		desc, ok := l.byName[key]
		if !ok || matched[key] {
			notices.AddValidationNotice(notice.UnknownFile(member))
			continue
		}
		matched[key] = true
		jobs = append(jobs, job{member: member, desc: desc})
	}

	var missing []*schema.TableDescriptor
	for _, desc := range l.descriptors {
		if !matched[schema.Key(desc.Filename)] {
			missing = append(missing, desc)
		}
	}
	return jobs, missing
}

func (l *Loader) loadTables(ctx context.Context, input Input, jobs []job, log *slog.Logger) ([]workerResult, error) {
	results := make([]workerResult, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Threads)
	for i, j := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			results[i] = l.loadTable(input, j, log)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	return results, nil
}

// loadTable loads one member. A panic is reported as a system error and the
// table is treated as missing.
func (l *Loader) loadTable(input Input, j job, log *slog.Logger) (res workerResult) {
	res.notices = notice.NewContainer()

	defer func() {
		if r := recover(); r != nil {
			log.Error("runtime exception while loading table", "table", j.desc.Filename, "panic", r)
			res.notices.AddSystemError(notice.RuntimeExceptionInLoader(j.desc.Filename, r))
			res.container = table.LoadMissing(j.desc, res.notices)
		}
	}()

	rc, err := input.Open(j.member)
	if err != nil {
		log.Error("cannot open table", "table", j.desc.Filename, "error", err)
		res.notices.AddSystemError(notice.IOError(j.desc.Filename, err))
		res.container = table.LoadFailed(j.desc, err, res.notices)
		return res
	}
	defer rc.Close()

	res.container = table.Load(j.desc, rc, table.LoadDeps{
		Notices:        res.notices,
		FieldValidator: l.opts.FieldValidator,
		Logger:         log,
		Observer:       l.opts.Observer,
	})
	return res
}

// validateTables runs single-entity and single-file validators, one table per worker.
func (l *Loader) validateTables(ctx context.Context, feed *table.Feed, report *validator.Report, notices *notice.Container) error {
	tables := feed.Tables()
	sinks := make([]*notice.Container, len(tables))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Threads)
	for i, c := range tables {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			sink := notice.NewContainer()
			validator.RunEntities(l.provider.SingleEntityValidators(c, report), c, sink)
			for _, b := range l.provider.SingleFileValidators(c, report) {
				validator.RunFile(b, sink)
			}
			sinks[i] = sink
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("validate tables: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("validate tables: %w", err)
	}

	for _, sink := range sinks {
		notices.AddAll(sink)
	}
	return nil
}

// validateFeed runs multi-file validators, one validator per worker.
func (l *Loader) validateFeed(ctx context.Context, feed *table.Feed, report *validator.Report, notices *notice.Container) error {
	bound := l.provider.MultiFileValidators(feed, report)
	sinks := make([]*notice.Container, len(bound))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Threads)
	for i, b := range bound {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			sink := notice.NewContainer()
			validator.RunFile(b, sink)
			sinks[i] = sink
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("validate feed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("validate feed: %w", err)
	}

	for _, sink := range sinks {
		notices.AddAll(sink)
	}
	return nil
}
