package validator

import (
	"github.com/MobilityData/gtfs-validator-sub012/internal/schema"
	"github.com/MobilityData/gtfs-validator-sub012/internal/table"
)

// BoundEntityValidator is a single-entity validator ready to run.
type BoundEntityValidator struct {
	Name      string
	Validator SingleEntityValidator
}

// BoundFileValidator is a single-file or multi-file validator bound to its tables.
type BoundFileValidator struct {
	Name      string
	Validator FileValidator
}

// Provider resolves registrations against loaded tables and instantiates the
// validators that can run.
type Provider struct {
	registry *Registry
	ctx      Context
}

// NewProvider creates a provider over reg for one validation context.
func NewProvider(reg *Registry, ctx Context) *Provider {
	return &Provider{registry: reg, ctx: ctx}
}

// Context returns the validation context validators are built with.
func (p *Provider) Context() Context { return p.ctx }

// Registry returns the registrations the provider resolves.
func (p *Provider) Registry() *Registry { return p.registry }

// SingleEntityValidators returns the single-entity validators for c's table.
// Validators that cannot run are recorded in report instead.
func (p *Provider) SingleEntityValidators(c *table.Container, report *Report) []BoundEntityValidator {
	var result []BoundEntityValidator
	for _, reg := range p.registry.ForTable(SingleEntity, c.Filename()) {
		outcome := resolve([]*table.Container{c})
		if outcome != Ran {
			report.Record(reg.Name, reg.Tier, outcome)
			continue
		}

		v := reg.NewEntity(p.ctx)
		if !shouldRun(v) {
			report.Record(reg.Name, reg.Tier, SkippedNoData)
			continue
		}
		report.Record(reg.Name, reg.Tier, Ran)
		result = append(result, BoundEntityValidator{Name: reg.Name, Validator: v})
	}
	return result
}

// SingleFileValidators returns the single-file validators bound to c.
// Validators that cannot run are recorded in report instead.
func (p *Provider) SingleFileValidators(c *table.Container, report *Report) []BoundFileValidator {
	var result []BoundFileValidator
	for _, reg := range p.registry.ForTable(SingleFile, c.Filename()) {
		outcome := resolve([]*table.Container{c})
		if outcome != Ran {
			report.Record(reg.Name, reg.Tier, outcome)
			continue
		}

		deps := Deps{tables: map[string]*table.Container{schema.Key(c.Filename()): c}}
		if b, ok := p.bind(reg, deps, report); ok {
			result = append(result, b)
		}
	}
	return result
}

// MultiFileValidators returns the multi-file validators whose dependencies are
// all parsable in feed. Validators that cannot run are recorded in report instead.
func (p *Provider) MultiFileValidators(feed *table.Feed, report *Report) []BoundFileValidator {
	var result []BoundFileValidator
	for _, reg := range p.registry.ByTier(MultiFile) {
		deps := Deps{feed: feed, tables: make(map[string]*table.Container, len(reg.Dependencies))}
		containers := make([]*table.Container, len(reg.Dependencies))
		for i, name := range reg.Dependencies {
			c, _ := feed.Table(name)
			containers[i] = c
			deps.tables[schema.Key(name)] = c
		}

		outcome := resolve(containers)
		if outcome != Ran {
			report.Record(reg.Name, reg.Tier, outcome)
			continue
		}
		if b, ok := p.bind(reg, deps, report); ok {
			result = append(result, b)
		}
	}
	return result
}

func (p *Provider) bind(reg Registration, deps Deps, report *Report) (BoundFileValidator, bool) {
	v := reg.NewFile(p.ctx, deps)
	if !shouldRun(v) {
		report.Record(reg.Name, reg.Tier, SkippedNoData)
		return BoundFileValidator{}, false
	}
	report.Record(reg.Name, reg.Tier, Ran)
	return BoundFileValidator{Name: reg.Name, Validator: v}, true
}

// resolve decides whether a validator over containers can run. A dependency
// that failed to parse or is an empty file wins over one that is absent or
// has no rows.
func resolve(containers []*table.Container) Outcome {
	noData := false
	for _, c := range containers {
		if c == nil {
			noData = true
			continue
		}
		switch c.Status() {
		case table.InvalidHeaders, table.UnparsableRows, table.EmptyFile:
			return SkippedDependencyError
		case table.MissingFile:
			noData = true
		case table.ParsableHeadersAndRows:
			if c.IsEmpty() {
				noData = true
			}
		}
	}
	if noData {
		return SkippedNoData
	}
	return Ran
}

func shouldRun(v any) bool {
	if n, ok := v.(NeedsToRun); ok {
		return n.ShouldRun()
	}
	return true
}
