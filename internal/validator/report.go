package validator

import (
	"fmt"
	"sort"
	"sync"
)

// Outcome is what happened to one validator in a run.
type Outcome int

const (
	Ran Outcome = iota
	SkippedNoData
	SkippedDependencyError
)

func (o Outcome) String() string {
	switch o {
	case Ran:
		return "ran"
	case SkippedNoData:
		return "skipped (no data)"
	case SkippedDependencyError:
		return "skipped (dependency error)"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// SkipReason classifies why a validator did not run.
type SkipReason string

const (
	NoNeedToRun                     SkipReason = "VALIDATORS_NO_NEED_TO_RUN"
	SingleEntityValidatorsWithError SkipReason = "SINGLE_ENTITY_VALIDATORS_WITH_ERROR"
	SingleFileValidatorsWithError   SkipReason = "SINGLE_FILE_VALIDATORS_WITH_ERROR"
	MultiFileValidatorsWithError    SkipReason = "MULTI_FILE_VALIDATORS_WITH_ERROR"
)

// Reasons lists every skip reason in report order.
var Reasons = []SkipReason{
	NoNeedToRun,
	SingleEntityValidatorsWithError,
	SingleFileValidatorsWithError,
	MultiFileValidatorsWithError,
}

// ReasonFor maps a skipped outcome of a validator of tier to its reason.
// ok is false for Ran.
func ReasonFor(tier Tier, outcome Outcome) (reason SkipReason, ok bool) {
	switch outcome {
	case SkippedNoData:
		return NoNeedToRun, true
	case SkippedDependencyError:
		switch tier {
		case SingleEntity:
			return SingleEntityValidatorsWithError, true
		case SingleFile:
			return SingleFileValidatorsWithError, true
		default:
			return MultiFileValidatorsWithError, true
		}
	}
	return "", false
}

// Report records the outcome of every validator of one run. It is safe for
// concurrent use. The first outcome recorded for a validator is final.
type Report struct {
	mu       sync.Mutex
	outcomes map[string]Outcome
	tiers    map[string]Tier
}

// NewReport creates an empty run report.
func NewReport() *Report {
	return &Report{
		outcomes: make(map[string]Outcome),
		tiers:    make(map[string]Tier),
	}
}

// Record stores the outcome of the named validator. It returns false when the
// validator already had one.
func (r *Report) Record(name string, tier Tier, outcome Outcome) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.outcomes[name]; exists {
		return false
	}
	r.outcomes[name] = outcome
	r.tiers[name] = tier
	return true
}

// Outcome returns the recorded outcome of the named validator.
func (r *Report) Outcome(name string) (Outcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.outcomes[name]
	return o, ok
}

// Ran returns the names of validators that were invoked, sorted.
func (r *Report) Ran() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var names []string
	for name, o := range r.outcomes {
		if o == Ran {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Skipped returns the names of validators skipped for reason, sorted.
func (r *Report) Skipped(reason SkipReason) []string {
	return r.SkippedByReason()[reason]
}

// SkippedByReason returns every skipped validator grouped by reason. Names are
// sorted within each reason.
func (r *Report) SkippedByReason() map[SkipReason][]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make(map[SkipReason][]string)
	for name, o := range r.outcomes {
		if reason, ok := ReasonFor(r.tiers[name], o); ok {
			result[reason] = append(result[reason], name)
		}
	}
	for _, names := range result {
		sort.Strings(names)
	}
	return result
}

// SkippedCount returns how many validators did not run.
func (r *Report) SkippedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, o := range r.outcomes {
		if o != Ran {
			n++
		}
	}
	return n
}
