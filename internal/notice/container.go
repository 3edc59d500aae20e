package notice

import (
	"sort"
	"sync"
)

// Container collects the notices of one validation run.
//
// All methods are safe for concurrent use: loader workers and validators
// append from many goroutines, and no notice is ever lost. Notices are kept
// in append order.
//
// When a per-code limit is set, notices beyond the limit are counted but not
// retained, so CountByCode and CountBySeverity stay exact while memory stays
// bounded on feeds with millions of identical findings.
type Container struct {
	mu sync.Mutex

	maxPerCode int

	validation []Notice
	system     []Notice

	byCode     map[string]int
	bySeverity map[Severity]int
	hasErrors  bool
}

// NewContainer creates a container that retains every notice.
func NewContainer() *Container {
	return NewContainerWithLimit(0)
}

// NewContainerWithLimit creates a container that retains at most maxPerCode
// validation notices per code. Zero or negative means unlimited.
func NewContainerWithLimit(maxPerCode int) *Container {
	if maxPerCode < 0 {
		maxPerCode = 0
	}
	return &Container{
		maxPerCode: maxPerCode,
		byCode:     make(map[string]int),
		bySeverity: make(map[Severity]int),
	}
}

// AddValidationNotice appends a data-quality notice.
func (c *Container) AddValidationNotice(n Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addValidationLocked(n)
}

func (c *Container) addValidationLocked(n Notice) {
	c.byCode[n.Code]++
	c.bySeverity[n.Severity]++
	if n.Severity == SeverityError {
		c.hasErrors = true
	}
	if c.maxPerCode > 0 && c.byCode[n.Code] > c.maxPerCode {
		return
	}
	c.validation = append(c.validation, n)
}

// AddSystemError appends an unrecoverable, process-level error.
// System errors are never capped.
func (c *Container) AddSystemError(n Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.system = append(c.system, n)
}

// AddAll moves every notice of other into c, preserving other's order.
// Counts of notices other dropped because of its own limit are carried over.
func (c *Container) AddAll(other *Container) {
	if other == nil || other == c {
		return
	}

	other.mu.Lock()
	validation := append([]Notice(nil), other.validation...)
	system := append([]Notice(nil), other.system...)
	dropped := make(map[string]int)
	droppedSeverity := make(map[Severity]int)
	kept := make(map[string]int)
	for _, n := range other.validation {
		kept[n.Code]++
	}
	for code, total := range other.byCode {
		if extra := total - kept[code]; extra > 0 {
			dropped[code] = extra
		}
	}
	if len(dropped) > 0 {
		keptSeverity := make(map[Severity]int)
		for _, n := range other.validation {
			keptSeverity[n.Severity]++
		}
		for sev, total := range other.bySeverity {
			if extra := total - keptSeverity[sev]; extra > 0 {
				droppedSeverity[sev] = extra
			}
		}
	}
	otherHasErrors := other.hasErrors
	other.mu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range validation {
		c.addValidationLocked(n)
	}
	for code, extra := range dropped {
		c.byCode[code] += extra
	}
	for sev, extra := range droppedSeverity {
		c.bySeverity[sev] += extra
	}
	if otherHasErrors {
		c.hasErrors = true
	}
	c.system = append(c.system, system...)
}

// ValidationNotices returns a copy of the retained validation notices in append order.
func (c *Container) ValidationNotices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notice(nil), c.validation...)
}

// SystemErrors returns a copy of the system errors in append order.
func (c *Container) SystemErrors() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notice(nil), c.system...)
}

// HasValidationErrors reports whether any ERROR validation notice was added,
// including notices dropped by the per-code limit.
func (c *Container) HasValidationErrors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasErrors
}

// HasSystemErrors reports whether any system error was added.
func (c *Container) HasSystemErrors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.system) > 0
}

// Len returns the number of validation notices added, retained or not.
func (c *Container) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.byCode {
		total += n
	}
	return total
}

// CountByCode returns how many validation notices were added per code.
func (c *Container) CountByCode() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.byCode))
	for k, v := range c.byCode {
		out[k] = v
	}
	return out
}

// CountBySeverity returns how many validation notices were added per severity.
func (c *Container) CountBySeverity() map[Severity]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[Severity]int, len(c.bySeverity))
	for k, v := range c.bySeverity {
		out[k] = v
	}
	return out
}

// CodeSummary is the aggregated view of one notice code.
type CodeSummary struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Count    int      `json:"count"`
}

// Summary aggregates validation notices by code, most severe first and
// then alphabetically by code.
func (c *Container) Summary() []CodeSummary {
	c.mu.Lock()
	severity := make(map[string]Severity, len(c.byCode))
	for _, n := range c.validation {
		if s, ok := severity[n.Code]; !ok || n.Severity > s {
			severity[n.Code] = n.Severity
		}
	}
	out := make([]CodeSummary, 0, len(c.byCode))
	for code, count := range c.byCode {
		out = append(out, CodeSummary{Code: code, Severity: severity[code], Count: count})
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return out[i].Severity > out[j].Severity
		}
		return out[i].Code < out[j].Code
	})
	return out
}
