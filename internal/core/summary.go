package core

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/MobilityData/gtfs-validator-sub012/internal/feed"
	"github.com/MobilityData/gtfs-validator-sub012/internal/notice"
	"github.com/MobilityData/gtfs-validator-sub012/internal/schema"
	"github.com/MobilityData/gtfs-validator-sub012/internal/validator"
)

// RunSummary is the report of one validation run.
type RunSummary struct {
	RunID        uuid.UUID            `json:"run_id"`
	Source       string               `json:"source"`
	CountryCode  string               `json:"country_code"`
	StartedAt    time.Time            `json:"started_at"`
	DurationMS   int64                `json:"duration_ms"`
	HasErrors    bool                 `json:"has_errors"`
	Tables       []TableSummary       `json:"tables"`
	Codes        []notice.CodeSummary `json:"codes"`
	Notices      []notice.Notice      `json:"notices"`
	SystemErrors []notice.Notice      `json:"system_errors"`

	ValidatorsRan     []string                          `json:"validators_ran"`
	ValidatorsSkipped map[validator.SkipReason][]string `json:"validators_skipped"`
}

// NoticeCount returns the number of validation notices kept in the summary.
func (s *RunSummary) NoticeCount() int {
	return len(s.Notices)
}

// TableSummary is the load outcome of one table.
type TableSummary struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Rows     int    `json:"rows"`
}

// RunInfo is the listing view of a run.
type RunInfo struct {
	RunID       uuid.UUID `json:"run_id"`
	Source      string    `json:"source"`
	StartedAt   time.Time `json:"started_at"`
	DurationMS  int64     `json:"duration_ms"`
	HasErrors   bool      `json:"has_errors"`
	NoticeCount int       `json:"notice_count"`
}

func (s *RunSummary) info() RunInfo {
	return RunInfo{
		RunID:       s.RunID,
		Source:      s.Source,
		StartedAt:   s.StartedAt,
		DurationMS:  s.DurationMS,
		HasErrors:   s.HasErrors,
		NoticeCount: s.NoticeCount(),
	}
}

func summarize(source, countryCode string, started time.Time, result *feed.Result, notices *notice.Container) *RunSummary {
	tables := make([]TableSummary, 0, len(result.Feed.Tables()))
	for _, c := range result.Feed.Tables() {
		tables = append(tables, TableSummary{
			Filename: c.Filename(),
			Status:   c.Status().String(),
			Rows:     c.Len(),
		})
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Filename < tables[j].Filename })

	return &RunSummary{
		RunID:             result.RunID,
		Source:            source,
		CountryCode:       countryCode,
		StartedAt:         started,
		DurationMS:        result.Duration.Milliseconds(),
		HasErrors:         notices.HasValidationErrors() || notices.HasSystemErrors(),
		Tables:            tables,
		Codes:             notices.Summary(),
		Notices:           notices.ValidationNotices(),
		SystemErrors:      notices.SystemErrors(),
		ValidatorsRan:     result.Report.Ran(),
		ValidatorsSkipped: result.Report.SkippedByReason(),
	}
}

// TableInfo describes a table of the schema.
type TableInfo struct {
	Filename    string       `json:"filename"`
	Required    bool         `json:"required"`
	Recommended bool         `json:"recommended"`
	SingleRow   bool         `json:"single_row"`
	PrimaryKey  []string     `json:"primary_key,omitempty"`
	Columns     []ColumnInfo `json:"columns"`
}

// ColumnInfo describes a column of a table.
type ColumnInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Level      string `json:"level"`
	ForeignKey string `json:"foreign_key,omitempty"`
}

func tableInfo(desc *schema.TableDescriptor) TableInfo {
	info := TableInfo{
		Filename:    desc.Filename,
		Required:    desc.Required,
		Recommended: desc.Recommended,
		SingleRow:   desc.SingleRow,
		PrimaryKey:  desc.PrimaryKey(),
		Columns:     make([]ColumnInfo, len(desc.Columns)),
	}
	for i, c := range desc.Columns {
		col := ColumnInfo{Name: c.Name, Type: c.Type.String(), Level: c.Level.String()}
		if c.ForeignKey != nil {
			col.ForeignKey = c.ForeignKey.Table + "." + c.ForeignKey.Column
		}
		info.Columns[i] = col
	}
	return info
}

// ValidatorInfo describes a registered validator.
type ValidatorInfo struct {
	Name         string   `json:"name"`
	Tier         string   `json:"tier"`
	Table        string   `json:"table,omitempty"`
	Dependencies []string `json:"dependencies"`
}
