package config

import "strings"

// PipelineConfig is the top-level YAML structure.
type PipelineConfig struct {
	Version     string       `yaml:"version"`
	Company     string       `yaml:"company"`
	Feeds       FeedsConf    `yaml:"feeds"`
	Output      OutputConf   `yaml:"output"`
	Pipeline    PipelineConf `yaml:"pipeline"`
	MetroCities []string     `yaml:"metro_cities"`
	Reports     []string     `yaml:"reports"` // empty = all reports
	Database    DatabaseConf `yaml:"database"`
}

// FeedsConf points at the two raw input tables.
type FeedsConf struct {
	Accounts   string `yaml:"accounts"`
	Activities string `yaml:"activities"`
}

// OutputConf controls the CSV export collaborator.
type OutputConf struct {
	Dir string `yaml:"dir"`
}

// PipelineConf holds tunable concurrency settings.
type PipelineConf struct {
	ViewWorkers int `yaml:"view_workers"`
}

// DatabaseConf configures the optional Postgres persistence. The URL is
// taken from CANONPIPE_DB_URL or DATABASE_URL, never from the file.
type DatabaseConf struct {
	Schema string `yaml:"schema"`
	Tag    string `yaml:"tag"`
}

// Report names accepted in Reports.
const (
	ReportMortgage           = "mortgage_portfolio"
	ReportRestructuring      = "restructuring_pipeline"
	ReportCommercialPromises = "commercial_promises"
)

// AllReports lists every report the pipeline can produce.
var AllReports = []string{ReportMortgage, ReportRestructuring, ReportCommercialPromises}

// ReportEnabled reports whether the named report should be produced.
// An empty Reports list enables everything.
func (c *PipelineConfig) ReportEnabled(name string) bool {
	if len(c.Reports) == 0 {
		return true
	}
	for _, r := range c.Reports {
		if r == name {
			return true
		}
	}
	return false
}

// MetroSet returns the normalized metro-city lookup set.
func (c *PipelineConfig) MetroSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.MetroCities))
	for _, city := range c.MetroCities {
		set[strings.ToUpper(strings.TrimSpace(city))] = struct{}{}
	}
	return set
}
