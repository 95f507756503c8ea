package config

import (
	"fmt"
	"strings"
)

// Validate checks the config for:
//   - Required fields (version, company, both feed paths)
//   - Unknown report names
//   - Duplicate metro cities after normalization
func Validate(cfg *PipelineConfig) error {
	var errs []string

	if cfg.Version == "" {
		errs = append(errs, "version is required")
	}
	if cfg.Company == "" {
		errs = append(errs, "company is required")
	}
	if cfg.Feeds.Accounts == "" {
		errs = append(errs, "feeds.accounts is required")
	}
	if cfg.Feeds.Activities == "" {
		errs = append(errs, "feeds.activities is required")
	}
	if cfg.Pipeline.ViewWorkers < 0 {
		errs = append(errs, "pipeline.view_workers must not be negative")
	}

	known := make(map[string]struct{}, len(AllReports))
	for _, r := range AllReports {
		known[r] = struct{}{}
	}
	for i, r := range cfg.Reports {
		if _, ok := known[r]; !ok {
			errs = append(errs, fmt.Sprintf("reports[%d]: unknown report %q", i, r))
		}
	}

	seen := make(map[string]string, len(cfg.MetroCities))
	for i, city := range cfg.MetroCities {
		norm := strings.ToUpper(strings.TrimSpace(city))
		if norm == "" {
			errs = append(errs, fmt.Sprintf("metro_cities[%d]: empty city", i))
			continue
		}
		if prev, dup := seen[norm]; dup {
			errs = append(errs, fmt.Sprintf("metro_cities[%d]: duplicate city %q (already listed as %q)", i, city, prev))
		} else {
			seen[norm] = city
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
