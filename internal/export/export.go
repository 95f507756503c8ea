// Package export writes the three report row sets as CSV files. Column
// order and presence are part of the report contract; changing either is a
// breaking change for downstream consumers.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/collectionsops/canonpipe/internal/config"
	"github.com/collectionsops/canonpipe/internal/pipeline"
)

// File names per report, under the configured output directory.
const (
	MortgageFile           = "mortgage_portfolio.csv"
	RestructuringFile      = "restructuring_pipeline.csv"
	CommercialPromisesFile = "commercial_promises.csv"
)

// WriteReports exports every enabled report from the run result into dir.
func WriteReports(dir string, cfg *config.PipelineConfig, res *pipeline.RunResult) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if cfg.ReportEnabled(config.ReportMortgage) {
		if err := WriteMortgage(filepath.Join(dir, MortgageFile), res); err != nil {
			return err
		}
	}
	if cfg.ReportEnabled(config.ReportRestructuring) {
		if err := WriteRestructuring(filepath.Join(dir, RestructuringFile), res); err != nil {
			return err
		}
	}
	if cfg.ReportEnabled(config.ReportCommercialPromises) {
		if err := WriteCommercialPromises(filepath.Join(dir, CommercialPromisesFile), res); err != nil {
			return err
		}
	}
	return nil
}

// WriteMortgage writes the Mortgage Portfolio report.
func WriteMortgage(path string, res *pipeline.RunResult) error {
	return writeCSV(path, []string{
		"company",
		"account_id",
		"check_digit",
		"agent_type",
		"customer_name",
		"product_type",
		"risk_segment",
		"outstanding_balance",
		"operation_number",
		"customer_city",
		"coverage_area",
		"contact_channel",
		"contact_type",
		"contact_phone",
		"contact_notes",
		"last_activity_date",
		"next_activity_date",
		"contact_agent",
		"field_visit_completed",
	}, len(res.Mortgage), func(i int) []string {
		r := res.Mortgage[i]
		return []string{
			r.Company,
			r.AccountID,
			r.CheckDigit,
			r.AgentType,
			r.CustomerName,
			r.ProductType,
			r.RiskSegment,
			r.OutstandingBalance.String(),
			r.OperationNumber,
			r.CustomerCity,
			r.CoverageArea,
			r.ContactChannel,
			r.ContactType,
			r.ContactPhone,
			r.ContactNotes,
			r.LastActivityDate,
			r.NextActivityDate,
			r.ContactAgent,
			r.FieldVisitCompleted,
		}
	})
}

// WriteRestructuring writes the Restructuring Pipeline report.
func WriteRestructuring(path string, res *pipeline.RunResult) error {
	return writeCSV(path, []string{
		"company",
		"account_id",
		"check_digit",
		"customer_name",
		"product_type",
		"risk_segment",
		"outstanding_balance",
		"customer_city",
		"coverage_area",
		"contact_channel",
		"contact_type",
		"contact_phone",
		"contact_notes",
		"last_activity_date",
		"field_visit_completed",
		"restructure_date",
		"restructure_notes",
		"restructure_agent",
	}, len(res.Restructuring), func(i int) []string {
		r := res.Restructuring[i]
		return []string{
			r.Company,
			r.AccountID,
			r.CheckDigit,
			r.CustomerName,
			r.ProductType,
			r.RiskSegment,
			r.OutstandingBalance.String(),
			r.CustomerCity,
			r.CoverageArea,
			r.ContactChannel,
			r.ContactType,
			r.ContactPhone,
			r.ContactNotes,
			r.LastActivityDate,
			r.FieldVisitCompleted,
			r.RestructureDate,
			r.RestructureNotes,
			r.RestructureAgent,
		}
	})
}

// WriteCommercialPromises writes the Commercial Promises report.
func WriteCommercialPromises(path string, res *pipeline.RunResult) error {
	return writeCSV(path, []string{
		"company",
		"account_id",
		"check_digit",
		"customer_name",
		"product_type",
		"risk_segment",
		"outstanding_balance",
		"customer_city",
		"coverage_area",
		"contact_channel",
		"contact_type",
		"contact_phone",
		"contact_notes",
		"last_activity_date",
		"payment_promise_active",
		"promise_date",
	}, len(res.CommercialPromises), func(i int) []string {
		r := res.CommercialPromises[i]
		return []string{
			r.Company,
			r.AccountID,
			r.CheckDigit,
			r.CustomerName,
			r.ProductType,
			r.RiskSegment,
			r.OutstandingBalance.String(),
			r.CustomerCity,
			r.CoverageArea,
			r.ContactChannel,
			r.ContactType,
			r.ContactPhone,
			r.ContactNotes,
			r.LastActivityDate,
			r.PaymentPromiseActive,
			r.PromiseDate,
		}
	})
}

func writeCSV(path string, header []string, n int, row func(int) []string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := writer.Write(row(i)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
