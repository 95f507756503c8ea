// Package store persists pipeline runs in Postgres: one summary row per
// run plus the three report row sets, written in a single transaction.
// Persistence is optional; the pipeline itself never depends on it.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/collectionsops/canonpipe/internal/config"
	"github.com/collectionsops/canonpipe/internal/pipeline"
)

const connectTimeout = 12 * time.Second

var validSchema = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Store writes the run result to Postgres and returns the stored run id.
func Store(ctx context.Context, url string, cfg config.DatabaseConf, res *pipeline.RunResult) (string, error) {
	schema, err := sanitizeSchema(cfg.Schema)
	if err != nil {
		return "", err
	}

	db, err := sql.Open("pgx", url)
	if err != nil {
		return "", err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return "", err
	}
	if err := ensureSchema(ctx, db, schema); err != nil {
		return "", err
	}
	return storeRunTx(ctx, db, schema, cfg.Tag, res)
}

func sanitizeSchema(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errors.New("db schema is required")
	}
	if !validSchema.MatchString(value) {
		return "", fmt.Errorf("invalid schema name: %s", value)
	}
	return value, nil
}

func storeRunTx(ctx context.Context, db *sql.DB, schema, tag string, res *pipeline.RunResult) (string, error) {
	runID, err := uuid.Parse(res.RunID)
	if err != nil {
		return "", fmt.Errorf("invalid run id %q: %w", res.RunID, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	summary := res.Summary()
	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s.pipeline_runs (
			id, started_at, duration_ms, account_rows, activity_rows,
			activity_rows_skipped, invalid_dates, unclassified_channels,
			unclassified_contacts, mortgage_rows, restructuring_rows,
			commercial_rows, run_tag
		) VALUES (
			$1,$2,$3,$4,$5,
			$6,$7,$8,
			$9,$10,$11,
			$12,$13
		)`, schema),
		runID,
		summary.StartedAt,
		summary.DurationMs,
		summary.AccountRows,
		summary.ActivityRows,
		summary.ActivityRowsSkipped,
		summary.InvalidDates,
		summary.UnclassifiedChannels,
		summary.UnclassifiedContacts,
		len(res.Mortgage),
		len(res.Restructuring),
		len(res.CommercialPromises),
		nullString(tag),
	)
	if err != nil {
		return "", err
	}

	insertMortgageSQL := fmt.Sprintf(`
		INSERT INTO %s.mortgage_portfolio (
			id, run_id, company, account_id, check_digit, agent_type,
			customer_name, product_type, risk_segment, outstanding_balance,
			operation_number, customer_city, coverage_area, contact_channel,
			contact_type, contact_phone, contact_notes, last_activity_date,
			next_activity_date, contact_agent, field_visit_completed
		) VALUES (
			$1,$2,$3,$4,$5,$6,
			$7,$8,$9,$10,
			$11,$12,$13,$14,
			$15,$16,$17,$18,
			$19,$20,$21
		)`, schema)
	for _, r := range res.Mortgage {
		_, err = tx.ExecContext(ctx, insertMortgageSQL,
			uuid.New(), runID, r.Company, r.AccountID, r.CheckDigit, r.AgentType,
			r.CustomerName, r.ProductType, r.RiskSegment, r.OutstandingBalance.String(),
			r.OperationNumber, r.CustomerCity, r.CoverageArea, r.ContactChannel,
			r.ContactType, r.ContactPhone, r.ContactNotes, r.LastActivityDate,
			r.NextActivityDate, r.ContactAgent, r.FieldVisitCompleted,
		)
		if err != nil {
			return "", err
		}
	}

	insertRestructuringSQL := fmt.Sprintf(`
		INSERT INTO %s.restructuring_pipeline (
			id, run_id, company, account_id, check_digit, customer_name,
			product_type, risk_segment, outstanding_balance, customer_city,
			coverage_area, contact_channel, contact_type, contact_phone,
			contact_notes, last_activity_date, field_visit_completed,
			restructure_date, restructure_notes, restructure_agent
		) VALUES (
			$1,$2,$3,$4,$5,$6,
			$7,$8,$9,$10,
			$11,$12,$13,$14,
			$15,$16,$17,
			$18,$19,$20
		)`, schema)
	for _, r := range res.Restructuring {
		_, err = tx.ExecContext(ctx, insertRestructuringSQL,
			uuid.New(), runID, r.Company, r.AccountID, r.CheckDigit, r.CustomerName,
			r.ProductType, r.RiskSegment, r.OutstandingBalance.String(), r.CustomerCity,
			r.CoverageArea, r.ContactChannel, r.ContactType, r.ContactPhone,
			r.ContactNotes, r.LastActivityDate, r.FieldVisitCompleted,
			r.RestructureDate, r.RestructureNotes, r.RestructureAgent,
		)
		if err != nil {
			return "", err
		}
	}

	insertPromiseSQL := fmt.Sprintf(`
		INSERT INTO %s.commercial_promises (
			id, run_id, company, account_id, check_digit, customer_name,
			product_type, risk_segment, outstanding_balance, customer_city,
			coverage_area, contact_channel, contact_type, contact_phone,
			contact_notes, last_activity_date, payment_promise_active,
			promise_date
		) VALUES (
			$1,$2,$3,$4,$5,$6,
			$7,$8,$9,$10,
			$11,$12,$13,$14,
			$15,$16,$17,
			$18
		)`, schema)
	for _, r := range res.CommercialPromises {
		_, err = tx.ExecContext(ctx, insertPromiseSQL,
			uuid.New(), runID, r.Company, r.AccountID, r.CheckDigit, r.CustomerName,
			r.ProductType, r.RiskSegment, r.OutstandingBalance.String(), r.CustomerCity,
			r.CoverageArea, r.ContactChannel, r.ContactType, r.ContactPhone,
			r.ContactNotes, r.LastActivityDate, r.PaymentPromiseActive,
			r.PromiseDate,
		)
		if err != nil {
			return "", err
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return runID.String(), nil
}

func ensureSchema(ctx context.Context, db *sql.DB, schema string) error {
	if _, err := db.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, schema)); err != nil {
		return err
	}

	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.pipeline_runs (
			id uuid PRIMARY KEY,
			started_at timestamptz NOT NULL,
			duration_ms bigint NOT NULL,
			account_rows integer NOT NULL,
			activity_rows integer NOT NULL,
			activity_rows_skipped integer NOT NULL,
			invalid_dates integer NOT NULL,
			unclassified_channels integer NOT NULL,
			unclassified_contacts integer NOT NULL,
			mortgage_rows integer NOT NULL,
			restructuring_rows integer NOT NULL,
			commercial_rows integer NOT NULL,
			run_tag text,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema))
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.mortgage_portfolio (
			id uuid PRIMARY KEY,
			run_id uuid NOT NULL REFERENCES %s.pipeline_runs(id) ON DELETE CASCADE,
			company text NOT NULL,
			account_id text NOT NULL,
			check_digit text,
			agent_type text,
			customer_name text,
			product_type text,
			risk_segment text,
			outstanding_balance numeric(18,2),
			operation_number text,
			customer_city text,
			coverage_area text,
			contact_channel text,
			contact_type text,
			contact_phone text,
			contact_notes text,
			last_activity_date text,
			next_activity_date text,
			contact_agent text,
			field_visit_completed text,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema, schema))
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.restructuring_pipeline (
			id uuid PRIMARY KEY,
			run_id uuid NOT NULL REFERENCES %s.pipeline_runs(id) ON DELETE CASCADE,
			company text NOT NULL,
			account_id text NOT NULL,
			check_digit text,
			customer_name text,
			product_type text,
			risk_segment text,
			outstanding_balance numeric(18,2),
			customer_city text,
			coverage_area text,
			contact_channel text,
			contact_type text,
			contact_phone text,
			contact_notes text,
			last_activity_date text,
			field_visit_completed text,
			restructure_date text,
			restructure_notes text,
			restructure_agent text,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema, schema))
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.commercial_promises (
			id uuid PRIMARY KEY,
			run_id uuid NOT NULL REFERENCES %s.pipeline_runs(id) ON DELETE CASCADE,
			company text NOT NULL,
			account_id text NOT NULL,
			check_digit text,
			customer_name text,
			product_type text,
			risk_segment text,
			outstanding_balance numeric(18,2),
			customer_city text,
			coverage_area text,
			contact_channel text,
			contact_type text,
			contact_phone text,
			contact_notes text,
			last_activity_date text,
			payment_promise_active text,
			promise_date text,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema, schema))
	if err != nil {
		return err
	}

	for _, table := range []string{"mortgage_portfolio", "restructuring_pipeline", "commercial_promises"} {
		_, err = db.ExecContext(ctx, fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS %s_%s_run_idx ON %s.%s (run_id)`,
			schema, table, schema, table))
		if err != nil {
			return err
		}
	}
	return nil
}

func nullString(value string) sql.NullString {
	if strings.TrimSpace(value) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
