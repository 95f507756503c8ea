package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/collectionsops/canonpipe/internal/config"
	"github.com/collectionsops/canonpipe/internal/pipeline"
	"github.com/collectionsops/canonpipe/internal/report"
)

const accountsCSV = "account_id,account_checkdigit,agent_type,customer_name,product_type,risk_segment,outstanding_balance,operation_number,containment_percentage,business_division,customer_city\n" +
	"A-1,7,INTERNAL,Jane Roe,MORTGAGE,HIGH,15230.50,OP-1,0,RETAIL,Springfield\n" +
	"A-2,3,INTERNAL,John Doe,COMMERCIAL_LOAN,LOW,980.00,OP-2,0,RETAIL,Shelbyville\n" +
	"A-3,1,EXTERNAL,Ann Lee,MORTGAGE,MEDIUM,44000.00,OP-3,0,RETAIL,Springfield\n" +
	"A-4,9,INTERNAL,Bob Ray,MORTGAGE,HIGH,1200.00,OP-4,50,RETAIL,Springfield\n"

const activitiesCSV = "account_id,activity_date,activity_time,next_activity_date,collection_channel,contact_type,contact_outcome,notes,phone_number,agent_name\n" +
	"A-1,05/03/2024,10:15:00,12/03/2024,PHONE,PRIMARY,,spoke with holder,555-0100,M. PEREZ\n" +
	"A-1,06/03/2024,09:00:00,,EMAIL,THIRD_PARTY,,sent reminder,,M. PEREZ\n" +
	"A-2,04/03/2024,16:30:00,,PHONE,PRIMARY,PAYMENT_PROMISE,will pay friday,555-0200,R. GOMEZ\n" +
	"A-2,07/03/2024,11:00:00,,PHONE,PRIMARY,RESTRUCTURE_REQUEST,asked for new plan,555-0200,R. GOMEZ\n" +
	"A-3,bad-date,09:00:00,,FIELD,NO_CONTACT,,door visit nobody home,,AUTO_DIALER\n"

func writeFixtures(t *testing.T) *config.PipelineConfig {
	t.Helper()
	dir := t.TempDir()
	accounts := filepath.Join(dir, "accounts.csv")
	activities := filepath.Join(dir, "activities.csv")
	if err := os.WriteFile(accounts, []byte(accountsCSV), 0644); err != nil {
		t.Fatalf("write accounts: %v", err)
	}
	if err := os.WriteFile(activities, []byte(activitiesCSV), 0644); err != nil {
		t.Fatalf("write activities: %v", err)
	}
	return &config.PipelineConfig{
		Version:     "v1",
		Company:     "ACME_BANK",
		Feeds:       config.FeedsConf{Accounts: accounts, Activities: activities},
		Pipeline:    config.PipelineConf{ViewWorkers: 4},
		MetroCities: []string{"Springfield"},
	}
}

func TestRunEndToEnd(t *testing.T) {
	cfg := writeFixtures(t)
	p := pipeline.New()

	res, err := p.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if res.AccountRows != 4 || res.ActivityRows != 5 {
		t.Errorf("expected 4 accounts / 5 events, got %d / %d", res.AccountRows, res.ActivityRows)
	}
	if res.InvalidDates != 1 {
		t.Errorf("expected 1 invalid date, got %d", res.InvalidDates)
	}

	// Mortgage: A-1 (has primary contact), A-3 (field visit only). A-4 is
	// contained, A-2 is a commercial loan.
	if len(res.Mortgage) != 2 {
		t.Fatalf("expected 2 mortgage rows, got %d", len(res.Mortgage))
	}
	byAccount := map[string]report.MortgageRow{}
	for _, r := range res.Mortgage {
		byAccount[r.AccountID] = r
	}
	a1 := byAccount["A-1"]
	if a1.ContactChannel != "PHONE" || a1.ContactType != "PRIMARY" {
		t.Errorf("A-1 expected PHONE/PRIMARY, got %s/%s", a1.ContactChannel, a1.ContactType)
	}
	if a1.LastActivityDate != "2024-03-05" {
		t.Errorf("A-1 expected last activity 2024-03-05, got %s", a1.LastActivityDate)
	}
	if a1.FieldVisitCompleted != report.FlagNo {
		t.Errorf("A-1 expected no field visit")
	}
	a3 := byAccount["A-3"]
	if a3.FieldVisitCompleted != report.FlagYes {
		t.Errorf("A-3 expected field_visit_completed=YES, got %s", a3.FieldVisitCompleted)
	}
	if a3.ContactPhone != report.NoContact || a3.ContactType != report.NoContact {
		t.Errorf("A-3 expected NO_CONTACT defaults, got phone %s type %s", a3.ContactPhone, a3.ContactType)
	}
	if a3.CoverageArea != report.FlagYes {
		t.Errorf("A-3 expected coverage_area=YES, got %s", a3.CoverageArea)
	}

	// Restructuring: only A-2 has a restructure outcome.
	if len(res.Restructuring) != 1 || res.Restructuring[0].AccountID != "A-2" {
		t.Fatalf("expected restructuring pipeline to hold only A-2, got %+v", res.Restructuring)
	}
	if res.Restructuring[0].RestructureDate != "2024-03-07" {
		t.Errorf("A-2 expected restructure date 2024-03-07, got %s", res.Restructuring[0].RestructureDate)
	}

	// Commercial promises: A-2 with an active promise.
	if len(res.CommercialPromises) != 1 {
		t.Fatalf("expected 1 commercial promise row, got %d", len(res.CommercialPromises))
	}
	cp := res.CommercialPromises[0]
	if cp.PaymentPromiseActive != report.FlagYes || cp.PromiseDate != "2024-03-04" {
		t.Errorf("A-2 expected active promise on 2024-03-04, got %s / %s", cp.PaymentPromiseActive, cp.PromiseDate)
	}

	if p.Latest() != res {
		t.Error("latest run result not stored")
	}
}

func TestRunIsIdempotent(t *testing.T) {
	cfg := writeFixtures(t)
	p := pipeline.New()

	first, err := p.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := p.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if !reflect.DeepEqual(first.Mortgage, second.Mortgage) {
		t.Error("mortgage rows differ between identical runs")
	}
	if !reflect.DeepEqual(first.Restructuring, second.Restructuring) {
		t.Error("restructuring rows differ between identical runs")
	}
	if !reflect.DeepEqual(first.CommercialPromises, second.CommercialPromises) {
		t.Error("commercial promise rows differ between identical runs")
	}
}

func TestRunReportToggles(t *testing.T) {
	cfg := writeFixtures(t)
	cfg.Reports = []string{config.ReportMortgage}
	p := pipeline.New()

	res, err := p.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Mortgage) == 0 {
		t.Error("expected mortgage rows")
	}
	if res.Restructuring != nil || res.CommercialPromises != nil {
		t.Error("disabled reports must not be produced")
	}
}

func TestRunFailsOnMissingFeed(t *testing.T) {
	cfg := writeFixtures(t)
	cfg.Feeds.Accounts = filepath.Join(t.TempDir(), "missing.csv")
	p := pipeline.New()

	if _, err := p.Run(context.Background(), cfg); err == nil {
		t.Fatal("expected error for missing account feed")
	}
	if p.Latest() != nil {
		t.Error("failed run must not become the latest result")
	}
}
