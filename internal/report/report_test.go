package report_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/collectionsops/canonpipe/internal/canon"
	"github.com/collectionsops/canonpipe/internal/domain"
	"github.com/collectionsops/canonpipe/internal/report"
)

func makeAccount(id, product, division, risk, city string, containment float64) domain.Account {
	return domain.Account{
		AccountID:          id,
		CheckDigit:         "7",
		AgentType:          "INTERNAL",
		CustomerName:       "Customer " + id,
		ProductType:        product,
		RiskSegment:        risk,
		OutstandingBalance: decimal.NewFromInt(1000),
		OperationNumber:    "OP-" + id,
		ContainmentPct:     containment,
		BusinessDivision:   division,
		CustomerCity:       city,
	}
}

func primaryRecord(account string) canon.Record {
	return canon.Record{
		AccountID:      account,
		ChannelLabel:   "PHONE",
		ChannelCode:    1,
		ContactLabel:   "PRIMARY",
		ContactCode:    1,
		ActivityDate:   "2024-03-05",
		ActivityTime:   "10:00:00",
		PhoneNumber:    "555-0100",
		Notes:          "spoke with holder",
		AgentName:      "M. PEREZ",
		RawContactType: "PRIMARY",
	}
}

func params() report.Params {
	return report.Params{
		Company: "ACME_BANK",
		Metro:   map[string]struct{}{"SPRINGFIELD": {}},
	}
}

func TestMortgageFieldVisitWithoutPrimaryContact(t *testing.T) {
	// One field visit, no primary-channel event: the row must report the
	// visit and fall back to NO_CONTACT for every contact-derived column.
	in := report.Inputs{
		Accounts: []domain.Account{
			makeAccount("A-1", domain.ProductMortgage, domain.DivisionRetail, "HIGH", "Springfield", 0),
		},
		Primary: map[string]canon.Record{},
		Field: map[string]canon.Record{
			"A-1": {AccountID: "A-1", ChannelLabel: "FIELD", ActivityDate: "2024-03-01"},
		},
	}
	rows, err := report.Mortgage(in, params())
	if err != nil {
		t.Fatalf("mortgage: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.FieldVisitCompleted != report.FlagYes {
		t.Errorf("expected field_visit_completed=YES, got %s", row.FieldVisitCompleted)
	}
	if row.ContactPhone != report.NoContact {
		t.Errorf("expected contact_phone=NO_CONTACT, got %s", row.ContactPhone)
	}
	if row.ContactType != report.NoContact {
		t.Errorf("expected contact_type=NO_CONTACT, got %s", row.ContactType)
	}
	if row.LastActivityDate != report.NoContact {
		t.Errorf("expected last_activity_date=NO_CONTACT, got %s", row.LastActivityDate)
	}
	if row.CoverageArea != report.FlagYes {
		t.Errorf("expected coverage_area=YES for metro city, got %s", row.CoverageArea)
	}
	if row.Company != "ACME_BANK" {
		t.Errorf("expected company label, got %s", row.Company)
	}
}

func TestMortgageFilters(t *testing.T) {
	in := report.Inputs{
		Accounts: []domain.Account{
			makeAccount("A-1", domain.ProductMortgage, domain.DivisionRetail, "HIGH", "Shelbyville", 0),
			makeAccount("A-2", domain.ProductCommercialLoan, domain.DivisionRetail, "HIGH", "Shelbyville", 0),
			makeAccount("A-3", domain.ProductMortgage, "WHOLESALE", "HIGH", "Shelbyville", 0),
			makeAccount("A-4", domain.ProductMortgage, domain.DivisionRetail, "HIGH", "Shelbyville", 40),
		},
		Primary: map[string]canon.Record{"A-1": primaryRecord("A-1")},
		Field:   map[string]canon.Record{},
	}
	rows, err := report.Mortgage(in, params())
	if err != nil {
		t.Fatalf("mortgage: %v", err)
	}
	if len(rows) != 1 || rows[0].AccountID != "A-1" {
		t.Fatalf("expected only A-1, got %+v", rows)
	}
	if rows[0].FieldVisitCompleted != report.FlagNo {
		t.Errorf("expected field_visit_completed=NO, got %s", rows[0].FieldVisitCompleted)
	}
	if rows[0].ContactPhone != "555-0100" {
		t.Errorf("expected joined phone, got %s", rows[0].ContactPhone)
	}
	if rows[0].CoverageArea != report.FlagNo {
		t.Errorf("expected coverage_area=NO, got %s", rows[0].CoverageArea)
	}
}

func TestMortgageDeduplicatesAccountFanOut(t *testing.T) {
	// Duplicate account rows must collapse to one, keeping the highest
	// risk segment (risk_segment desc).
	in := report.Inputs{
		Accounts: []domain.Account{
			makeAccount("A-1", domain.ProductMortgage, domain.DivisionRetail, "LOW", "Shelbyville", 0),
			makeAccount("A-1", domain.ProductMortgage, domain.DivisionRetail, "MEDIUM", "Shelbyville", 0),
		},
		Primary: map[string]canon.Record{},
		Field:   map[string]canon.Record{},
	}
	rows, err := report.Mortgage(in, params())
	if err != nil {
		t.Fatalf("mortgage: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].RiskSegment != "MEDIUM" {
		t.Errorf("expected MEDIUM (risk desc) to win, got %s", rows[0].RiskSegment)
	}
}

func TestRestructuringExcludesAccountsWithoutEvent(t *testing.T) {
	// The left join plus RESTRUCTURE post-filter behaves as an inner join:
	// a retail, uncontained account with zero restructure events is out.
	in := report.Inputs{
		Accounts: []domain.Account{
			makeAccount("A-1", domain.ProductMortgage, domain.DivisionRetail, "HIGH", "Springfield", 0),
			makeAccount("A-2", domain.ProductCommercialLoan, domain.DivisionRetail, "HIGH", "Springfield", 0),
		},
		Primary: map[string]canon.Record{"A-1": primaryRecord("A-1")},
		Field:   map[string]canon.Record{},
		Restructure: map[string]canon.Record{
			"A-2": {
				AccountID:    "A-2",
				ContactLabel: canon.LiteralRestructure,
				ActivityDate: "2024-02-20",
				Notes:        "asked for new schedule",
				AgentName:    "R. GOMEZ",
			},
		},
	}
	rows, err := report.Restructuring(in, params())
	if err != nil {
		t.Fatalf("restructuring: %v", err)
	}
	if len(rows) != 1 || rows[0].AccountID != "A-2" {
		t.Fatalf("expected only A-2, got %+v", rows)
	}
	if rows[0].RestructureDate != "2024-02-20" {
		t.Errorf("expected restructure date, got %s", rows[0].RestructureDate)
	}
	if rows[0].ContactType != report.NoContact {
		t.Errorf("expected contact_type default for unmatched primary, got %s", rows[0].ContactType)
	}
}

func TestCommercialPromises(t *testing.T) {
	in := report.Inputs{
		Accounts: []domain.Account{
			makeAccount("A-1", domain.ProductCommercialLoan, domain.DivisionRetail, "HIGH", "Springfield", 0),
			makeAccount("A-2", domain.ProductCommercialLoan, domain.DivisionRetail, "LOW", "Springfield", 0),
			makeAccount("A-3", domain.ProductMortgage, domain.DivisionRetail, "HIGH", "Springfield", 0),
		},
		Primary: map[string]canon.Record{"A-1": primaryRecord("A-1")},
		Promise: map[string]canon.Record{
			"A-1": {AccountID: "A-1", ContactLabel: canon.LiteralPromise, ActivityDate: "2024-03-10"},
		},
	}
	rows, err := report.CommercialPromises(in, params())
	if err != nil {
		t.Fatalf("commercial promises: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	byAccount := map[string]report.CommercialPromiseRow{}
	for _, r := range rows {
		byAccount[r.AccountID] = r
	}
	if byAccount["A-1"].PaymentPromiseActive != report.FlagYes {
		t.Errorf("A-1 expected payment_promise_active=YES")
	}
	if byAccount["A-1"].PromiseDate != "2024-03-10" {
		t.Errorf("A-1 expected promise date, got %s", byAccount["A-1"].PromiseDate)
	}
	if byAccount["A-2"].PaymentPromiseActive != report.FlagNo {
		t.Errorf("A-2 expected payment_promise_active=NO")
	}
	if byAccount["A-2"].PromiseDate != report.NoPromiseDate {
		t.Errorf("A-2 expected NO_PROMISE_DATE, got %s", byAccount["A-2"].PromiseDate)
	}
	if _, ok := byAccount["A-3"]; ok {
		t.Error("mortgage account must not appear in commercial promises")
	}
}

func TestReportTimeReclassification(t *testing.T) {
	// The joined contact type comes from re-running the classifier on the
	// raw fields, not from the label stored in the canonical record.
	rec := primaryRecord("A-1")
	rec.ContactLabel = "PRIMARY" // stored label says PRIMARY
	rec.RawContactType = "NO_CONTACT"
	rec.AgentName = "AUTO_DIALER"
	in := report.Inputs{
		Accounts: []domain.Account{
			makeAccount("A-1", domain.ProductMortgage, domain.DivisionRetail, "HIGH", "Springfield", 0),
		},
		Primary: map[string]canon.Record{"A-1": rec},
		Field:   map[string]canon.Record{},
	}
	rows, err := report.Mortgage(in, params())
	if err != nil {
		t.Fatalf("mortgage: %v", err)
	}
	if rows[0].ContactType != "AUTO_DIALER" {
		t.Errorf("expected reclassified AUTO_DIALER, got %s", rows[0].ContactType)
	}
}
