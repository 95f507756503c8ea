package feed_test

import (
	"strings"
	"testing"

	"github.com/collectionsops/canonpipe/internal/feed"
)

func TestParseAccounts(t *testing.T) {
	csvData := "account_id,account_checkdigit,customer_name,product_type,risk_segment,outstanding_balance,operation_number,containment_percentage,business_division,customer_city\n" +
		"A-1,7,Jane Roe,mortgage,HIGH,15230.50,OP-9,0,retail,Springfield\n" +
		"A-2,3,John Doe,commercial_loan,LOW,980.00,OP-10,25,RETAIL,Shelbyville\n"

	accounts, stats, err := feed.ParseAccounts(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("parse accounts: %v", err)
	}
	if stats.RowsRead != 2 || len(accounts) != 2 {
		t.Fatalf("expected 2 rows, got read=%d parsed=%d", stats.RowsRead, len(accounts))
	}
	a := accounts[0]
	if a.AccountID != "A-1" || a.ProductType != "MORTGAGE" || a.BusinessDivision != "RETAIL" {
		t.Errorf("unexpected first account: %+v", a)
	}
	if a.OutstandingBalance.String() != "15230.5" {
		t.Errorf("expected balance 15230.5, got %s", a.OutstandingBalance)
	}
	if accounts[1].ContainmentPct != 25 {
		t.Errorf("expected containment 25, got %v", accounts[1].ContainmentPct)
	}
}

func TestParseAccountsNullIDIsFatal(t *testing.T) {
	csvData := "account_id,customer_name\nA-1,Jane Roe\n,John Doe\n"
	_, _, err := feed.ParseAccounts(strings.NewReader(csvData))
	if err == nil {
		t.Fatal("expected schema violation for null account_id")
	}
}

func TestParseAccountsMissingIDColumnIsFatal(t *testing.T) {
	csvData := "customer_name,product_type\nJane Roe,MORTGAGE\n"
	_, _, err := feed.ParseAccounts(strings.NewReader(csvData))
	if err == nil {
		t.Fatal("expected schema violation for missing account_id column")
	}
}

func TestParseActivities(t *testing.T) {
	csvData := "account_id,activity_date,activity_time,collection_channel,contact_type,contact_outcome,notes,phone_number,agent_name\n" +
		"A-1,05/03/2024,10:15:00,PHONE,PRIMARY,PAYMENT_PROMISE,will pay friday,555-0100,M. PEREZ\n" +
		",05/03/2024,10:20:00,PHONE,PRIMARY,,,,\n" +
		"A-2,bad-date,09:00:00,FIELD,NO_CONTACT,,,,AUTO_DIALER\n"

	events, stats, err := feed.ParseActivities(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("parse activities: %v", err)
	}
	if stats.RowsRead != 3 {
		t.Errorf("expected 3 rows read, got %d", stats.RowsRead)
	}
	if stats.RowsSkipped != 1 {
		t.Errorf("expected 1 skipped row, got %d", stats.RowsSkipped)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	// Malformed dates pass through raw; normalization is downstream.
	if events[1].ActivityDate != "bad-date" {
		t.Errorf("expected raw date preserved, got %q", events[1].ActivityDate)
	}
	if events[0].Outcome != "PAYMENT_PROMISE" {
		t.Errorf("unexpected outcome %q", events[0].Outcome)
	}
}

func TestParseActivitiesFlexibleHeaders(t *testing.T) {
	csvData := "Account ID,Contact Date,Channel,Contact Type\nA-1,05/03/2024,PHONE,PRIMARY\n"
	events, _, err := feed.ParseActivities(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("parse activities: %v", err)
	}
	if len(events) != 1 || events[0].AccountID != "A-1" || events[0].Channel != "PHONE" {
		t.Fatalf("unexpected events: %+v", events)
	}
}
