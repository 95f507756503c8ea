// Package feed reads the two raw input tables (account feed, activity
// feed) from CSV. Header matching is flexible: names are compared after
// lowercasing and stripping separators, and common aliases are accepted.
// A missing required column or a null account_id in the account feed is a
// schema violation and aborts the run; malformed optional values never do.
package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/collectionsops/canonpipe/internal/domain"
)

// Stats counts ingestion outcomes for the run summary and metrics.
type Stats struct {
	RowsRead    int
	RowsSkipped int
}

// ReadAccounts loads the account feed.
func ReadAccounts(path string) ([]domain.Account, Stats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open account feed: %w", err)
	}
	defer file.Close()
	return ParseAccounts(file)
}

// ParseAccounts reads account rows from r.
func ParseAccounts(r io.Reader) ([]domain.Account, Stats, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, Stats{}, fmt.Errorf("account feed: unable to read header: %w", err)
	}
	cols := normalizeHeaders(headers)

	idIdx, ok := findColumn(cols, []string{"account_id", "accountid", "loan_id"})
	if !ok {
		return nil, Stats{}, errors.New("account feed: missing account_id column")
	}
	checkIdx, _ := findColumn(cols, []string{"account_checkdigit", "check_digit"})
	agentTypeIdx, _ := findColumn(cols, []string{"agent_type"})
	nameIdx, _ := findColumn(cols, []string{"customer_name", "client_name"})
	productIdx, _ := findColumn(cols, []string{"product_type", "product"})
	riskIdx, _ := findColumn(cols, []string{"risk_segment", "risk"})
	balanceIdx, _ := findColumn(cols, []string{"outstanding_balance", "balance"})
	agentIdx, _ := findColumn(cols, []string{"agent_name"})
	operationIdx, _ := findColumn(cols, []string{"operation_number", "operation"})
	containIdx, _ := findColumn(cols, []string{"containment_percentage", "containment_pct"})
	divisionIdx, _ := findColumn(cols, []string{"business_division", "division"})
	cityIdx, _ := findColumn(cols, []string{"customer_city", "city"})

	var accounts []domain.Account
	var stats Stats
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, stats, fmt.Errorf("account feed: unable to read row: %w", err)
		}
		if len(record) == 0 {
			continue
		}
		stats.RowsRead++

		id := getValue(record, idIdx)
		if id == "" {
			// account_id is the primary key of the account feed; a null
			// here means the feed itself is broken.
			return nil, stats, fmt.Errorf("account feed: row %d: account_id is null", stats.RowsRead)
		}

		accounts = append(accounts, domain.Account{
			AccountID:          id,
			CheckDigit:         getValue(record, checkIdx),
			AgentType:          getValue(record, agentTypeIdx),
			CustomerName:       getValue(record, nameIdx),
			ProductType:        strings.ToUpper(getValue(record, productIdx)),
			RiskSegment:        getValue(record, riskIdx),
			OutstandingBalance: parseDecimal(getValue(record, balanceIdx)),
			AgentName:          getValue(record, agentIdx),
			OperationNumber:    getValue(record, operationIdx),
			ContainmentPct:     parseFloat(getValue(record, containIdx)),
			BusinessDivision:   strings.ToUpper(getValue(record, divisionIdx)),
			CustomerCity:       getValue(record, cityIdx),
		})
	}
	return accounts, stats, nil
}

// ReadActivities loads the activity feed.
func ReadActivities(path string) ([]domain.ActivityEvent, Stats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open activity feed: %w", err)
	}
	defer file.Close()
	return ParseActivities(file)
}

// ParseActivities reads activity rows from r. Rows without an account id
// cannot join anything and are skipped (counted, not fatal).
func ParseActivities(r io.Reader) ([]domain.ActivityEvent, Stats, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, Stats{}, fmt.Errorf("activity feed: unable to read header: %w", err)
	}
	cols := normalizeHeaders(headers)

	idIdx, ok := findColumn(cols, []string{"account_id", "accountid", "loan_id"})
	if !ok {
		return nil, Stats{}, errors.New("activity feed: missing account_id column")
	}
	dateIdx, ok := findColumn(cols, []string{"activity_date", "contact_date"})
	if !ok {
		return nil, Stats{}, errors.New("activity feed: missing activity_date column")
	}
	timeIdx, _ := findColumn(cols, []string{"activity_time", "contact_time"})
	nextDateIdx, _ := findColumn(cols, []string{"next_activity_date"})
	channelIdx, _ := findColumn(cols, []string{"collection_channel", "channel"})
	contactIdx, _ := findColumn(cols, []string{"contact_type"})
	outcomeIdx, _ := findColumn(cols, []string{"contact_outcome", "outcome"})
	reasonIdx, _ := findColumn(cols, []string{"non_payment_reason"})
	locationIdx, _ := findColumn(cols, []string{"contact_location"})
	actionIdx, _ := findColumn(cols, []string{"next_action"})
	notesIdx, _ := findColumn(cols, []string{"notes", "comments"})
	phoneIdx, _ := findColumn(cols, []string{"phone_number", "phone"})
	deptIdx, _ := findColumn(cols, []string{"department"})
	agentIdx, _ := findColumn(cols, []string{"agent_name"})

	var events []domain.ActivityEvent
	var stats Stats
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, stats, fmt.Errorf("activity feed: unable to read row: %w", err)
		}
		if len(record) == 0 {
			continue
		}
		stats.RowsRead++

		id := getValue(record, idIdx)
		if id == "" {
			stats.RowsSkipped++
			continue
		}

		events = append(events, domain.ActivityEvent{
			AccountID:        id,
			ActivityDate:     getValue(record, dateIdx),
			ActivityTime:     getValue(record, timeIdx),
			NextActivityDate: getValue(record, nextDateIdx),
			Channel:          getValue(record, channelIdx),
			ContactType:      getValue(record, contactIdx),
			Outcome:          getValue(record, outcomeIdx),
			NonPaymentReason: getValue(record, reasonIdx),
			ContactLocation:  getValue(record, locationIdx),
			NextAction:       getValue(record, actionIdx),
			Notes:            getValue(record, notesIdx),
			PhoneNumber:      getValue(record, phoneIdx),
			Department:       getValue(record, deptIdx),
			AgentName:        getValue(record, agentIdx),
		})
	}
	return events, stats, nil
}

func parseDecimal(value string) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseFloat(value string) float64 {
	if value == "" {
		return 0
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}

func normalizeHeaders(headers []string) map[string]int {
	result := make(map[string]int, len(headers))
	for idx, header := range headers {
		normalized := normalizeHeader(header)
		if _, exists := result[normalized]; !exists {
			result[normalized] = idx
		}
	}
	return result
}

func normalizeHeader(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.ReplaceAll(value, " ", "")
	value = strings.ReplaceAll(value, "_", "")
	value = strings.ReplaceAll(value, "-", "")
	return value
}

func findColumn(headers map[string]int, names []string) (int, bool) {
	for _, name := range names {
		if idx, ok := headers[normalizeHeader(name)]; ok {
			return idx, true
		}
	}
	return -1, false
}

func getValue(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
