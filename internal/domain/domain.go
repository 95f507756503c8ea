// Package domain defines the raw feed records and derived report rows
// shared across the pipeline.
package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Product types recognized by the report filters.
const (
	ProductMortgage       = "MORTGAGE"
	ProductCommercialLoan = "COMMERCIAL_LOAN"
)

// DivisionRetail is the business division eligible for all three reports.
const DivisionRetail = "RETAIL"

// Account is one row of the account feed. Read-only within a run.
type Account struct {
	AccountID          string
	CheckDigit         string
	AgentType          string
	CustomerName       string
	ProductType        string
	RiskSegment        string
	OutstandingBalance decimal.Decimal
	AgentName          string
	OperationNumber    string
	ContainmentPct     float64
	BusinessDivision   string
	CustomerCity       string
}

// ActivityEvent is one row of the activity feed. Dates and categorical
// fields are raw strings; normalization happens downstream.
type ActivityEvent struct {
	AccountID        string
	ActivityDate     string // raw DD/MM/YYYY
	ActivityTime     string // raw HH:MM:SS
	NextActivityDate string // raw DD/MM/YYYY
	Channel          string
	ContactType      string
	Outcome          string
	NonPaymentReason string
	ContactLocation  string
	NextAction       string
	Notes            string
	PhoneNumber      string
	Department       string
	AgentName        string
}

// CoverageArea reports YES when the city belongs to the configured metro
// set, NO otherwise. Matching is case- and whitespace-insensitive.
func CoverageArea(city string, metro map[string]struct{}) string {
	if _, ok := metro[NormalizeCity(city)]; ok {
		return "YES"
	}
	return "NO"
}

// NormalizeCity canonicalizes a city name for metro-set lookup.
func NormalizeCity(city string) string {
	return strings.ToUpper(strings.TrimSpace(city))
}
