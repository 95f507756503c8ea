// Package report assembles the three business reports by left-joining the
// account view against the canonical contact views, applying report
// inclusion filters, substituting the NO_CONTACT defaults, and re-applying
// the canonical ranking so each report carries exactly one row per account.
package report

import (
	"github.com/shopspring/decimal"

	"github.com/collectionsops/canonpipe/internal/canon"
	"github.com/collectionsops/canonpipe/internal/classify"
	"github.com/collectionsops/canonpipe/internal/domain"
)

// Default literals substituted when a join finds no matching contact event.
const (
	NoContact     = "NO_CONTACT"
	NoPromiseDate = "NO_PROMISE_DATE"
)

// Flag literals for report yes/no columns.
const (
	FlagYes = "YES"
	FlagNo  = "NO"
)

// Params carries the report-level configuration.
type Params struct {
	// Company is the constant label column stamped on every row.
	Company string
	// Metro is the normalized metro-city set backing coverage_area.
	Metro map[string]struct{}
}

// Inputs bundles the account view and the canonical contact views a
// report join consumes. The maps hold at most one record per account.
type Inputs struct {
	Accounts    []domain.Account
	Primary     map[string]canon.Record
	Field       map[string]canon.Record
	Promise     map[string]canon.Record
	Restructure map[string]canon.Record
}

// contactFields is the block of primary-contact columns shared by all
// three reports, already defaulted.
type contactFields struct {
	Channel          string
	ContactType      string
	Phone            string
	Notes            string
	LastActivityDate string
	NextActivityDate string
	Agent            string
}

// joinPrimary resolves the contact block for one account. The contact type
// is classified again here from the joined record's raw fields, independent
// of the label stored in the canonical view; when no record matched, every
// contact-derived column is the NO_CONTACT literal, never classifier output.
func joinPrimary(primary map[string]canon.Record, accountID string) contactFields {
	rec, ok := primary[accountID]
	if !ok {
		return contactFields{
			Channel:          NoContact,
			ContactType:      NoContact,
			Phone:            NoContact,
			Notes:            NoContact,
			LastActivityDate: NoContact,
			NextActivityDate: NoContact,
			Agent:            NoContact,
		}
	}
	return contactFields{
		Channel:          rec.ChannelLabel,
		ContactType:      classify.ClassifyContact(rec.RawContactType, rec.AgentName).Label(),
		Phone:            orDefault(rec.PhoneNumber, NoContact),
		Notes:            orDefault(rec.Notes, NoContact),
		LastActivityDate: orDefault(rec.ActivityDate, NoContact),
		NextActivityDate: orDefault(rec.NextActivityDate, NoContact),
		Agent:            orDefault(rec.AgentName, NoContact),
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// MortgageRow is one row of the Mortgage Portfolio report.
type MortgageRow struct {
	Company             string
	AccountID           string
	CheckDigit          string
	AgentType           string
	CustomerName        string
	ProductType         string
	RiskSegment         string
	OutstandingBalance  decimal.Decimal
	OperationNumber     string
	CustomerCity        string
	CoverageArea        string
	ContactChannel      string
	ContactType         string
	ContactPhone        string
	ContactNotes        string
	LastActivityDate    string
	NextActivityDate    string
	ContactAgent        string
	FieldVisitCompleted string
}

var mortgageOrdering = canon.Ordering[MortgageRow]{
	{Name: "risk_segment", Compare: func(a, b MortgageRow) int { return cmp(a.RiskSegment, b.RiskSegment) }, Desc: true},
}

// Mortgage builds the Mortgage Portfolio report: retail mortgage accounts
// with containment 0, joined against the primary and field views.
func Mortgage(in Inputs, p Params) ([]MortgageRow, error) {
	rows := make([]MortgageRow, 0)
	for _, acc := range in.Accounts {
		if acc.ProductType != domain.ProductMortgage {
			continue
		}
		if acc.BusinessDivision != domain.DivisionRetail || acc.ContainmentPct != 0 {
			continue
		}
		contact := joinPrimary(in.Primary, acc.AccountID)
		visited := FlagNo
		if _, ok := in.Field[acc.AccountID]; ok {
			visited = FlagYes
		}
		rows = append(rows, MortgageRow{
			Company:             p.Company,
			AccountID:           acc.AccountID,
			CheckDigit:          acc.CheckDigit,
			AgentType:           acc.AgentType,
			CustomerName:        acc.CustomerName,
			ProductType:         acc.ProductType,
			RiskSegment:         acc.RiskSegment,
			OutstandingBalance:  acc.OutstandingBalance,
			OperationNumber:     acc.OperationNumber,
			CustomerCity:        acc.CustomerCity,
			CoverageArea:        domain.CoverageArea(acc.CustomerCity, p.Metro),
			ContactChannel:      contact.Channel,
			ContactType:         contact.ContactType,
			ContactPhone:        contact.Phone,
			ContactNotes:        contact.Notes,
			LastActivityDate:    contact.LastActivityDate,
			NextActivityDate:    contact.NextActivityDate,
			ContactAgent:        contact.Agent,
			FieldVisitCompleted: visited,
		})
	}
	out := canon.SelectBest(rows, func(r MortgageRow) string { return r.AccountID }, mortgageOrdering)
	if err := canon.VerifyUnique("mortgage_portfolio", out, func(r MortgageRow) string { return r.AccountID }); err != nil {
		return nil, err
	}
	return out, nil
}

// RestructuringRow is one row of the Restructuring Pipeline report.
type RestructuringRow struct {
	Company             string
	AccountID           string
	CheckDigit          string
	CustomerName        string
	ProductType         string
	RiskSegment         string
	OutstandingBalance  decimal.Decimal
	CustomerCity        string
	CoverageArea        string
	ContactChannel      string
	ContactType         string
	ContactPhone        string
	ContactNotes        string
	LastActivityDate    string
	FieldVisitCompleted string
	RestructureDate     string
	RestructureNotes    string
	RestructureAgent    string
}

var restructuringOrdering = canon.Ordering[RestructuringRow]{
	{Name: "product_type", Compare: func(a, b RestructuringRow) int { return cmp(a.ProductType, b.ProductType) }},
	{Name: "risk_segment", Compare: func(a, b RestructuringRow) int { return cmp(a.RiskSegment, b.RiskSegment) }, Desc: true},
}

// Restructuring builds the Restructuring Pipeline report. The join against
// the restructure view is written as a left join, but the post-filter on
// the RESTRUCTURE contact type makes it behave as an inner join: accounts
// with no qualifying restructure event are excluded. That observed gate is
// preserved deliberately.
func Restructuring(in Inputs, p Params) ([]RestructuringRow, error) {
	rows := make([]RestructuringRow, 0)
	for _, acc := range in.Accounts {
		if acc.BusinessDivision != domain.DivisionRetail || acc.ContainmentPct != 0 {
			continue
		}
		restr, ok := in.Restructure[acc.AccountID]
		if !ok || restr.ContactLabel != canon.LiteralRestructure {
			continue
		}
		contact := joinPrimary(in.Primary, acc.AccountID)
		visited := FlagNo
		if _, hasField := in.Field[acc.AccountID]; hasField {
			visited = FlagYes
		}
		rows = append(rows, RestructuringRow{
			Company:             p.Company,
			AccountID:           acc.AccountID,
			CheckDigit:          acc.CheckDigit,
			CustomerName:        acc.CustomerName,
			ProductType:         acc.ProductType,
			RiskSegment:         acc.RiskSegment,
			OutstandingBalance:  acc.OutstandingBalance,
			CustomerCity:        acc.CustomerCity,
			CoverageArea:        domain.CoverageArea(acc.CustomerCity, p.Metro),
			ContactChannel:      contact.Channel,
			ContactType:         contact.ContactType,
			ContactPhone:        contact.Phone,
			ContactNotes:        contact.Notes,
			LastActivityDate:    contact.LastActivityDate,
			FieldVisitCompleted: visited,
			RestructureDate:     orDefault(restr.ActivityDate, NoContact),
			RestructureNotes:    orDefault(restr.Notes, NoContact),
			RestructureAgent:    orDefault(restr.AgentName, NoContact),
		})
	}
	out := canon.SelectBest(rows, func(r RestructuringRow) string { return r.AccountID }, restructuringOrdering)
	if err := canon.VerifyUnique("restructuring_pipeline", out, func(r RestructuringRow) string { return r.AccountID }); err != nil {
		return nil, err
	}
	return out, nil
}

// CommercialPromiseRow is one row of the Commercial Promises report.
type CommercialPromiseRow struct {
	Company              string
	AccountID            string
	CheckDigit           string
	CustomerName         string
	ProductType          string
	RiskSegment          string
	OutstandingBalance   decimal.Decimal
	CustomerCity         string
	CoverageArea         string
	ContactChannel       string
	ContactType          string
	ContactPhone         string
	ContactNotes         string
	LastActivityDate     string
	PaymentPromiseActive string
	PromiseDate          string
}

var commercialOrdering = canon.Ordering[CommercialPromiseRow]{
	{Name: "risk_segment", Compare: func(a, b CommercialPromiseRow) int { return cmp(a.RiskSegment, b.RiskSegment) }, Desc: true},
}

// CommercialPromises builds the Commercial Promises report: retail
// commercial-loan accounts with containment 0, joined against the primary
// and promise views.
func CommercialPromises(in Inputs, p Params) ([]CommercialPromiseRow, error) {
	rows := make([]CommercialPromiseRow, 0)
	for _, acc := range in.Accounts {
		if acc.ProductType != domain.ProductCommercialLoan {
			continue
		}
		if acc.BusinessDivision != domain.DivisionRetail || acc.ContainmentPct != 0 {
			continue
		}
		contact := joinPrimary(in.Primary, acc.AccountID)
		active := FlagNo
		promiseDate := NoPromiseDate
		if promise, ok := in.Promise[acc.AccountID]; ok {
			active = FlagYes
			promiseDate = orDefault(promise.ActivityDate, NoPromiseDate)
		}
		rows = append(rows, CommercialPromiseRow{
			Company:              p.Company,
			AccountID:            acc.AccountID,
			CheckDigit:           acc.CheckDigit,
			CustomerName:         acc.CustomerName,
			ProductType:          acc.ProductType,
			RiskSegment:          acc.RiskSegment,
			OutstandingBalance:   acc.OutstandingBalance,
			CustomerCity:         acc.CustomerCity,
			CoverageArea:         domain.CoverageArea(acc.CustomerCity, p.Metro),
			ContactChannel:       contact.Channel,
			ContactType:          contact.ContactType,
			ContactPhone:         contact.Phone,
			ContactNotes:         contact.Notes,
			LastActivityDate:     contact.LastActivityDate,
			PaymentPromiseActive: active,
			PromiseDate:          promiseDate,
		})
	}
	out := canon.SelectBest(rows, func(r CommercialPromiseRow) string { return r.AccountID }, commercialOrdering)
	if err := canon.VerifyUnique("commercial_promises", out, func(r CommercialPromiseRow) string { return r.AccountID }); err != nil {
		return nil, err
	}
	return out, nil
}

func cmp(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
