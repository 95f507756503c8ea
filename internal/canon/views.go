package canon

import (
	"github.com/collectionsops/canonpipe/internal/classify"
	"github.com/collectionsops/canonpipe/internal/domain"
)

// Record is the canonical representative of one account within one view.
// Dates are ISO (YYYY-MM-DD) or empty when the raw value was malformed.
// RawContactType and AgentName are carried so the report layer can re-run
// the contact classifier on the joined record.
type Record struct {
	AccountID        string
	ChannelCode      int
	ChannelLabel     string
	ContactCode      int
	ContactLabel     string
	ActivityDate     string
	ActivityTime     string
	NextActivityDate string
	PhoneNumber      string
	Notes            string
	AgentName        string
	Department       string
	ContactLocation  string
	NextAction       string
	NonPaymentReason string
	RawContactType   string
}

// View names, used in logs, metrics, and the uniqueness post-condition.
const (
	ViewPrimary     = "clean_contacts_primary"
	ViewField       = "clean_contacts_field"
	ViewPromise     = "clean_contacts_promise"
	ViewRestructure = "clean_contacts_restructure"
	ViewAccounts    = "accounts"
)

// Fixed contact-type literals assigned by the promise and restructure
// views, whose input is already filtered by outcome.
const (
	LiteralPromise     = "PROMISE"
	LiteralRestructure = "RESTRUCTURE"
)

func recordKey(r Record) string { return r.AccountID }

func newRecord(ev domain.ActivityEvent) Record {
	ch := classify.ClassifyChannel(ev.Channel)
	ct := classify.ClassifyContact(ev.ContactType, ev.AgentName)
	return Record{
		AccountID:        ev.AccountID,
		ChannelCode:      ch.Rank(),
		ChannelLabel:     ch.Label(),
		ContactCode:      ct.Rank(),
		ContactLabel:     ct.Label(),
		ActivityDate:     classify.NormalizeDate(ev.ActivityDate),
		ActivityTime:     ev.ActivityTime,
		NextActivityDate: classify.NormalizeDate(ev.NextActivityDate),
		PhoneNumber:      ev.PhoneNumber,
		Notes:            ev.Notes,
		AgentName:        ev.AgentName,
		Department:       ev.Department,
		ContactLocation:  ev.ContactLocation,
		NextAction:       ev.NextAction,
		NonPaymentReason: ev.NonPaymentReason,
		RawContactType:   ev.ContactType,
	}
}

var primaryOrdering = Ordering[Record]{
	{Name: "channel_code", Compare: func(a, b Record) int { return cmpInt(a.ChannelCode, b.ChannelCode) }},
	{Name: "contact_code", Compare: func(a, b Record) int { return cmpInt(a.ContactCode, b.ContactCode) }},
	{Name: "activity_date", Compare: func(a, b Record) int { return cmpString(a.ActivityDate, b.ActivityDate) }, Desc: true},
}

var fieldOrdering = Ordering[Record]{
	{Name: "contact_code", Compare: func(a, b Record) int { return cmpInt(a.ContactCode, b.ContactCode) }},
	{Name: "activity_date", Compare: func(a, b Record) int { return cmpString(a.ActivityDate, b.ActivityDate) }, Desc: true},
}

var recencyOrdering = Ordering[Record]{
	{Name: "activity_date", Compare: func(a, b Record) int { return cmpString(a.ActivityDate, b.ActivityDate) }, Desc: true},
	{Name: "activity_time", Compare: func(a, b Record) int { return cmpString(a.ActivityTime, b.ActivityTime) }, Desc: true},
}

// PrimaryView selects the best classified contact per account across the
// non-field channels: channel code asc, contact-type code asc, activity
// date desc. Field visits are owned by FieldView; an account whose only
// events are field visits has no primary record and surfaces downstream
// through the NO_CONTACT default policy.
func PrimaryView(events []domain.ActivityEvent) ([]Record, error) {
	recs := make([]Record, 0, len(events))
	for _, ev := range events {
		if classify.ClassifyChannel(ev.Channel) == classify.ChannelField {
			continue
		}
		recs = append(recs, newRecord(ev))
	}
	out := SelectBest(recs, recordKey, primaryOrdering)
	if err := VerifyUnique(ViewPrimary, out, recordKey); err != nil {
		return nil, err
	}
	return out, nil
}

// FieldView selects the best field visit per account. Input is pre-filtered
// to the FIELD channel and the channel is forced to FIELD on every output
// row; channel-based secondary rules from the primary view do not apply.
func FieldView(events []domain.ActivityEvent) ([]Record, error) {
	recs := make([]Record, 0)
	for _, ev := range events {
		if classify.ClassifyChannel(ev.Channel) != classify.ChannelField {
			continue
		}
		r := newRecord(ev)
		r.ChannelCode = classify.ChannelField.Rank()
		r.ChannelLabel = classify.ChannelField.Label()
		recs = append(recs, r)
	}
	out := SelectBest(recs, recordKey, fieldOrdering)
	if err := VerifyUnique(ViewField, out, recordKey); err != nil {
		return nil, err
	}
	return out, nil
}

// PromiseView selects the most recent payment-promise event per account.
// The contact type is the fixed PROMISE literal; the input filter on the
// outcome already decided membership.
func PromiseView(events []domain.ActivityEvent) ([]Record, error) {
	return outcomeView(ViewPromise, LiteralPromise, classify.IsPaymentPromise, events)
}

// RestructureView selects the most recent restructure-request event per
// account, with the fixed RESTRUCTURE contact-type literal.
func RestructureView(events []domain.ActivityEvent) ([]Record, error) {
	return outcomeView(ViewRestructure, LiteralRestructure, classify.IsRestructureRequest, events)
}

func outcomeView(name, literal string, match func(string) bool, events []domain.ActivityEvent) ([]Record, error) {
	recs := make([]Record, 0)
	for _, ev := range events {
		if !match(ev.Outcome) {
			continue
		}
		r := newRecord(ev)
		r.ContactCode = 0
		r.ContactLabel = literal
		recs = append(recs, r)
	}
	out := SelectBest(recs, recordKey, recencyOrdering)
	if err := VerifyUnique(name, out, recordKey); err != nil {
		return nil, err
	}
	return out, nil
}

// ByAccount indexes canonical records by account id for report joins.
// Views guarantee at most one record per account, so the map is lossless.
func ByAccount(recs []Record) map[string]Record {
	m := make(map[string]Record, len(recs))
	for _, r := range recs {
		m[r.AccountID] = r
	}
	return m
}
