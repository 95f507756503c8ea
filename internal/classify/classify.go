// Package classify maps the raw categorical values of the activity feed
// onto closed, explicitly ranked enumerations, and normalizes the feed's
// fixed-width date strings. Every function here is total: unexpected input
// maps to an UNCLASSIFIED variant instead of failing.
package classify

import "strings"

// Channel is the collection channel, ranked for canonical selection.
// Lower rank wins.
type Channel int

// Channel ranks. UNCLASSIFIED sorts last.
const (
	ChannelPhone Channel = iota + 1
	ChannelField
	ChannelMessaging
	ChannelEmail
	ChannelAgentBank
	ChannelUnclassified
)

// Rank returns the explicit sort ordinal. Ordering must never rely on
// lexicographic comparison of labels.
func (c Channel) Rank() int { return int(c) }

// Label returns the canonical display label.
func (c Channel) Label() string {
	switch c {
	case ChannelPhone:
		return "PHONE"
	case ChannelField:
		return "FIELD"
	case ChannelMessaging:
		return "MESSAGING"
	case ChannelEmail:
		return "EMAIL"
	case ChannelAgentBank:
		return "AGENT_BANK"
	default:
		return "UNCLASSIFIED_CHANNEL"
	}
}

var channelByRaw = map[string]Channel{
	"PHONE":       ChannelPhone,
	"CALL":        ChannelPhone,
	"CALL_CENTER": ChannelPhone,
	"FIELD":       ChannelField,
	"FIELD_VISIT": ChannelField,
	"MESSAGING":   ChannelMessaging,
	"SMS":         ChannelMessaging,
	"WHATSAPP":    ChannelMessaging,
	"EMAIL":       ChannelEmail,
	"E-MAIL":      ChannelEmail,
	"AGENT_BANK":  ChannelAgentBank,
	"BANK_AGENT":  ChannelAgentBank,
}

// ClassifyChannel maps a raw collection-channel code onto its Channel.
func ClassifyChannel(raw string) Channel {
	if c, ok := channelByRaw[normalize(raw)]; ok {
		return c
	}
	return ChannelUnclassified
}

// ContactType is the classified contact type, ranked for canonical
// selection. Lower rank wins.
type ContactType int

// Contact-type ranks. GUARANTOR covers both GUARANTOR and
// GUARANTOR_NO_CONTACT raw values and sits below AUTO_DIALER.
const (
	ContactPrimary ContactType = iota + 1
	ContactThirdParty
	ContactNoContact
	ContactAutoDialer
	ContactGuarantor
	ContactUnclassified
)

// Rank returns the explicit sort ordinal.
func (c ContactType) Rank() int { return int(c) }

// Label returns the canonical display label.
func (c ContactType) Label() string {
	switch c {
	case ContactPrimary:
		return "PRIMARY"
	case ContactThirdParty:
		return "THIRD_PARTY"
	case ContactNoContact:
		return "NO_CONTACT"
	case ContactAutoDialer:
		return "AUTO_DIALER"
	case ContactGuarantor:
		return "GUARANTOR"
	default:
		return "UNCLASSIFIED_CONTACT"
	}
}

// AutoDialerAgent is the agent name that promotes a NO_CONTACT event to
// the AUTO_DIALER contact type.
const AutoDialerAgent = "AUTO_DIALER"

// ClassifyContact maps a raw contact-type code onto its ContactType.
// The AUTO_DIALER override is checked before the generic NO_CONTACT rule:
// a NO_CONTACT event logged by the auto dialer classifies as AUTO_DIALER.
func ClassifyContact(rawType, agentName string) ContactType {
	switch normalize(rawType) {
	case "PRIMARY":
		return ContactPrimary
	case "THIRD_PARTY", "RELATIVE":
		return ContactThirdParty
	case "NO_CONTACT":
		if normalize(agentName) == AutoDialerAgent {
			return ContactAutoDialer
		}
		return ContactNoContact
	case "GUARANTOR", "GUARANTOR_NO_CONTACT":
		return ContactGuarantor
	default:
		return ContactUnclassified
	}
}

// Contact outcomes that select events into the promise and restructure views.
const (
	OutcomePaymentPromise     = "PAYMENT_PROMISE"
	OutcomeRestructureRequest = "RESTRUCTURE_REQUEST"
)

// IsPaymentPromise reports whether a raw outcome selects the event into
// the promise view.
func IsPaymentPromise(rawOutcome string) bool {
	return normalize(rawOutcome) == OutcomePaymentPromise
}

// IsRestructureRequest reports whether a raw outcome selects the event
// into the restructure view.
func IsRestructureRequest(rawOutcome string) bool {
	return normalize(rawOutcome) == OutcomeRestructureRequest
}

func normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
