package verify

import (
	"fmt"

	"github.com/edvin/maildns/internal/model"
)

// Policy decides how an undetermined category takes part in change detection.
type Policy string

const (
	// PolicyPreserve keeps the stored flag when a lookup failed transiently.
	PolicyPreserve Policy = "preserve"
	// PolicyStrict treats every failed lookup as an invalid record.
	PolicyStrict Policy = "strict"
)

// ParsePolicy validates a configured policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyPreserve, PolicyStrict:
		return p, nil
	case "":
		return PolicyPreserve, nil
	default:
		return "", fmt.Errorf("unknown transient policy %q", s)
	}
}

// Flags are the five persisted verification outcomes.
type Flags struct {
	Ownership  bool `json:"ownership"`
	MX         bool `json:"mx"`
	SPF        bool `json:"spf"`
	DKIM       bool `json:"dkim"`
	ReturnPath bool `json:"return_path"`
}

// StoredFlags reads the persisted flags of a domain.
func StoredFlags(d model.MailDomain) Flags {
	return Flags{
		Ownership:  d.VerifiedAt != nil,
		MX:         d.MXValid,
		SPF:        d.SPFValid,
		DKIM:       d.DKIMValid,
		ReturnPath: d.ReturnPathValid,
	}
}

// Reconcile computes the flags to persist from a fresh report and reports
// whether any of them differs from stored.
func Reconcile(stored Flags, r Report, p Policy) (Flags, bool) {
	next := Flags{
		Ownership:  pick(stored.Ownership, r.Ownership.Valid, r.Ownership.Determined, p),
		MX:         pick(stored.MX, r.MX.Valid, r.MX.Determined, p),
		SPF:        pick(stored.SPF, r.SPF.Valid, r.SPF.Determined, p),
		DKIM:       pick(stored.DKIM, r.DKIM.Valid, r.DKIM.Determined, p),
		ReturnPath: pick(stored.ReturnPath, r.ReturnPath.Valid, r.ReturnPath.Determined, p),
	}
	return next, next != stored
}

func pick(stored, valid, determined bool, p Policy) bool {
	if !determined && p == PolicyPreserve {
		return stored
	}
	return valid
}

// Undetermined lists the categories whose lookup failed transiently.
func (r Report) Undetermined() []string {
	var out []string
	if !r.Ownership.Determined {
		out = append(out, "ownership")
	}
	if !r.MX.Determined {
		out = append(out, "mx")
	}
	if !r.SPF.Determined {
		out = append(out, "spf")
	}
	if !r.DKIM.Determined {
		out = append(out, "dkim")
	}
	if !r.ReturnPath.Determined {
		out = append(out, "return_path")
	}
	return out
}

// Changes describes every flag that differs from prev, e.g. "mx: invalid -> valid".
func (f Flags) Changes(prev Flags) []string {
	var out []string
	add := func(name string, was, now bool) {
		if was != now {
			out = append(out, fmt.Sprintf("%s: %s -> %s", name, validity(was), validity(now)))
		}
	}
	add("ownership", prev.Ownership, f.Ownership)
	add("mx", prev.MX, f.MX)
	add("spf", prev.SPF, f.SPF)
	add("dkim", prev.DKIM, f.DKIM)
	add("return_path", prev.ReturnPath, f.ReturnPath)
	return out
}

func validity(v bool) string {
	if v {
		return "valid"
	}
	return "invalid"
}
