package mailauth

import (
	"encoding/json"
	"slices"
	"strings"
)

const spfVersion = "v=spf1"

// Term is one directive (qualifier and mechanism) or modifier (name=value)
// of an SPF record.
type Term struct {
	Qualifier string `json:"qualifier,omitempty"`
	Name      string `json:"name"`
	// Value is the text after ':' for a mechanism, including any CIDR
	// suffix, or after '=' for a modifier.
	Value string `json:"value,omitempty"`
	// CIDR is a prefix length suffix on a mechanism without a value,
	// e.g. "/24" in "mx/24".
	CIDR     string `json:"cidr,omitempty"`
	Modifier bool   `json:"modifier,omitempty"`
}

func (t Term) String() string {
	if t.Modifier {
		return t.Name + "=" + t.Value
	}
	s := t.Qualifier + t.Name
	if t.Value != "" {
		s += ":" + t.Value
	}
	return s + t.CIDR
}

func (t Term) isMechanism(name string) bool {
	return !t.Modifier && strings.EqualFold(t.Name, name)
}

// SPF is a parsed SPF policy. Terms keep record order, so building a parsed
// record gives back the original text.
type SPF struct {
	Terms []Term `json:"terms"`
}

// MarshalJSON adds the include list and effective all qualifier next to the
// terms so API clients don't have to interpret them.
func (s SPF) MarshalJSON() ([]byte, error) {
	terms := s.Terms
	if terms == nil {
		terms = []Term{}
	}
	return json.Marshal(struct {
		Terms    []Term   `json:"terms"`
		Includes []string `json:"includes"`
		All      string   `json:"all"`
	}{terms, s.Includes(), s.All()})
}

// IsSPF reports whether a TXT payload is an SPF record.
func IsSPF(txt string) bool {
	fields := strings.Fields(txt)
	return len(fields) > 0 && strings.EqualFold(fields[0], spfVersion)
}

// ParseSPF parses an SPF record. Malformed terms are dropped.
func ParseSPF(txt string) (*SPF, bool) {
	if !IsSPF(txt) {
		return nil, false
	}

	spf := &SPF{Terms: []Term{}}
	for _, field := range strings.Fields(txt)[1:] {
		if t, ok := parseTerm(field); ok {
			spf.Terms = append(spf.Terms, t)
		}
	}
	return spf, true
}

func parseTerm(field string) (Term, bool) {
	var t Term
	if strings.ContainsRune("+-~?", rune(field[0])) {
		t.Qualifier, field = field[:1], field[1:]
	}

	name, rest := field, ""
	if i := strings.IndexAny(field, ":/="); i >= 0 {
		name, rest = field[:i], field[i:]
	}
	if name == "" {
		return Term{}, false
	}
	t.Name = name

	switch {
	case rest == "":
	case rest[0] == '=':
		// Modifiers take no qualifier.
		if t.Qualifier != "" {
			return Term{}, false
		}
		t.Modifier, t.Value = true, rest[1:]
	case rest[0] == ':':
		if t.Value = rest[1:]; t.Value == "" {
			return Term{}, false
		}
	default:
		t.CIDR = rest
	}

	if t.isMechanism("include") && t.Value == "" {
		return Term{}, false
	}
	return t, true
}

// Includes returns the include:<domain> targets in record order.
func (s *SPF) Includes() []string {
	includes := []string{}
	for _, t := range s.Terms {
		if t.isMechanism("include") {
			includes = append(includes, t.Value)
		}
	}
	return includes
}

// Include reports whether the policy delegates to target.
func (s *SPF) Include(target string) bool {
	for _, inc := range s.Includes() {
		if strings.EqualFold(inc, target) {
			return true
		}
	}
	return false
}

// All returns the effective all qualifier. A record without an all term
// reads as "+all".
func (s *SPF) All() string {
	if i := s.allIndex(); i >= 0 {
		q := s.Terms[i].Qualifier
		if q == "" {
			q = "+"
		}
		return q + "all"
	}
	return "+all"
}

// SetAll sets the all term to all ("+all", "-all", "~all" or "?all"),
// appending one when the record has none.
func (s *SPF) SetAll(all string) {
	q := strings.TrimSuffix(strings.ToLower(all), "all")
	if q == "" {
		q = "+"
	}
	if i := s.allIndex(); i >= 0 {
		if s.All() != q+"all" {
			s.Terms[i].Qualifier = q
		}
		return
	}
	s.Terms = append(s.Terms, Term{Qualifier: q, Name: "all"})
}

// AddInclude adds include:target ahead of the all term, or after the last
// mechanism when there is none. Modifiers such as redirect= stay last.
func (s *SPF) AddInclude(target string) {
	if s.Include(target) {
		return
	}
	at := s.allIndex()
	if at < 0 {
		at = 0
		for i, t := range s.Terms {
			if !t.Modifier {
				at = i + 1
			}
		}
	}
	s.Terms = slices.Insert(slices.Clone(s.Terms), at, Term{Name: "include", Value: target})
}

func (s *SPF) allIndex() int {
	return slices.IndexFunc(s.Terms, func(t Term) bool { return t.isMechanism("all") })
}

// BuildSPF serializes an SPF policy, writing the terms in order.
func BuildSPF(s SPF) string {
	parts := make([]string, 0, len(s.Terms)+1)
	parts = append(parts, spfVersion)
	for _, t := range s.Terms {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, " ")
}
