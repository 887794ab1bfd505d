package verify

import (
	"slices"
	"sort"
	"strconv"

	"github.com/edvin/maildns/internal/mailauth"
)

// Record is a DNS record the domain owner should publish.
type Record struct {
	Category string `json:"category"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	Value    string `json:"value"`
	Valid    bool   `json:"valid"`
}

// Suggested returns the records to publish for exp. When a report is given,
// the SPF suggestion extends the published policy instead of replacing it and
// each record carries the current validity.
func Suggested(root string, exp Expected, r *Report) []Record {
	var spf mailauth.SPF
	if r != nil && r.SPF.Current != nil {
		spf.Terms = slices.Clone(r.SPF.Current.Terms)
		spf.AddInclude(exp.SPFInclude)
	} else {
		spf.AddInclude(exp.SPFInclude)
		spf.SetAll("~all")
	}

	dkim := mailauth.Tags{{Key: "h", Value: "sha256"}, {Key: "p", Value: exp.DKIMValue}}

	dmarc := mailauth.Tags{{Key: "p", Value: "none"}}
	dmarcValue := mailauth.BuildDMARC(dmarc)
	if r != nil && r.DMARC.Valid {
		dmarcValue = mailauth.BuildDMARC(tagsFromMap(r.DMARC.Current))
	}

	records := []Record{
		{Category: "ownership", Type: "TXT", Name: exp.ChallengeName, Value: exp.VerificationToken},
		{Category: "mx", Type: "MX", Name: root, Value: strconv.Itoa(int(exp.MXPriority)) + " " + exp.MXExchange},
		{Category: "spf", Type: "TXT", Name: root, Value: mailauth.BuildSPF(spf)},
		{Category: "dkim", Type: "TXT", Name: exp.DKIMName, Value: mailauth.BuildDKIM(dkim)},
		{Category: "return_path", Type: "CNAME", Name: exp.ReturnPathName, Value: exp.ReturnPathTarget},
		{Category: "dmarc", Type: "TXT", Name: exp.DMARCName, Value: dmarcValue},
	}

	if r != nil {
		records[0].Valid = r.Ownership.Valid
		records[1].Valid = r.MX.Valid
		records[2].Valid = r.SPF.Valid
		records[3].Valid = r.DKIM.Valid
		records[4].Valid = r.ReturnPath.Valid
		records[5].Valid = r.DMARC.Valid
	}
	return records
}

// tagsFromMap orders the policy tag first so the suggestion reads naturally.
func tagsFromMap(m map[string]string) mailauth.Tags {
	var tags mailauth.Tags
	if p, ok := m["p"]; ok {
		tags = append(tags, mailauth.Tag{Key: "p", Value: p})
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		if k != "p" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		tags = append(tags, mailauth.Tag{Key: k, Value: m[k]})
	}
	return tags
}
