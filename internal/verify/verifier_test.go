package verify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/maildns/internal/dns"
	"github.com/edvin/maildns/internal/dns/dnstest"
	"github.com/edvin/maildns/internal/model"
)

func testDomain() model.MailDomain {
	return model.MailDomain{
		ID:                "dom-1",
		DomainName:        "customer.example",
		VerificationToken: "tok-123",
		DKIMSelector:      "pm",
		DKIMValue:         "ABC123",
	}
}

func testExpected() Expected {
	return ExpectedFor(testDomain(), DefaultSettings(), "mail.example")
}

// fullyPublished returns a resolver where every category is correct.
func fullyPublished() *dnstest.Resolver {
	return &dnstest.Resolver{
		TXT: map[string][]string{
			"_mail-verification.customer.example": {"tok-123"},
			"customer.example":                    {"google-site-verification=x", "v=spf1 include:_spf.mail.example ~all"},
			"pm._domainkey.customer.example":      {"v=DKIM1; h=sha256; p=ABC123"},
			"_dmarc.customer.example":             {"v=DMARC1; p=quarantine; rua=mailto:d@customer.example"},
		},
		MX: map[string][]dns.MX{
			"customer.example": {{Priority: 10, Exchange: "backup.example"}, {Priority: 1, Exchange: "mail.example"}},
		},
		CNAME: map[string][]string{
			"psrp.customer.example": {"rp.mail.example"},
		},
	}
}

func TestExpectedFor(t *testing.T) {
	exp := testExpected()

	assert.Equal(t, "_mail-verification.customer.example", exp.ChallengeName)
	assert.Equal(t, "tok-123", exp.VerificationToken)
	assert.Equal(t, "mail.example", exp.MXExchange)
	assert.Equal(t, uint16(1), exp.MXPriority)
	assert.Equal(t, "_spf.mail.example", exp.SPFInclude)
	assert.Equal(t, "pm._domainkey.customer.example", exp.DKIMName)
	assert.Equal(t, "psrp.customer.example", exp.ReturnPathName)
	assert.Equal(t, "rp.mail.example", exp.ReturnPathTarget)
	assert.Equal(t, "_dmarc.customer.example", exp.DMARCName)
}

func TestExpectedFor_DomainMailHostWins(t *testing.T) {
	d := testDomain()
	d.MailHost = "eu.mail.example."

	exp := ExpectedFor(d, DefaultSettings(), "mail.example")
	assert.Equal(t, "eu.mail.example", exp.MXExchange)
	assert.Equal(t, "_spf.eu.mail.example", exp.SPFInclude)
	assert.Equal(t, "rp.eu.mail.example", exp.ReturnPathTarget)
}

func TestVerify_AllValid(t *testing.T) {
	r := New(fullyPublished()).Verify(context.Background(), "customer.example", testExpected())

	assert.Equal(t, "customer.example", r.Domain)
	assert.True(t, r.Ownership.Valid)
	assert.True(t, r.MX.Valid)
	assert.True(t, r.SPF.Valid)
	assert.True(t, r.DKIM.Valid)
	assert.True(t, r.ReturnPath.Valid)
	assert.True(t, r.DMARC.Valid)
	assert.Empty(t, r.Undetermined())

	require.NotNil(t, r.SPF.Current)
	assert.Equal(t, []string{"_spf.mail.example"}, r.SPF.Current.Includes())
	require.NotNil(t, r.ReturnPath.Current)
	assert.Equal(t, "rp.mail.example", *r.ReturnPath.Current)
	assert.Equal(t, "quarantine", r.DMARC.Current["p"])
}

func TestVerify_SPFMissingInclude(t *testing.T) {
	res := fullyPublished()
	res.TXT["customer.example"] = []string{"v=spf1 include:other.example -all"}

	r := New(res).Verify(context.Background(), "customer.example", testExpected())
	assert.False(t, r.SPF.Valid)
	assert.True(t, r.SPF.Determined)
	require.NotNil(t, r.SPF.Current)
	assert.Equal(t, []string{"other.example"}, r.SPF.Current.Includes())
	assert.Equal(t, "-all", r.SPF.Current.All())
}

func TestVerify_SPFMultipleRecordsInvalid(t *testing.T) {
	res := fullyPublished()
	res.TXT["customer.example"] = []string{
		"v=spf1 include:_spf.mail.example ~all",
		"v=spf1 include:other.example ~all",
	}

	r := New(res).Verify(context.Background(), "customer.example", testExpected())
	assert.False(t, r.SPF.Valid)
}

func TestVerify_SPFNoRecord(t *testing.T) {
	res := fullyPublished()
	res.TXT["customer.example"] = []string{"some other txt"}

	r := New(res).Verify(context.Background(), "customer.example", testExpected())
	assert.False(t, r.SPF.Valid)
	assert.True(t, r.SPF.Determined)
	assert.Nil(t, r.SPF.Current)
}

func TestVerify_DKIM(t *testing.T) {
	res := fullyPublished()

	exp := testExpected()
	r := New(res).Verify(context.Background(), "customer.example", exp)
	assert.True(t, r.DKIM.Valid)
	assert.Equal(t, map[string]string{"h": "sha256", "p": "ABC123"}, r.DKIM.Current)

	exp.DKIMValue = "XYZ"
	r = New(res).Verify(context.Background(), "customer.example", exp)
	assert.False(t, r.DKIM.Valid)
	assert.Equal(t, map[string]string{"h": "sha256", "p": "ABC123"}, r.DKIM.Current)
}

func TestVerify_DKIMWrongHash(t *testing.T) {
	res := fullyPublished()
	res.TXT["pm._domainkey.customer.example"] = []string{"v=DKIM1; h=sha1; p=ABC123"}

	r := New(res).Verify(context.Background(), "customer.example", testExpected())
	assert.False(t, r.DKIM.Valid)
}

func TestVerify_DKIMEmptyExpectedNeverValid(t *testing.T) {
	res := fullyPublished()
	res.TXT["pm._domainkey.customer.example"] = []string{"v=DKIM1; h=sha256; p="}

	exp := testExpected()
	exp.DKIMValue = ""
	r := New(res).Verify(context.Background(), "customer.example", exp)
	assert.False(t, r.DKIM.Valid)
}

func TestVerify_NXDomain(t *testing.T) {
	r := New(&dnstest.Resolver{}).Verify(context.Background(), "customer.example", testExpected())

	assert.False(t, r.Ownership.Valid)
	assert.Nil(t, r.Ownership.Current)
	assert.False(t, r.MX.Valid)
	assert.Nil(t, r.MX.Current)
	assert.False(t, r.SPF.Valid)
	assert.Nil(t, r.SPF.Current)
	assert.False(t, r.DKIM.Valid)
	assert.Nil(t, r.DKIM.Current)
	assert.False(t, r.ReturnPath.Valid)
	assert.Nil(t, r.ReturnPath.Current)

	assert.True(t, r.SPF.Determined)
	assert.Equal(t, dns.CodeNXDomain, r.SPF.Code)
	assert.Empty(t, r.Undetermined())
}

func TestVerify_MXWrongPriority(t *testing.T) {
	res := fullyPublished()
	res.MX["customer.example"] = []dns.MX{{Priority: 10, Exchange: "MAIL.example"}}

	r := New(res).Verify(context.Background(), "customer.example", testExpected())
	assert.False(t, r.MX.Valid)
	assert.Len(t, r.MX.Current, 1)
}

func TestVerify_MXCaseInsensitive(t *testing.T) {
	res := fullyPublished()
	res.MX["customer.example"] = []dns.MX{{Priority: 1, Exchange: "MAIL.Example"}}

	r := New(res).Verify(context.Background(), "customer.example", testExpected())
	assert.True(t, r.MX.Valid)
}

func TestVerify_ReturnPathWrongTarget(t *testing.T) {
	res := fullyPublished()
	res.CNAME["psrp.customer.example"] = []string{"bounce.elsewhere.example"}

	r := New(res).Verify(context.Background(), "customer.example", testExpected())
	assert.False(t, r.ReturnPath.Valid)
	require.NotNil(t, r.ReturnPath.Current)
	assert.Equal(t, "bounce.elsewhere.example", *r.ReturnPath.Current)
}

func TestVerify_OwnershipWrongToken(t *testing.T) {
	res := fullyPublished()
	res.TXT["_mail-verification.customer.example"] = []string{"tok-999"}

	r := New(res).Verify(context.Background(), "customer.example", testExpected())
	assert.False(t, r.Ownership.Valid)
	assert.Equal(t, []string{"tok-999"}, r.Ownership.Current)
}

func TestVerify_FailureIsolated(t *testing.T) {
	res := fullyPublished()
	res.Fail = map[string]dns.Code{"mx customer.example": dns.CodeServerFailure}

	r := New(res).Verify(context.Background(), "customer.example", testExpected())
	assert.False(t, r.MX.Valid)
	assert.False(t, r.MX.Determined)
	assert.Equal(t, dns.CodeServerFailure, r.MX.Code)
	assert.NotEmpty(t, r.MX.Error)

	assert.True(t, r.Ownership.Valid)
	assert.True(t, r.SPF.Valid)
	assert.True(t, r.DKIM.Valid)
	assert.True(t, r.ReturnPath.Valid)
	assert.Equal(t, []string{"mx"}, r.Undetermined())
}

func TestVerify_QueriesEveryCategory(t *testing.T) {
	res := fullyPublished()
	New(res).Verify(context.Background(), "customer.example.", testExpected())

	assert.Equal(t, []string{
		"cname psrp.customer.example",
		"mx customer.example",
		"txt _dmarc.customer.example",
		"txt _mail-verification.customer.example",
		"txt customer.example",
		"txt pm._domainkey.customer.example",
	}, res.Queries())
}

func TestVerify_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(fullyPublished()).Verify(ctx, "customer.example", testExpected())
	assert.Len(t, r.Undetermined(), 5)
}

func TestReconcile_Unchanged(t *testing.T) {
	r := New(fullyPublished()).Verify(context.Background(), "customer.example", testExpected())

	stored := Flags{Ownership: true, MX: true, SPF: true, DKIM: true, ReturnPath: true}
	next, changed := Reconcile(stored, r, PolicyPreserve)
	assert.False(t, changed)
	assert.Equal(t, stored, next)
}

func TestReconcile_Changed(t *testing.T) {
	r := New(fullyPublished()).Verify(context.Background(), "customer.example", testExpected())

	next, changed := Reconcile(Flags{}, r, PolicyPreserve)
	assert.True(t, changed)
	assert.Equal(t, Flags{Ownership: true, MX: true, SPF: true, DKIM: true, ReturnPath: true}, next)
}

func TestReconcile_TransientPolicies(t *testing.T) {
	res := fullyPublished()
	res.Fail = map[string]dns.Code{"txt pm._domainkey.customer.example": dns.CodeRefused}
	r := New(res).Verify(context.Background(), "customer.example", testExpected())

	stored := Flags{Ownership: true, MX: true, SPF: true, DKIM: true, ReturnPath: true}

	next, changed := Reconcile(stored, r, PolicyPreserve)
	assert.False(t, changed)
	assert.True(t, next.DKIM)

	next, changed = Reconcile(stored, r, PolicyStrict)
	assert.True(t, changed)
	assert.False(t, next.DKIM)
}

func TestReconcile_IgnoresDMARC(t *testing.T) {
	res := fullyPublished()
	delete(res.TXT, "_dmarc.customer.example")
	r := New(res).Verify(context.Background(), "customer.example", testExpected())

	stored := Flags{Ownership: true, MX: true, SPF: true, DKIM: true, ReturnPath: true}
	_, changed := Reconcile(stored, r, PolicyStrict)
	assert.False(t, changed)
}

func TestStoredFlags(t *testing.T) {
	d := testDomain()
	assert.Equal(t, Flags{}, StoredFlags(d))

	now := time.Now()
	d.VerifiedAt = &now
	d.SPFValid = true
	assert.Equal(t, Flags{Ownership: true, SPF: true}, StoredFlags(d))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyPreserve, p)

	p, err = ParsePolicy("strict")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, p)

	_, err = ParsePolicy("lenient")
	assert.Error(t, err)
}

func TestSuggested_NoReport(t *testing.T) {
	recs := Suggested("customer.example", testExpected(), nil)
	require.Len(t, recs, 6)

	byCategory := map[string]Record{}
	for _, rec := range recs {
		byCategory[rec.Category] = rec
	}
	assert.Equal(t, "tok-123", byCategory["ownership"].Value)
	assert.Equal(t, "1 mail.example", byCategory["mx"].Value)
	assert.Equal(t, "v=spf1 include:_spf.mail.example ~all", byCategory["spf"].Value)
	assert.Equal(t, "v=DKIM1; h=sha256; p=ABC123", byCategory["dkim"].Value)
	assert.Equal(t, "CNAME", byCategory["return_path"].Type)
	assert.Equal(t, "rp.mail.example", byCategory["return_path"].Value)
	assert.Equal(t, "v=DMARC1; p=none", byCategory["dmarc"].Value)
}

func TestSuggested_MergesExistingSPF(t *testing.T) {
	res := fullyPublished()
	res.TXT["customer.example"] = []string{"v=spf1 ip4:192.0.2.1 include:other.example -all"}
	r := New(res).Verify(context.Background(), "customer.example", testExpected())

	recs := Suggested("customer.example", testExpected(), &r)
	assert.Equal(t, "v=spf1 ip4:192.0.2.1 include:other.example include:_spf.mail.example -all", recs[2].Value)
	assert.False(t, recs[2].Valid)
	assert.True(t, recs[3].Valid)
	// Existing DMARC policy is kept.
	assert.Equal(t, "v=DMARC1; p=quarantine; rua=mailto:d@customer.example", recs[5].Value)
}

func TestSuggested_RedirectRecordGetsNoAll(t *testing.T) {
	res := fullyPublished()
	res.TXT["customer.example"] = []string{"v=spf1 redirect=_spf.other.net"}
	r := New(res).Verify(context.Background(), "customer.example", testExpected())
	require.NotNil(t, r.SPF.Current)
	assert.Equal(t, "+all", r.SPF.Current.All())

	recs := Suggested("customer.example", testExpected(), &r)
	assert.Equal(t, "v=spf1 include:_spf.mail.example redirect=_spf.other.net", recs[2].Value)
	assert.NotContains(t, recs[2].Value, "all")
}

func TestSuggested_KeepsReportSPF(t *testing.T) {
	res := fullyPublished()
	res.TXT["customer.example"] = []string{"v=spf1 mx include:other.example ~all"}
	r := New(res).Verify(context.Background(), "customer.example", testExpected())

	recs := Suggested("customer.example", testExpected(), &r)
	assert.Equal(t, "v=spf1 mx include:other.example include:_spf.mail.example ~all", recs[2].Value)
	assert.Equal(t, []string{"other.example"}, r.SPF.Current.Includes())
}

func TestFlagsChanges(t *testing.T) {
	prev := Flags{MX: true, SPF: true}
	next := Flags{MX: false, SPF: true, DKIM: true}

	assert.Equal(t, []string{"mx: valid -> invalid", "dkim: invalid -> valid"}, next.Changes(prev))
	assert.Empty(t, prev.Changes(prev))
}
