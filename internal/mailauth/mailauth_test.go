package mailauth

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------- SPF ----------

func TestParseSPF(t *testing.T) {
	spf, ok := ParseSPF("v=spf1 include:_spf.mail.example ~all")
	require.True(t, ok)
	assert.Equal(t, []string{"_spf.mail.example"}, spf.Includes())
	assert.Equal(t, "~all", spf.All())
	assert.True(t, spf.Include("_SPF.mail.example"))
}

func TestParseSPF_PreservesIncludeOrder(t *testing.T) {
	spf, ok := ParseSPF("v=spf1 ip4:192.0.2.0/24 include:b.example include:a.example -all")
	require.True(t, ok)
	assert.Equal(t, []string{"b.example", "a.example"}, spf.Includes())
	assert.Equal(t, Term{Name: "ip4", Value: "192.0.2.0/24"}, spf.Terms[0])
	assert.Equal(t, "-all", spf.All())
}

func TestParseSPF_DefaultsToPlusAll(t *testing.T) {
	spf, ok := ParseSPF("v=spf1 include:a.example")
	require.True(t, ok)
	assert.Equal(t, "+all", spf.All())

	spf, ok = ParseSPF("v=spf1 ?all")
	require.True(t, ok)
	assert.Equal(t, "?all", spf.All())
	assert.Empty(t, spf.Includes())

	spf, ok = ParseSPF("v=spf1 mx all")
	require.True(t, ok)
	assert.Equal(t, "+all", spf.All())
}

func TestParseSPF_Terms(t *testing.T) {
	spf, ok := ParseSPF("v=spf1 -a/24 ip6:2001:db8::/32 redirect=_spf.example.net")
	require.True(t, ok)
	assert.Equal(t, []Term{
		{Qualifier: "-", Name: "a", CIDR: "/24"},
		{Name: "ip6", Value: "2001:db8::/32"},
		{Name: "redirect", Value: "_spf.example.net", Modifier: true},
	}, spf.Terms)
}

func TestParseSPF_DropsMalformedTerms(t *testing.T) {
	spf, ok := ParseSPF("v=spf1 include: + -redirect=x.example include:a.example ~all")
	require.True(t, ok)
	assert.Equal(t, "v=spf1 include:a.example ~all", BuildSPF(*spf))
}

func TestParseSPF_NotSPF(t *testing.T) {
	for _, txt := range []string{"", "google-site-verification=abc", "v=spf10 -all", "v=DKIM1; p=abc"} {
		_, ok := ParseSPF(txt)
		assert.False(t, ok, txt)
	}
}

func TestSPF_RoundTrip(t *testing.T) {
	records := []string{
		"v=spf1 include:_spf.mail.example ~all",
		"v=spf1 include:a.example include:b.example ip4:192.0.2.1 mx -all",
		"v=spf1 ?all",
		"v=spf1 ip4:192.0.2.1 include:_spf.mail.example -all",
		"v=spf1 redirect=_spf.example.net",
		"v=spf1 mx include:a.example ~all",
		"v=spf1 a/24 mx:mx.example/26 include:a.example exp=explain.example.net -all",
	}
	for _, r := range records {
		spf, ok := ParseSPF(r)
		require.True(t, ok)
		assert.Equal(t, r, BuildSPF(*spf))
	}

	var in SPF
	in.AddInclude("_spf.mail.example")
	in.SetAll("-all")
	out, ok := ParseSPF(BuildSPF(in))
	require.True(t, ok)
	assert.Equal(t, in, *out)
}

func TestSPF_AddInclude(t *testing.T) {
	cases := map[string]string{
		"v=spf1 ip4:192.0.2.1 -all":      "v=spf1 ip4:192.0.2.1 include:x.example -all",
		"v=spf1 redirect=_spf.other.net": "v=spf1 include:x.example redirect=_spf.other.net",
		"v=spf1 mx exp=e.example":        "v=spf1 mx include:x.example exp=e.example",
		"v=spf1 include:X.example ~all":  "v=spf1 include:X.example ~all",
		"v=spf1 -all exp=e.example":      "v=spf1 include:x.example -all exp=e.example",
	}
	for in, want := range cases {
		spf, ok := ParseSPF(in)
		require.True(t, ok)
		spf.AddInclude("x.example")
		assert.Equal(t, want, BuildSPF(*spf), in)
	}
}

func TestSPF_SetAll(t *testing.T) {
	spf, _ := ParseSPF("v=spf1 mx ~all exp=e.example")
	spf.SetAll("-all")
	assert.Equal(t, "v=spf1 mx -all exp=e.example", BuildSPF(*spf))

	spf, _ = ParseSPF("v=spf1 all")
	spf.SetAll("+all")
	assert.Equal(t, "v=spf1 all", BuildSPF(*spf))

	spf, _ = ParseSPF("v=spf1 mx")
	spf.SetAll("~all")
	assert.Equal(t, "v=spf1 mx ~all", BuildSPF(*spf))
}

func TestSPF_MarshalJSON(t *testing.T) {
	spf, _ := ParseSPF("v=spf1 include:a.example")
	b, err := json.Marshal(spf)
	require.NoError(t, err)
	assert.JSONEq(t, `{"terms":[{"name":"include","value":"a.example"}],"includes":["a.example"],"all":"+all"}`, string(b))

	var back SPF
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, *spf, back)
}

// ---------- DKIM ----------

func TestParseDKIM(t *testing.T) {
	tags, ok := ParseDKIM("v=DKIM1; h=sha256; p=ABC123")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"h": "sha256", "p": "ABC123"}, tags.Map())

	p, ok := tags.Get("p")
	assert.True(t, ok)
	assert.Equal(t, "ABC123", p)
}

func TestParseDKIM_DropsMalformedSegments(t *testing.T) {
	tags, ok := ParseDKIM("v=DKIM1; junk; =nokey; k=rsa; p=MIIB AQAB; k=dup;")
	require.True(t, ok)
	assert.Equal(t, Tags{{Key: "k", Value: "rsa"}, {Key: "p", Value: "MIIBAQAB"}}, tags)
}

func TestParseDKIM_NotDKIM(t *testing.T) {
	_, ok := ParseDKIM("v=spf1 -all")
	assert.False(t, ok)
	_, ok = ParseDKIM("")
	assert.False(t, ok)
}

func TestDKIM_RoundTrip(t *testing.T) {
	record := "v=DKIM1; h=sha256; k=rsa; p=ABC123"
	tags, ok := ParseDKIM(record)
	require.True(t, ok)
	assert.Equal(t, record, BuildDKIM(tags))

	in := Tags{{Key: "h", Value: "sha256"}, {Key: "p", Value: "XYZ"}}
	out, ok := ParseDKIM(BuildDKIM(in))
	require.True(t, ok)
	assert.Equal(t, in, out)
}

func TestDKIM_RoundTripNormalizesWhitespace(t *testing.T) {
	tags, ok := ParseDKIM("  v=DKIM1 ;h = sha256;  p=ABC 123 ")
	require.True(t, ok)
	assert.Equal(t, "v=DKIM1; h=sha256; p=ABC123", BuildDKIM(tags))
}

// ---------- DMARC ----------

func TestParseDMARC(t *testing.T) {
	tags, ok := ParseDMARC("v=DMARC1; p=quarantine; rua=mailto:dmarc@example.com; pct=100")
	require.True(t, ok)
	assert.Equal(t, map[string]string{
		"p":   "quarantine",
		"rua": "mailto:dmarc@example.com",
		"pct": "100",
	}, tags.Map())
}

func TestParseDMARC_ValueContainingEquals(t *testing.T) {
	tags, ok := ParseDMARC("v=DMARC1; p=none; rua=mailto:a@example.com?x=y")
	require.True(t, ok)
	v, _ := tags.Get("rua")
	assert.Equal(t, "mailto:a@example.com?x=y", v)
}

func TestDMARC_RoundTrip(t *testing.T) {
	record := "v=DMARC1; p=reject; sp=none; adkim=s"
	tags, ok := ParseDMARC(record)
	require.True(t, ok)
	assert.Equal(t, record, BuildDMARC(tags))
}

func TestBuildTags_SkipsVersionTag(t *testing.T) {
	assert.Equal(t, "v=DMARC1; p=none", BuildDMARC(Tags{{Key: "v", Value: "DMARC1"}, {Key: "p", Value: "none"}}))
}
