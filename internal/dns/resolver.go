package dns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	mdns "github.com/miekg/dns"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

// Resolver looks up the record types needed to verify a mail domain. It never
// returns an error: every outcome, including transport failures, is a Result.
type Resolver interface {
	LookupA(ctx context.Context, name string) Result[string]
	LookupAAAA(ctx context.Context, name string) Result[string]
	LookupCNAME(ctx context.Context, name string) Result[string]
	LookupMX(ctx context.Context, name string) Result[MX]
	LookupTXT(ctx context.Context, name string) Result[string]
	LookupNS(ctx context.Context, name string) Result[string]
}

var lookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dns_lookups_total",
		Help: "DNS-over-HTTPS lookups by record type and outcome",
	},
	[]string{"type", "code"},
)

var validate = validator.New()

// response is the JSON shape returned by DNS-over-HTTPS resolvers.
type response struct {
	Status *int     `json:"Status" validate:"required,gte=0"`
	Answer []answer `json:"Answer" validate:"omitempty,dive"`
}

type answer struct {
	Name string `json:"name" validate:"required"`
	Type uint16 `json:"type" validate:"required"`
	TTL  uint32 `json:"TTL"`
	Data string `json:"data" validate:"required"`
}

// DoHConfig configures a DoHClient.
type DoHConfig struct {
	// Endpoint is the resolver URL, e.g. https://cloudflare-dns.com/dns-query.
	Endpoint string
	// Timeout bounds each request. Default 5s.
	Timeout time.Duration
	// QPS paces outbound requests across all callers. Zero disables pacing.
	QPS float64
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// DoHClient resolves records through a JSON DNS-over-HTTPS endpoint.
type DoHClient struct {
	endpoint string
	timeout  time.Duration
	client   *http.Client
	limiter  *rate.Limiter
}

var _ Resolver = (*DoHClient)(nil)

// NewDoHClient creates a DoHClient.
func NewDoHClient(cfg DoHConfig) *DoHClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.QPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.QPS), int(cfg.QPS)+1)
	}
	return &DoHClient{
		endpoint: cfg.Endpoint,
		timeout:  cfg.Timeout,
		client:   client,
		limiter:  limiter,
	}
}

func (c *DoHClient) LookupA(ctx context.Context, name string) Result[string] {
	return c.query(ctx, name, mdns.TypeA)
}

func (c *DoHClient) LookupAAAA(ctx context.Context, name string) Result[string] {
	return c.query(ctx, name, mdns.TypeAAAA)
}

func (c *DoHClient) LookupCNAME(ctx context.Context, name string) Result[string] {
	return mapData(c.query(ctx, name, mdns.TypeCNAME), trimDot)
}

func (c *DoHClient) LookupNS(ctx context.Context, name string) Result[string] {
	return mapData(c.query(ctx, name, mdns.TypeNS), trimDot)
}

func (c *DoHClient) LookupTXT(ctx context.Context, name string) Result[string] {
	return mapData(c.query(ctx, name, mdns.TypeTXT), unquoteTXT)
}

// LookupMX returns the exchangers sorted by ascending priority.
func (c *DoHClient) LookupMX(ctx context.Context, name string) Result[MX] {
	return parseMX(c.query(ctx, name, mdns.TypeMX))
}

// query performs one DoH request and returns the raw data of every answer of
// the requested type.
func (c *DoHClient) query(ctx context.Context, name string, qtype uint16) Result[string] {
	typeName := mdns.TypeToString[qtype]
	res := c.do(ctx, name, qtype)

	code := "ok"
	if !res.Success {
		code = string(res.Code)
	}
	lookupsTotal.WithLabelValues(typeName, code).Inc()

	return res
}

func (c *DoHClient) do(ctx context.Context, name string, qtype uint16) Result[string] {
	if err := c.limiter.Wait(ctx); err != nil {
		return Failure[string](CodeServerFailure, fmt.Sprintf("%s: %v", msgServerFailure, err), -1)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("name", strings.TrimSuffix(name, "."))
	q.Set("type", mdns.TypeToString[qtype])

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return Failure[string](CodeServerFailure, fmt.Sprintf("%s: %v", msgServerFailure, err), -1)
	}
	req.Header.Set("Accept", "application/dns-json")

	resp, err := c.client.Do(req)
	if err != nil {
		msg := msgServerFailure
		if errors.Is(err, context.DeadlineExceeded) {
			msg += " (timeout)"
		}
		return Failure[string](CodeServerFailure, fmt.Sprintf("%s: %v", msg, err), -1)
	}
	defer func() { io.Copy(io.Discard, resp.Body); resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Failure[string](CodeServerFailure, fmt.Sprintf("%s: http status %d", msgServerFailure, resp.StatusCode), -1)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Failure[string](CodeValidation, fmt.Sprintf("invalid resolver response: %v", err), -1)
	}
	if err := validate.Struct(&body); err != nil {
		return Failure[string](CodeValidation, fmt.Sprintf("invalid resolver response: %v", err), -1)
	}

	status := *body.Status
	if status != mdns.RcodeSuccess {
		return StatusResult[string](status)
	}

	var data []string
	for _, a := range body.Answer {
		if a.Type == qtype {
			data = append(data, a.Data)
		}
	}
	if len(data) == 0 {
		return StatusResult[string](status)
	}
	return Answer(data)
}

func mapData(r Result[string], fn func(string) string) Result[string] {
	if !r.Success {
		return r
	}
	out := make([]string, len(r.Data))
	for i, d := range r.Data {
		out[i] = fn(d)
	}
	return Answer(out)
}

func trimDot(s string) string {
	return strings.TrimSuffix(s, ".")
}

// unquoteTXT strips the surrounding quotes of a TXT payload and joins the
// character-strings of a multi-string record.
func unquoteTXT(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	s = s[1 : len(s)-1]
	s = strings.ReplaceAll(s, `" "`, "")
	return strings.ReplaceAll(s, `""`, "")
}

func parseMX(r Result[string]) Result[MX] {
	if !r.Success {
		return convert[string, MX](r)
	}

	mxs := make([]MX, 0, len(r.Data))
	for _, d := range r.Data {
		fields := strings.Fields(d)
		if len(fields) != 2 {
			continue
		}
		prio, err := strconv.ParseUint(fields[0], 10, 16)
		if err != nil {
			continue
		}
		mxs = append(mxs, MX{Priority: uint16(prio), Exchange: trimDot(fields[1])})
	}
	if len(mxs) == 0 {
		return Failure[MX](CodeValidation, "invalid resolver response: malformed MX data", r.Rcode)
	}

	sort.SliceStable(mxs, func(i, j int) bool { return mxs[i].Priority < mxs[j].Priority })
	return Answer(mxs)
}
