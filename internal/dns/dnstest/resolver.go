// Package dnstest provides an in-memory dns.Resolver for tests.
package dnstest

import (
	"context"
	"sort"
	"strings"
	"sync"

	mdns "github.com/miekg/dns"

	"github.com/edvin/maildns/internal/dns"
)

// Resolver answers lookups from in-memory records. Records are keyed by name
// without a trailing dot. A name missing from the map for the requested type
// yields NXDOMAIN.
type Resolver struct {
	A     map[string][]string
	AAAA  map[string][]string
	CNAME map[string][]string
	MX    map[string][]dns.MX
	TXT   map[string][]string
	NS    map[string][]string

	// Fail forces a failure code for "type name", e.g. "txt example.com".
	Fail map[string]dns.Code

	mu      sync.Mutex
	queries []string
}

var _ dns.Resolver = (*Resolver)(nil)

var rcodes = map[dns.Code]int{
	dns.CodeNoAnswer:      mdns.RcodeSuccess,
	dns.CodeServerFailure: mdns.RcodeServerFailure,
	dns.CodeNXDomain:      mdns.RcodeNameError,
	dns.CodeRefused:       mdns.RcodeRefused,
}

// Queries returns the "type name" keys looked up so far, sorted.
func (m *Resolver) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]string(nil), m.queries...)
	sort.Strings(out)
	return out
}

func (m *Resolver) LookupA(ctx context.Context, name string) dns.Result[string] {
	return lookup(m, ctx, "a", name, m.A)
}

func (m *Resolver) LookupAAAA(ctx context.Context, name string) dns.Result[string] {
	return lookup(m, ctx, "aaaa", name, m.AAAA)
}

func (m *Resolver) LookupCNAME(ctx context.Context, name string) dns.Result[string] {
	return lookup(m, ctx, "cname", name, m.CNAME)
}

func (m *Resolver) LookupMX(ctx context.Context, name string) dns.Result[dns.MX] {
	r := lookup(m, ctx, "mx", name, m.MX)
	if r.Success {
		sort.SliceStable(r.Data, func(i, j int) bool { return r.Data[i].Priority < r.Data[j].Priority })
	}
	return r
}

func (m *Resolver) LookupTXT(ctx context.Context, name string) dns.Result[string] {
	return lookup(m, ctx, "txt", name, m.TXT)
}

func (m *Resolver) LookupNS(ctx context.Context, name string) dns.Result[string] {
	return lookup(m, ctx, "ns", name, m.NS)
}

func lookup[T any](m *Resolver, ctx context.Context, typ, name string, records map[string][]T) dns.Result[T] {
	name = strings.TrimSuffix(name, ".")
	key := typ + " " + name

	m.mu.Lock()
	m.queries = append(m.queries, key)
	m.mu.Unlock()

	if ctx.Err() != nil {
		return dns.Failure[T](dns.CodeServerFailure, "Server failure: "+ctx.Err().Error(), -1)
	}
	if code, ok := m.Fail[key]; ok {
		if rcode, ok := rcodes[code]; ok {
			return dns.StatusResult[T](rcode)
		}
		return dns.Failure[T](code, string(code), -1)
	}

	data, ok := records[name]
	if !ok {
		return dns.StatusResult[T](mdns.RcodeNameError)
	}
	if len(data) == 0 {
		return dns.StatusResult[T](mdns.RcodeSuccess)
	}
	return dns.Answer(append([]T(nil), data...))
}
