package verify

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/edvin/maildns/internal/dns"
	"github.com/edvin/maildns/internal/mailauth"
)

// Verifier compares published DNS records against the expected configuration.
type Verifier struct {
	resolver dns.Resolver
}

// New creates a Verifier backed by resolver.
func New(resolver dns.Resolver) *Verifier {
	return &Verifier{resolver: resolver}
}

// Verify looks up every category concurrently and returns once all of them
// have resolved. A failing lookup only affects its own category.
func (v *Verifier) Verify(ctx context.Context, root string, exp Expected) Report {
	report := Report{Domain: strings.TrimSuffix(root, ".")}

	var g errgroup.Group
	g.Go(func() error {
		report.Ownership = v.checkOwnership(ctx, exp)
		return nil
	})
	g.Go(func() error {
		report.MX = v.checkMX(ctx, report.Domain, exp)
		return nil
	})
	g.Go(func() error {
		report.SPF = v.checkSPF(ctx, report.Domain, exp)
		return nil
	})
	g.Go(func() error {
		report.DKIM = v.checkDKIM(ctx, exp)
		return nil
	})
	g.Go(func() error {
		report.ReturnPath = v.checkReturnPath(ctx, exp)
		return nil
	})
	g.Go(func() error {
		report.DMARC = v.checkDMARC(ctx, exp)
		return nil
	})
	_ = g.Wait()

	return report
}

func (v *Verifier) checkOwnership(ctx context.Context, exp Expected) Check[[]string] {
	var c Check[[]string]
	res := v.resolver.LookupTXT(ctx, exp.ChallengeName)
	if !res.Success {
		failed(&c, res)
		return c
	}

	c.Determined = true
	c.Current = res.Data
	for _, txt := range res.Data {
		if exp.VerificationToken != "" && txt == exp.VerificationToken {
			c.Valid = true
			break
		}
	}
	return c
}

func (v *Verifier) checkMX(ctx context.Context, root string, exp Expected) Check[[]dns.MX] {
	var c Check[[]dns.MX]
	res := v.resolver.LookupMX(ctx, root)
	if !res.Success {
		failed(&c, res)
		return c
	}

	c.Determined = true
	c.Current = res.Data
	for _, mx := range res.Data {
		if strings.EqualFold(mx.Exchange, exp.MXExchange) && mx.Priority == exp.MXPriority {
			c.Valid = true
			break
		}
	}
	return c
}

// checkSPF requires exactly one SPF record at the root; more than one is a
// permanent error for receivers, so it never counts as valid.
func (v *Verifier) checkSPF(ctx context.Context, root string, exp Expected) Check[*mailauth.SPF] {
	var c Check[*mailauth.SPF]
	res := v.resolver.LookupTXT(ctx, root)
	if !res.Success {
		failed(&c, res)
		return c
	}

	c.Determined = true
	var records []*mailauth.SPF
	for _, txt := range res.Data {
		if spf, ok := mailauth.ParseSPF(txt); ok {
			records = append(records, spf)
		}
	}
	if len(records) == 0 {
		return c
	}

	c.Current = records[0]
	c.Valid = len(records) == 1 && records[0].Include(exp.SPFInclude)
	return c
}

func (v *Verifier) checkDKIM(ctx context.Context, exp Expected) Check[map[string]string] {
	var c Check[map[string]string]
	res := v.resolver.LookupTXT(ctx, exp.DKIMName)
	if !res.Success {
		failed(&c, res)
		return c
	}

	c.Determined = true
	for _, txt := range res.Data {
		tags, ok := mailauth.ParseDKIM(txt)
		if !ok {
			continue
		}
		c.Current = tags.Map()
		h, _ := tags.Get("h")
		p, _ := tags.Get("p")
		c.Valid = h == "sha256" && p != "" && p == exp.DKIMValue
		break
	}
	return c
}

func (v *Verifier) checkReturnPath(ctx context.Context, exp Expected) Check[*string] {
	var c Check[*string]
	res := v.resolver.LookupCNAME(ctx, exp.ReturnPathName)
	if !res.Success {
		failed(&c, res)
		return c
	}

	c.Determined = true
	target := res.Data[0]
	c.Current = &target
	c.Valid = strings.EqualFold(target, exp.ReturnPathTarget)
	return c
}

func (v *Verifier) checkDMARC(ctx context.Context, exp Expected) Check[map[string]string] {
	var c Check[map[string]string]
	res := v.resolver.LookupTXT(ctx, exp.DMARCName)
	if !res.Success {
		failed(&c, res)
		return c
	}

	c.Determined = true
	for _, txt := range res.Data {
		if tags, ok := mailauth.ParseDMARC(txt); ok {
			c.Current = tags.Map()
			_, c.Valid = tags.Get("p")
			break
		}
	}
	return c
}
