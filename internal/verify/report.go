package verify

import (
	"github.com/edvin/maildns/internal/dns"
	"github.com/edvin/maildns/internal/mailauth"
)

// Check is the outcome of one verification category. Current holds whatever
// was observed, valid or not, so it can be shown next to the expected value.
type Check[T any] struct {
	Valid bool `json:"valid"`
	// Determined is false when the lookup failed transiently and the category
	// could not be judged.
	Determined bool     `json:"determined"`
	Current    T        `json:"current"`
	Error      string   `json:"error,omitempty"`
	Code       dns.Code `json:"code,omitempty"`
}

// Report is the result of one verification pass.
type Report struct {
	Domain     string                   `json:"domain"`
	Ownership  Check[[]string]          `json:"ownership"`
	MX         Check[[]dns.MX]          `json:"mx"`
	SPF        Check[*mailauth.SPF]     `json:"spf"`
	DKIM       Check[map[string]string] `json:"dkim"`
	ReturnPath Check[*string]           `json:"return_path"`
	// DMARC is informational and never takes part in change detection.
	DMARC Check[map[string]string] `json:"dmarc"`
}

// failed records a lookup failure on a check that still has its zero value.
func failed[T, U any](c *Check[T], r dns.Result[U]) {
	c.Determined = r.Definitive()
	c.Error = r.Error
	c.Code = r.Code
}
