// Package mailauth parses and builds the TXT records used for mail
// authentication: SPF, DKIM key records and DMARC policies.
//
// Parsers are lenient: they return ok=false only when the record does not
// carry the expected version tag, and drop individual malformed terms.
// Builders produce the normalized wire form, so for any well-formed record r,
// Build(Parse(r)) == r.
package mailauth
