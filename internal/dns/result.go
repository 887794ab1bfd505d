package dns

import (
	"fmt"

	mdns "github.com/miekg/dns"
)

// Code classifies a failed lookup.
type Code string

const (
	CodeNoAnswer      Code = "NO_ANSWER"
	CodeServerFailure Code = "SERVFAIL"
	CodeNXDomain      Code = "NXDOMAIN"
	CodeRefused       Code = "REFUSED"
	CodeUnhandled     Code = "UNHANDLED"
	CodeValidation    Code = "VALIDATION"
)

const (
	msgNoAnswer      = "No answer"
	msgServerFailure = "Server failure"
	msgNXDomain      = "The domain name does not exist"
	msgRefused       = "Query refused"
)

// Result is the outcome of one lookup. Exactly one of Data (Success=true) or
// Error/Code (Success=false) is meaningful. A successful result always carries
// at least one record.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    []T    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    Code   `json:"code,omitempty"`
	// Rcode is the raw DNS response status, or -1 when no response was parsed.
	Rcode int `json:"rcode"`
}

// MX is a single mail exchanger with its trailing dot removed.
type MX struct {
	Priority uint16 `json:"priority"`
	Exchange string `json:"exchange"`
}

// Answer is a successful result carrying data.
func Answer[T any](data []T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Failure is a failed result with the given code, message and raw rcode.
func Failure[T any](code Code, msg string, rcode int) Result[T] {
	return Result[T]{Code: code, Error: msg, Rcode: rcode}
}

// Definitive reports whether the result settles the question of what is
// published: a successful answer, NXDOMAIN or an empty answer set. Transport
// errors, SERVFAIL, REFUSED, unknown codes and malformed payloads are not.
func (r Result[T]) Definitive() bool {
	if r.Success {
		return true
	}
	return r.Code == CodeNXDomain || r.Code == CodeNoAnswer
}

// StatusResult maps a DNS response status with no usable answers to a failure.
func StatusResult[T any](status int) Result[T] {
	switch status {
	case mdns.RcodeSuccess:
		return Failure[T](CodeNoAnswer, msgNoAnswer, status)
	case mdns.RcodeServerFailure:
		return Failure[T](CodeServerFailure, msgServerFailure, status)
	case mdns.RcodeNameError:
		return Failure[T](CodeNXDomain, msgNXDomain, status)
	case mdns.RcodeRefused:
		return Failure[T](CodeRefused, msgRefused, status)
	default:
		return Failure[T](CodeUnhandled, fmt.Sprintf("Unhandled error (code %d)", status), status)
	}
}

// convert re-types a failed result.
func convert[T, U any](r Result[T]) Result[U] {
	return Result[U]{Code: r.Code, Error: r.Error, Rcode: r.Rcode}
}
