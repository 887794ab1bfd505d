package request

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/net/publicsuffix"
)

var validate = validator.New()

var selectorRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,62}$`)

func init() {
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	validate.RegisterValidation("dkim_selector", func(fl validator.FieldLevel) bool {
		return selectorRegex.MatchString(fl.Field().String())
	})
	validate.RegisterValidation("registrable", func(fl validator.FieldLevel) bool {
		return IsRegistrable(fl.Field().String())
	})
}

// IsRegistrable reports whether name sits at or below a registrable domain,
// so that "example.co.uk" and "mail.example.com" pass while "co.uk" does not.
func IsRegistrable(name string) bool {
	name = NormalizeDomain(name)
	if name == "" || strings.Contains(name, "..") {
		return false
	}
	_, err := publicsuffix.EffectiveTLDPlusOne(name)
	return err == nil
}

// NormalizeDomain lowercases name and strips a trailing dot.
func NormalizeDomain(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".")
}

func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}

func RequireID(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("missing required ID")
	}
	return s, nil
}

// Pagination holds parsed pagination parameters.
type Pagination struct {
	Limit  int
	Cursor string
}

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// ParsePagination extracts limit and cursor from query parameters. A limit
// that is not a positive integer is rejected; one above MaxLimit is capped.
func ParsePagination(r *http.Request) (Pagination, error) {
	p := Pagination{
		Limit:  DefaultLimit,
		Cursor: r.URL.Query().Get("cursor"),
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			return p, fmt.Errorf("invalid limit %q", limitStr)
		}
		p.Limit = min(limit, MaxLimit)
	}
	return p, nil
}
