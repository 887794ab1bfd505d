package domainctl

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// APIKeyEnv is consulted when neither a flag nor the seed file sets a key.
const APIKeyEnv = "MAILDNS_API_KEY"

// LoadSeedConfig reads and validates a seed file.
func LoadSeedConfig(path string) (*SeedConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg SeedConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("api_url is required")
	}
	for i, d := range cfg.Domains {
		if d.Name == "" || d.DKIMValue == "" {
			return nil, fmt.Errorf("domains[%d]: name and dkim_value are required", i)
		}
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(APIKeyEnv)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key: set api_key in config or %s env var", APIKeyEnv)
	}
	return &cfg, nil
}

// Seed creates every domain in the config, attaching mail server IDs to
// domains that already existed, and prints the ownership records to publish.
func Seed(cfg *SeedConfig, out io.Writer) error {
	client := NewClient(cfg.APIURL, cfg.APIKey)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DOMAIN\tID\tSTATUS\tOWNERSHIP TXT")
	for _, def := range cfg.Domains {
		d, created, err := client.CreateDomain(def)
		if err != nil {
			return fmt.Errorf("create domain %s: %w", def.Name, err)
		}

		status := "created"
		if !created {
			status = "exists"
			if def.MailServerID != "" && (d.MailServerID == nil || *d.MailServerID != def.MailServerID) {
				if err := client.SetMailServerID(d.ID, def.MailServerID); err != nil {
					return fmt.Errorf("update domain %s: %w", def.Name, err)
				}
				status = "updated"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.DomainName, d.ID, status, d.VerificationToken)
	}
	return tw.Flush()
}

// PrintRecords writes the records a domain should publish, marking the ones
// already in place.
func PrintRecords(status *DNSStatus, out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tTYPE\tNAME\tVALUE\tOK")
	for _, r := range status.Suggested {
		ok := "no"
		if r.Valid {
			ok = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Category, r.Type, r.Name, r.Value, ok)
	}
	return tw.Flush()
}
