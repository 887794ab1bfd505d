package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/edvin/maildns/internal/domainctl"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "seed":
		fs := flag.NewFlagSet("seed", flag.ExitOnError)
		file := fs.String("f", "", "Path to seed definition YAML file (required)")
		fs.Parse(os.Args[2:])

		if *file == "" {
			fmt.Fprintln(os.Stderr, "Error: -f flag is required")
			fs.Usage()
			os.Exit(1)
		}

		cfg, err := domainctl.LoadSeedConfig(*file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := domainctl.Seed(cfg, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "check", "records":
		fs := flag.NewFlagSet(os.Args[1], flag.ExitOnError)
		apiURL := fs.String("api", "http://localhost:8090", "Mail DNS API base URL")
		fs.Parse(os.Args[2:])

		if fs.NArg() < 1 {
			fmt.Fprintf(os.Stderr, "Usage: domainctl %s [-api URL] <domain-id>\n", os.Args[1])
			os.Exit(1)
		}
		client := domainctl.NewClient(*apiURL, os.Getenv(domainctl.APIKeyEnv))

		var err error
		if os.Args[1] == "check" {
			var runID string
			if runID, err = client.CheckDomain(fs.Arg(0)); err == nil {
				fmt.Printf("Check enqueued (run %s)\n", runID)
			}
		} else {
			var status *domainctl.DNSStatus
			if status, err = client.DomainDNS(fs.Arg(0)); err == nil {
				err = domainctl.PrintRecords(status, os.Stdout)
			}
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage:
  domainctl seed -f <domains.yaml>
  domainctl check [-api URL] <domain-id>
  domainctl records [-api URL] <domain-id>

Commands:
  seed      Register mail domains from a YAML definition
  check     Enqueue an immediate DNS check for a domain
  records   Show the DNS records a domain should publish and which are in place

The API key is read from MAILDNS_API_KEY (seed files may set api_key instead).`)
}
