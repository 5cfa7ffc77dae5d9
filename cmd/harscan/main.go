// harscan prints the distinct Authorization values found in a HAR capture.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/ericfisherdev/bearerwatch/internal/adapter/driven/har"
	"github.com/ericfisherdev/bearerwatch/internal/application"
	"github.com/ericfisherdev/bearerwatch/internal/domain/model"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type candidateOutput struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var includeBearer, asJSON bool

	flagSet := pflag.NewFlagSet("harscan", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.BoolVar(&includeBearer, "bearer", false, "keep the \"Bearer \" scheme prefix on printed tokens")
	flagSet.BoolVar(&asJSON, "json", false, "print candidates as a JSON array")
	flagSet.Usage = func() {
		fmt.Fprintf(stderr, "Usage: harscan [flags] <file.har | ->\n\nFlags:\n%s", flagSet.FlagUsages())
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return fmt.Errorf("expected exactly one HAR file, got %d arguments", flagSet.NArg())
	}

	data, err := readInput(flagSet.Arg(0), stdin)
	if err != nil {
		return err
	}

	records, err := har.NewParser().Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", flagSet.Arg(0), err)
	}

	candidates := application.ExtractCandidates(records)
	out := make([]candidateOutput, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, candidateOutput{
			URL:   c.URL,
			Token: model.FormatCredential(c.AuthorizationValue, includeBearer),
		})
	}

	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for _, c := range out {
		fmt.Fprintf(tw, "%s\t%s\n", c.URL, c.Token)
	}
	return tw.Flush()
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read capture: %w", err)
	}
	return data, nil
}
