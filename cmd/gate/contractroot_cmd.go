package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/fnproof/kernel/pkg/config"
	"github.com/fnproof/kernel/pkg/contract"
)

// runContractRootCmd implements `gate contractroot`: checks the
// contract_root threat-matrix / allowlist / control-checks artifacts
// (spec.md §6). Not named in SPEC_FULL.md's package-layout subcommand
// list but grounded on the same pkg/contract component as packetready.
func runContractRootCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("contractroot", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		contractRoot string
		reportOut    string
	)

	cmd.StringVar(&contractRoot, "contract-root", "", "Root directory containing contract artifacts (default: $FNP_CONTRACT_ROOT, else \"contracts\")")
	cmd.StringVar(&reportOut, "report-out", "", "Path to write the root-readiness report JSON (default: stdout)")

	if err := cmd.Parse(args); err != nil {
		return 1
	}

	if contractRoot == "" {
		contractRoot = config.Load().ContractRoot
	}
	if contractRoot == "" {
		fmt.Fprintln(stderr, "Error: --contract-root is required")
		return 1
	}

	report, err := contract.CheckContractRoot(contractRoot)
	if err != nil {
		fmt.Fprintf(stderr, "Error: contract root check failed: %v\n", err)
		return 1
	}

	if err := writeGateSummary(report, reportOut, "", false, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if !report.IsReady {
		return 2
	}
	return 0
}
