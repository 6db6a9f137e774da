package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fnproof/kernel/pkg/gate"
	"github.com/fnproof/kernel/pkg/telemetry"
)

// referenceWorkload is one entry of the --reference-path file: a declared
// budget paired with the reference baseline's measured latencies.
type referenceWorkload struct {
	Name      string  `json:"name"`
	P95Budget float64 `json:"p95_budget"`
	P95       float64 `json:"p95"`
	P99       float64 `json:"p99"`
}

// candidateWorkload is one entry of the --candidate-path file.
type candidateWorkload struct {
	Name string  `json:"name"`
	P95  float64 `json:"p95"`
	P99  float64 `json:"p99"`
}

// runPerfBudgetCmd implements `gate perfbudget` per spec.md §6 / §4.3.
func runPerfBudgetCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("perfbudget", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		referencePath         string
		candidatePath         string
		maxP99RegressionRatio float64
		coverageFloor         float64
		outputPath            string
		reportPath            string
		historyPath           string
		signed                bool
	)

	cmd.StringVar(&referencePath, "reference-path", "", "Path to reference workload budgets/baseline JSON (REQUIRED)")
	cmd.StringVar(&candidatePath, "candidate-path", "", "Path to candidate workload measurements JSON (REQUIRED)")
	cmd.Float64Var(&maxP99RegressionRatio, "max-p99-regression-ratio", gate.DefaultMaxP99RegressionRatio, "Maximum tolerated p99 regression ratio")
	cmd.Float64Var(&coverageFloor, "coverage-floor", 0, "Minimum required workload coverage ratio")
	cmd.StringVar(&outputPath, "output-path", "", "Path to write the gate result JSON (default: stdout)")
	cmd.StringVar(&reportPath, "report-path", "", "Path to write a signed attestation artifact (requires --signed)")
	cmd.StringVar(&historyPath, "history-path", "", "Path to a local SQLite run-history cache to append this run to")
	cmd.BoolVar(&signed, "signed", false, "Emit an ed25519-signed attestation of the gate result")

	if err := cmd.Parse(args); err != nil {
		return 1
	}

	if referencePath == "" || candidatePath == "" {
		fmt.Fprintln(stderr, "Error: --reference-path and --candidate-path are required")
		return 1
	}

	var refWorkloads []referenceWorkload
	if err := readJSONFile(referencePath, &refWorkloads); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	var candWorkloads []candidateWorkload
	if err := readJSONFile(candidatePath, &candWorkloads); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	budgets := make([]gate.WorkloadBudget, 0, len(refWorkloads))
	reference := make(map[string]gate.WorkloadMeasurement, len(refWorkloads))
	for _, w := range refWorkloads {
		budgets = append(budgets, gate.WorkloadBudget{Name: w.Name, P95Budget: w.P95Budget})
		reference[w.Name] = gate.WorkloadMeasurement{Name: w.Name, P95: w.P95, P99: w.P99}
	}
	candidate := make(map[string]gate.WorkloadMeasurement, len(candWorkloads))
	for _, w := range candWorkloads {
		candidate[w.Name] = gate.WorkloadMeasurement{Name: w.Name, P95: w.P95, P99: w.P99}
	}

	telem, err := telemetry.New("fnp-gate-cli")
	if err != nil {
		fmt.Fprintf(stderr, "Error: init telemetry: %v\n", err)
		return 1
	}
	defer telem.Shutdown(context.Background())

	start := time.Now()
	result := gate.RunPerformanceBudgetGate(budgets, reference, candidate, maxP99RegressionRatio, coverageFloor)
	telem.RecordSuite(context.Background(), "perfbudget", len(budgets), len(result.Diagnostics))
	telem.RecordGateDuration(context.Background(), "perfbudget", time.Since(start).Seconds())

	data, err := withRunID(result, "perfbudget", string(result.Status), result.CoverageRatio, 1, historyPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := emitReport(data, outputPath, reportPath, signed, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if result.Status != gate.StatusPass {
		return 2
	}
	return 0
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
