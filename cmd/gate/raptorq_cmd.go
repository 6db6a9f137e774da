package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fnproof/kernel/pkg/attest"
	"github.com/fnproof/kernel/pkg/canonicalize"
	"github.com/fnproof/kernel/pkg/cgo"
	"github.com/fnproof/kernel/pkg/config"
	"github.com/fnproof/kernel/pkg/gate"
	"github.com/fnproof/kernel/pkg/ledger"
	"github.com/fnproof/kernel/pkg/telemetry"
)

// runRaptorQCmd implements `gate raptorq` per spec.md §6 / §4.3.
//
// --suite selects which cgo suite driver each attempt re-runs. Suites that
// need a caller-supplied operation (differential, adversarial, crash
// signature) aren't addressable from the CLI and are left to programmatic
// callers; this surface covers the self-contained suites.
func runRaptorQCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("raptorq", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		fixtureRoot   string
		relPath       string
		suite         string
		retries       int
		flakeBudget   int
		coverageFloor float64
		logPath       string
		outputPath    string
		reportPath    string
		historyPath   string
		signed        bool
	)

	cmd.StringVar(&fixtureRoot, "fixture-root", "", "Fixture root directory (default: $FNP_FIXTURE_ROOT, else \"fixtures\")")
	cmd.StringVar(&relPath, "fixture-path", "", "Fixture file path relative to fixture-root (REQUIRED)")
	cmd.StringVar(&suite, "suite", "", "Suite to run: shape_stride|dtype|metamorphic|runtime_policy|runtime_policy_adversarial (REQUIRED)")
	cmd.IntVar(&retries, "retries", 0, "Retry budget (attempts run = retries+1)")
	cmd.IntVar(&flakeBudget, "flake-budget", 0, "Maximum tolerated flaky failures before passing attempt")
	cmd.Float64Var(&coverageFloor, "coverage-floor", 0, "Minimum required coverage ratio")
	cmd.StringVar(&logPath, "log-path", "", "Override the suite's decision-ledger JSONL sink path")
	cmd.StringVar(&outputPath, "output-path", "", "Path to write the gate summary JSON (default: stdout)")
	cmd.StringVar(&reportPath, "report-path", "", "Path to write a signed attestation artifact (requires --signed)")
	cmd.StringVar(&historyPath, "history-path", "", "Path to a local SQLite run-history cache to append this run to")
	cmd.BoolVar(&signed, "signed", false, "Emit an ed25519-signed attestation of the gate summary")

	if err := cmd.Parse(args); err != nil {
		return 1
	}

	cfg := config.Load()
	if fixtureRoot == "" {
		fixtureRoot = cfg.FixtureRoot
	}

	if fixtureRoot == "" || relPath == "" || suite == "" {
		fmt.Fprintln(stderr, "Error: --fixture-root, --fixture-path, and --suite are required")
		return 1
	}

	envVar, cfgLogPath := "FNP_RUNTIME_POLICY_LOG_PATH", cfg.RuntimePolicyLogPath
	if suite == "shape_stride" {
		envVar, cfgLogPath = "FNP_SHAPE_STRIDE_LOG_PATH", cfg.ShapeStrideLogPath
	}
	sink := ledger.NewLogSink(envVar)
	switch {
	case logPath != "":
		sink.SetPath(logPath)
	case cfgLogPath != "":
		sink.SetPath(cfgLogPath)
	}
	l := ledger.New(sink)

	telem, err := telemetry.New("fnp-gate-cli")
	if err != nil {
		fmt.Fprintf(stderr, "Error: init telemetry: %v\n", err)
		return 1
	}
	defer telem.Shutdown(context.Background())

	attempt := func(ctx context.Context, attemptNum int) (cgo.SuiteReport, error) {
		ctx, span := telem.StartSpan(ctx, "raptorq."+suite)
		defer span.End()

		var report cgo.SuiteReport
		var runErr error
		switch suite {
		case "shape_stride":
			report, runErr = cgo.RunShapeStrideSuite(fixtureRoot, relPath, l)
		case "dtype":
			report, runErr = cgo.RunDtypePromotionSuite(fixtureRoot, relPath)
		case "metamorphic":
			report, runErr = cgo.RunMetamorphicSuite(fixtureRoot, relPath)
		case "runtime_policy":
			report, runErr = cgo.RunRuntimePolicySuite(fixtureRoot, relPath, l)
		case "runtime_policy_adversarial":
			report, runErr = cgo.RunRuntimePolicyAdversarialSuite(fixtureRoot, relPath, l)
		default:
			return cgo.SuiteReport{}, fmt.Errorf("unknown suite %q", suite)
		}
		if runErr == nil {
			telem.RecordSuite(ctx, suite, report.CaseCount, len(report.Failures))
		}
		return report, runErr
	}

	start := time.Now()
	g := gate.NewRaptorQGate(retries, flakeBudget, coverageFloor, attempt)
	summary, err := g.Run(context.Background())
	telem.RecordGateDuration(context.Background(), "raptorq_"+suite, time.Since(start).Seconds())
	if err != nil {
		fmt.Fprintf(stderr, "Error: gate run failed: %v\n", err)
		return 1
	}

	data, err := withRunID(summary, "raptorq_"+suite, string(summary.Status), summary.Reliability.CoverageRatio, summary.Reliability.AttemptsRun, historyPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := emitReport(data, outputPath, reportPath, signed, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if summary.Status != gate.StatusPass {
		return 2
	}
	return 0
}

// writeGateSummary renders v as pretty JSON to outputPath (or stdout when
// empty), and, if signed, writes a detached ed25519 attestation of the
// canonical digest to reportPath.
func writeGateSummary(v any, outputPath, reportPath string, signed bool, stdout, stderr io.Writer) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal gate summary: %w", err)
	}
	return emitReport(data, outputPath, reportPath, signed, stdout, stderr)
}

// emitReport writes an already-marshaled report to outputPath (or stdout
// when empty), and, if signed, writes a detached ed25519 attestation of the
// canonical digest to reportPath.
func emitReport(data []byte, outputPath, reportPath string, signed bool, stdout, stderr io.Writer) error {
	if outputPath == "" {
		fmt.Fprintln(stdout, string(data))
	} else if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("write gate summary: %w", err)
	}

	if signed {
		pub, priv, err := attest.GenerateKeyPair()
		if err != nil {
			return fmt.Errorf("generate attestation key: %w", err)
		}
		canonical, err := canonicalize.JCS(json.RawMessage(data))
		if err != nil {
			return fmt.Errorf("canonicalize gate summary: %w", err)
		}
		digest := attest.Digest(canonical)
		sig := attest.Sign(digest, "fnp-gate-cli", priv)
		sigData, err := json.MarshalIndent(struct {
			Signature attest.DetachedSignature `json:"signature"`
			PublicKey string                   `json:"public_key_hex"`
		}{Signature: sig, PublicKey: fmt.Sprintf("%x", pub)}, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal attestation: %w", err)
		}
		if reportPath == "" {
			fmt.Fprintln(stdout, string(sigData))
		} else if err := os.WriteFile(reportPath, sigData, 0644); err != nil {
			return fmt.Errorf("write attestation: %w", err)
		}
	}

	return nil
}
