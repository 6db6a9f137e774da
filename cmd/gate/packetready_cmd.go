package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/fnproof/kernel/pkg/contract"
)

// runPacketReadyCmd implements `gate packetready` per spec.md §6 / §4.4.
func runPacketReadyCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("packetready", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		phase2cRoot string
		packetID    string
		reportOut   string
	)

	cmd.StringVar(&phase2cRoot, "phase2c-root", "", "Root directory containing phase2c evidence packets (REQUIRED)")
	cmd.StringVar(&packetID, "packet-id", "", "Packet ID to check (REQUIRED)")
	cmd.StringVar(&reportOut, "report-out", "", "Path to write the packet-readiness report JSON (default: stdout)")

	if err := cmd.Parse(args); err != nil {
		return 1
	}

	if phase2cRoot == "" || packetID == "" {
		fmt.Fprintln(stderr, "Error: --phase2c-root and --packet-id are required")
		return 1
	}

	report, err := contract.CheckPacket(phase2cRoot, packetID)
	if err != nil {
		fmt.Fprintf(stderr, "Error: packet check failed: %v\n", err)
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
