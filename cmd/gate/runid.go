package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fnproof/kernel/pkg/history"
	"github.com/google/uuid"
)

// withRunID re-marshals v with a generated run_id field merged in, and, if
// historyPath is non-empty, records the run to the local SQLite history
// cache (pkg/history). Every gate CLI invocation gets a unique run
// identifier the same way the teacher stamps every receipt/artifact/audit
// entry with uuid.New().String().
func withRunID(v any, gateName, status string, coverageRatio float64, attemptsRun int, historyPath string) ([]byte, error) {
	runID := uuid.New().String()

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal gate summary: %w", err)
	}
	var merged map[string]any
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, fmt.Errorf("unmarshal gate summary: %w", err)
	}
	merged["run_id"] = runID

	out, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal gate summary with run_id: %w", err)
	}

	if historyPath != "" {
		store, err := history.Open(historyPath)
		if err != nil {
			return nil, fmt.Errorf("open history cache: %w", err)
		}
		defer store.Close()

		if err := store.Record(context.Background(), history.Run{
			RunID:         runID,
			GateName:      gateName,
			Status:        status,
			CoverageRatio: coverageRatio,
			AttemptsRun:   attemptsRun,
			RecordedAt:    time.Now(),
		}); err != nil {
			return nil, fmt.Errorf("record gate run history: %w", err)
		}
	}

	return out, nil
}
