package history_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fnproof/kernel/pkg/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_InMemoryMigratesAndRoundTrips(t *testing.T) {
	s, err := history.Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	recordedAt := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Record(ctx, history.Run{
		RunID:         "run-1",
		GateName:      "raptorq",
		Status:        "pass",
		CoverageRatio: 0.97,
		AttemptsRun:   2,
		RecordedAt:    recordedAt,
	}))

	runs, err := s.RecentRuns(ctx, "raptorq", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].RunID)
	assert.Equal(t, "pass", runs[0].Status)
	assert.Equal(t, 0.97, runs[0].CoverageRatio)
	assert.True(t, recordedAt.Equal(runs[0].RecordedAt))
}

func TestNewWithDB_RunsMigrationAgainstMock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS gate_runs")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	s, err := history.NewWithDB(db)
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_InsertsExpectedRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS gate_runs")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	s, err := history.NewWithDB(db)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO gate_runs")).
		WithArgs("run-2", "perf_budget", "fail", 0.8, 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = s.Record(context.Background(), history.Run{
		RunID:         "run-2",
		GateName:      "perf_budget",
		Status:        "fail",
		CoverageRatio: 0.8,
		AttemptsRun:   1,
		RecordedAt:    time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentRuns_OrdersNewestFirst(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS gate_runs")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	s, err := history.NewWithDB(db)
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"run_id", "gate_name", "status", "coverage_ratio", "attempts_run", "recorded_at"}).
		AddRow("run-3", "raptorq", "pass", 1.0, 1, "2026-07-02T00:00:00Z").
		AddRow("run-2", "raptorq", "retrying", 0.5, 3, "2026-07-01T00:00:00Z")

	// The mock returns rows in the order given, so the ordering under test
	// is the query's own ORDER BY clause.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT run_id, gate_name, status, coverage_ratio, attempts_run, recorded_at")+
		`[\s\S]*`+regexp.QuoteMeta("ORDER BY recorded_at DESC")).
		WithArgs("raptorq", 10).
		WillReturnRows(rows)

	runs, err := s.RecentRuns(context.Background(), "raptorq", 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-3", runs[0].RunID)
	assert.Equal(t, "run-2", runs[1].RunID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
