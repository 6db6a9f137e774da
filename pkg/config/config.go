// Package config loads process configuration from the environment,
// following the FNP_* variable contract in spec.md §6.
package config

import "os"

// Config holds the environment-derived configuration for a suite/gate run.
type Config struct {
	FixtureRoot           string
	ContractRoot          string
	RuntimePolicyLogPath  string
	ShapeStrideLogPath    string
	DtypePromotionLogPath string
}

// Load reads configuration from environment variables, applying the
// defaults documented in spec.md §6. Programmatic setters (e.g.
// (*ledger.LogSink).SetPath) always take precedence over these values — Load
// only supplies the fallback a suite driver consults when no
// programmatic setter has run.
func Load() *Config {
	fixtureRoot := os.Getenv("FNP_FIXTURE_ROOT")
	if fixtureRoot == "" {
		fixtureRoot = "fixtures"
	}

	contractRoot := os.Getenv("FNP_CONTRACT_ROOT")
	if contractRoot == "" {
		contractRoot = "contracts"
	}

	return &Config{
		FixtureRoot:           fixtureRoot,
		ContractRoot:          contractRoot,
		RuntimePolicyLogPath:  os.Getenv("FNP_RUNTIME_POLICY_LOG_PATH"),
		ShapeStrideLogPath:    os.Getenv("FNP_SHAPE_STRIDE_LOG_PATH"),
		DtypePromotionLogPath: os.Getenv("FNP_DTYPE_PROMOTION_LOG_PATH"),
	}
}
