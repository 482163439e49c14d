package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	FlowsPath   string // flow definition files
	ModulesPath string // optional extra definition files

	LogFormat   string
	LogLevel    string
	WorkerCount int

	// APIPort enables the control and health HTTP server when positive.
	APIPort int
	// HistoryDSN selects the run history backend. Empty disables persistence.
	HistoryDSN string
	// EnvFile is an optional dotenv file consulted for secrets after the
	// process environment.
	EnvFile string
}

// NewConfig validates a Config and applies defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.FlowsPath == "" {
		return nil, errors.New("FlowsPath is a required configuration field and cannot be empty")
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 10
	}
	return &cfg, nil
}
