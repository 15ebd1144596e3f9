package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8000,
			MaxRequestSize: 1 << 20,
			AllowedOrigins: []string{"http://localhost:3000", "chrome-extension://*"},
		},
		Storage: StorageConfig{
			Path:       "~/.config/footprint",
			SQLiteFile: "footprint.db",
		},
		Models: ModelsConfig{
			Backend:      "stub",
			BaseURL:      "",
			LoadOnStart:  true,
			RetrySeconds: 30,
		},
		Dashboard: DashboardConfig{
			DefaultUserID:     "local",
			UseMachineLabels:  true,
			LabelBatchSize:    100,
			RecentDomainLimit: 1000,
		},
		Retention: RetentionConfig{
			Days:               90,
			PruneIntervalHours: 24,
		},
		Capture: CaptureConfig{
			UseDefaultDenylist: true,
			DenylistDomains:    []string{},
			DenylistRegex:      []string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			File:   "",
		},
	}
}
