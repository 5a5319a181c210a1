package config

const (
	defaultAPIBaseURL          = "http://localhost:8000"
	defaultAPITimeoutSeconds   = 30
	defaultPollIntervalSeconds = 3
	defaultMaxPolls            = 100
	defaultWatchRefreshSeconds = 30
	defaultHistoryDir          = "~/.local/share/simwatch"
	defaultLogDir              = "~/.local/share/simwatch/logs"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultNotifyTimeout       = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		API: API{
			BaseURL:        defaultAPIBaseURL,
			TimeoutSeconds: defaultAPITimeoutSeconds,
		},
		Analysis: Analysis{
			PollIntervalSeconds: defaultPollIntervalSeconds,
			MaxPolls:            defaultMaxPolls,
		},
		Watch: Watch{
			RefreshIntervalSeconds: defaultWatchRefreshSeconds,
		},
		History: History{
			Enabled: true,
			Dir:     defaultHistoryDir,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Activation:     true,
			Analysis:       true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			Dir:    defaultLogDir,
		},
	}
}
