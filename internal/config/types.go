package config

// Config is the whole bot configuration. JSON is canonical; YAML configs are
// coerced to JSON before strict decoding, so both formats share one schema.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "2m").
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`
	Poller   PollerConfig   `json:"poller"`
	Reddit   RedditConfig   `json:"reddit,omitempty"`
	Dispatch DispatchConfig `json:"dispatch,omitempty"`
	Storage  StorageConfig  `json:"storage"`
}

type TelegramConfig struct {
	Token string `json:"token"`

	// PollTimeout is the long-poll timeout (default "10s").
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level string `json:"level,omitempty"` // trace|debug|info|warn|error

	// Console is a pointer so "omitted" defaults to true while an explicit
	// false still turns the console sink off.
	Console *bool         `json:"console,omitempty"`
	File    LogFileConfig `json:"file,omitempty"`
}

type LogFileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// PollerConfig controls the fetch cycle.
//
// Enabled is a pointer so an omitted field defaults to true.
type PollerConfig struct {
	Enabled    *bool  `json:"enabled,omitempty"`
	Schedule   string `json:"schedule,omitempty"`    // cron spec or duration; default "@every 2m"
	FetchLimit int    `json:"fetch_limit,omitempty"` // newest posts per subreddit per cycle
}

type RedditConfig struct {
	BaseURL    string `json:"base_url,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
	Timeout    string `json:"timeout,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
	RetryMax   int    `json:"retry_max,omitempty"`
}

type DispatchConfig struct {
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

// StorageConfig controls snapshot persistence.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./subwatch.json" }
type StorageConfig struct {
	Driver      string `json:"driver,omitempty"` // "file" (default) or "sqlite"
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
}

func (c *LoggingConfig) ConsoleEnabled() bool {
	return c.Console == nil || *c.Console
}

func (c *PollerConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}
