package config

import "time"

// Storage backend selection values.
const (
	BackendControlFile = "controlfile"
	BackendS3          = "s3"
)

// Config holds runtime settings for the sync agent.
type Config struct {
	// BackendBaseURL is the ControlFile backend endpoint.
	BackendBaseURL string
	// APIToken authenticates backend requests when no refresh endpoint
	// is configured.
	APIToken string
	// TokenRefreshURL, when set, is the endpoint that issues short-lived
	// bearer tokens; the agent then refreshes them as they expire instead
	// of using the static APIToken.
	TokenRefreshURL string
	// DatabaseDSN points at the local staging database.
	DatabaseDSN string
	// ReplayInterval is how often the queue consumer wakes up.
	ReplayInterval time.Duration
	// OnlineCheckInterval is how often the agent probes backend reachability.
	OnlineCheckInterval time.Duration
	// FolderCacheSize bounds the folder resolution cache.
	FolderCacheSize int
	// CleanupAge is how long staged records survive before being purged.
	CleanupAge time.Duration
	// StorageBackend selects where binaries go: "controlfile" or "s3".
	StorageBackend string

	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BackendBaseURL = "https://controlfile.onrender.com"
	c.DatabaseDSN = "staging.db"
	c.ReplayInterval = 30 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
	c.FolderCacheSize = 100
	c.CleanupAge = 168 * time.Hour
	c.StorageBackend = BackendControlFile
	c.S3Region = "us-east-1"
	c.S3Bucket = "audit-files"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
