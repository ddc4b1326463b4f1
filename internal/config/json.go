package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/controlsuite/auditfiles/internal/flagx"
	"github.com/controlsuite/auditfiles/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Intervals
// rely on timex.Duration so the file can specify them either as strings
// like "30s" or as integer nanoseconds.
type JsonConfig struct {
	BackendBaseURL      string         `json:"backend_base_url"`
	APIToken            string         `json:"api_token"`
	TokenRefreshURL     string         `json:"token_refresh_url"`
	DatabaseDSN         string         `json:"database_dsn"`
	ReplayInterval      timex.Duration `json:"replay_interval"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	FolderCacheSize     int            `json:"folder_cache_size"`
	CleanupAge          timex.Duration `json:"cleanup_age"`
	StorageBackend      string         `json:"storage_backend"`
	S3Endpoint          string         `json:"s3_endpoint"`
	S3Region            string         `json:"s3_region"`
	S3Bucket            string         `json:"s3_bucket"`
	S3AccessKey         string         `json:"s3_access_key"`
	S3SecretKey         string         `json:"s3_secret_key"`
}

// parseJson overlays cfg with values loaded from the JSON file named by
// the -c/-config flag. Absent file path means no JSON layer. Fields the
// file leaves at their zero value keep the current config value.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.BackendBaseURL != "" {
		cfg.BackendBaseURL = jc.BackendBaseURL
	}
	if jc.APIToken != "" {
		cfg.APIToken = jc.APIToken
	}
	if jc.TokenRefreshURL != "" {
		cfg.TokenRefreshURL = jc.TokenRefreshURL
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.ReplayInterval.Duration != 0 {
		cfg.ReplayInterval = time.Duration(jc.ReplayInterval.Duration)
	}
	if jc.OnlineCheckInterval.Duration != 0 {
		cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval.Duration)
	}
	if jc.FolderCacheSize != 0 {
		cfg.FolderCacheSize = jc.FolderCacheSize
	}
	if jc.CleanupAge.Duration != 0 {
		cfg.CleanupAge = time.Duration(jc.CleanupAge.Duration)
	}
	if jc.StorageBackend != "" {
		cfg.StorageBackend = jc.StorageBackend
	}
	if jc.S3Endpoint != "" {
		cfg.S3Endpoint = jc.S3Endpoint
	}
	if jc.S3Region != "" {
		cfg.S3Region = jc.S3Region
	}
	if jc.S3Bucket != "" {
		cfg.S3Bucket = jc.S3Bucket
	}
	if jc.S3AccessKey != "" {
		cfg.S3AccessKey = jc.S3AccessKey
	}
	if jc.S3SecretKey != "" {
		cfg.S3SecretKey = jc.S3SecretKey
	}
}
