package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/studyshelf/internal/flagx"
	"github.com/dmitrijs2005/studyshelf/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Durations accept
// either "10s" style strings or integer nanoseconds. Zero values leave the
// current setting untouched.
type JsonConfig struct {
	HTTPAddr                     string         `json:"http_addr"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	BlobBackend                  string         `json:"blob_backend"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	S3PublicBaseURL              string         `json:"s3_public_base_url"`
	CacheSize                    int            `json:"cache_size"`
	CacheTTL                     timex.Duration `json:"cache_ttl"`
	RemoteCallTimeout            timex.Duration `json:"remote_call_timeout"`
	CounterStrategy              string         `json:"counter_strategy"`
	CASRetryLimit                int            `json:"cas_retry_limit"`
	MaxUploadBytes               int64          `json:"max_upload_bytes"`
	TutorsFile                   string         `json:"tutors_file"`
	ShutdownTimeout              timex.Duration `json:"shutdown_timeout"`
	LogLevel                     string         `json:"log_level"`
	LogFormat                    string         `json:"log_format"`
}

// parseJson overlays the JSON file named by -c/-config in args, if any.
func parseJson(c *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var j JsonConfig
	if err := json.Unmarshal(data, &j); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	j.apply(c)
	return nil
}

func (j *JsonConfig) apply(c *Config) {
	setString(&c.HTTPAddr, j.HTTPAddr)
	setString(&c.DatabaseDSN, j.DatabaseDSN)
	setString(&c.SecretKey, j.SecretKey)
	setDuration(&c.AccessTokenValidityDuration, j.AccessTokenValidityDuration)
	setDuration(&c.RefreshTokenValidityDuration, j.RefreshTokenValidityDuration)
	setString(&c.BlobBackend, j.BlobBackend)
	setString(&c.S3RootUser, j.S3RootUser)
	setString(&c.S3RootPassword, j.S3RootPassword)
	setString(&c.S3Bucket, j.S3Bucket)
	setString(&c.S3Region, j.S3Region)
	setString(&c.S3BaseEndpoint, j.S3BaseEndpoint)
	setString(&c.S3PublicBaseURL, j.S3PublicBaseURL)
	if j.CacheSize > 0 {
		c.CacheSize = j.CacheSize
	}
	setDuration(&c.CacheTTL, j.CacheTTL)
	setDuration(&c.RemoteCallTimeout, j.RemoteCallTimeout)
	setString(&c.CounterStrategy, j.CounterStrategy)
	if j.CASRetryLimit > 0 {
		c.CASRetryLimit = j.CASRetryLimit
	}
	if j.MaxUploadBytes > 0 {
		c.MaxUploadBytes = j.MaxUploadBytes
	}
	setString(&c.TutorsFile, j.TutorsFile)
	setDuration(&c.ShutdownTimeout, j.ShutdownTimeout)
	setString(&c.LogLevel, j.LogLevel)
	setString(&c.LogFormat, j.LogFormat)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
