package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "STUDYSHELF_"

// lookupFunc has the signature of os.LookupEnv.
type lookupFunc func(key string) (string, bool)

// envFileLookup returns a lookup that consults the process environment first
// and then the variables declared in the dotenv file at path. A missing file
// is not an error.
func envFileLookup(path string, env lookupFunc) (lookupFunc, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return env, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return func(key string) (string, bool) {
		if v, ok := env(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}, nil
}

// parseEnv overlays every STUDYSHELF_* variable that is set.
func parseEnv(c *Config, lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}

	var errs []error

	dur := func(name string, dst *time.Duration) {
		v, ok := lookup(envPrefix + name)
		if !ok || v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
			return
		}
		*dst = d
	}

	integer := func(name string, dst *int) {
		v, ok := lookup(envPrefix + name)
		if !ok || v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
			return
		}
		*dst = n
	}

	str("HTTP_ADDR", &c.HTTPAddr)
	str("DATABASE_DSN", &c.DatabaseDSN)
	str("SECRET_KEY", &c.SecretKey)
	dur("ACCESS_TOKEN_TTL", &c.AccessTokenValidityDuration)
	dur("REFRESH_TOKEN_TTL", &c.RefreshTokenValidityDuration)
	str("BLOB_BACKEND", &c.BlobBackend)
	str("S3_USER", &c.S3RootUser)
	str("S3_PASSWORD", &c.S3RootPassword)
	str("S3_BUCKET", &c.S3Bucket)
	str("S3_REGION", &c.S3Region)
	str("S3_ENDPOINT", &c.S3BaseEndpoint)
	str("S3_PUBLIC_URL", &c.S3PublicBaseURL)
	integer("CACHE_SIZE", &c.CacheSize)
	dur("CACHE_TTL", &c.CacheTTL)
	dur("REMOTE_CALL_TIMEOUT", &c.RemoteCallTimeout)
	str("COUNTER_STRATEGY", &c.CounterStrategy)
	integer("CAS_RETRY_LIMIT", &c.CASRetryLimit)
	str("TUTORS_FILE", &c.TutorsFile)
	dur("SHUTDOWN_TIMEOUT", &c.ShutdownTimeout)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)

	if v, ok := lookup(envPrefix + "MAX_UPLOAD_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sMAX_UPLOAD_BYTES: %w", envPrefix, err))
		} else {
			c.MaxUploadBytes = n
		}
	}

	return errors.Join(errs...)
}
