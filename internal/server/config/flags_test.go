package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseFlags(t *testing.T) {
	var got Config
	got.LoadDefaults()

	err := parseFlags(&got, []string{
		"-a", "127.0.0.1:9090", "-d", "db", "-s", "secret",
		"-t", "1", "-r", "3", "-u", "user", "-p", "password",
		"-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
		"-pub", "https://files", "-counter", "cas", "-cas-retries", "2",
		"-timeout", "500ms", "-tutors", "/etc/tutors.json",
		"-log-level", "debug", "-log-format", "text",
		"-unrelated", "value",
	})
	require.NoError(t, err)

	want := Config{}
	want.LoadDefaults()
	want.HTTPAddr = "127.0.0.1:9090"
	want.DatabaseDSN = "db"
	want.SecretKey = "secret"
	want.AccessTokenValidityDuration = time.Minute
	want.RefreshTokenValidityDuration = 3 * time.Minute
	want.S3RootUser = "user"
	want.S3RootPassword = "password"
	want.S3Bucket = "bucket"
	want.S3Region = "us-west-1"
	want.S3BaseEndpoint = "http://endpoint"
	want.S3PublicBaseURL = "https://files"
	want.CounterStrategy = CounterCompareAndSwap
	want.CASRetryLimit = 2
	want.RemoteCallTimeout = 500 * time.Millisecond
	want.TutorsFile = "/etc/tutors.json"
	want.LogLevel = "debug"
	want.LogFormat = "text"

	assert.Empty(t, cmp.Diff(want, got))
}

func Test_parseFlags_KeepsSubMinuteDurationsWhenUnset(t *testing.T) {
	var c Config
	c.LoadDefaults()
	c.AccessTokenValidityDuration = 90 * time.Second

	require.NoError(t, parseFlags(&c, []string{"-a", ":1"}))
	assert.Equal(t, 90*time.Second, c.AccessTokenValidityDuration)
}

func Test_parseFlags_BadValue(t *testing.T) {
	var c Config
	c.LoadDefaults()
	assert.Error(t, parseFlags(&c, []string{"-t", "soon"}))
}
