package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/studyshelf/internal/flagx"
)

var serverFlags = []string{
	"-a", "-d", "-s", "-t", "-r", "-u", "-p", "-b", "-g", "-e", "-pub",
	"-blob", "-counter", "-cas-retries", "-timeout", "-tutors", "-log-level", "-log-format",
}

// parseFlags overlays the server flags found in args:
//
//	-a string          HTTP bind address (":8080")
//	-d string          PostgreSQL DSN
//	-s string          JWT HMAC secret
//	-t int             access token validity, minutes
//	-r int             refresh token validity, minutes
//	-u, -p string      S3 credentials
//	-b, -g, -e string  S3 bucket, region, endpoint
//	-pub string        public base URL for stored PDFs
//	-blob string       blob backend (s3|memory)
//	-counter string    download counter strategy (read-modify-write|atomic|cas)
//	-cas-retries int   retry limit for the cas strategy
//	-timeout duration  per remote call timeout
//	-tutors string     tutors JSON file
//	-log-level, -log-format string
func parseFlags(c *Config, args []string) error {
	fs := flag.NewFlagSet("studyshelf", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&c.HTTPAddr, "a", c.HTTPAddr, "address and port to run server")
	fs.StringVar(&c.DatabaseDSN, "d", c.DatabaseDSN, "database DSN")
	fs.StringVar(&c.SecretKey, "s", c.SecretKey, "secret key")

	access := fs.Int("t", int(c.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refresh := fs.Int("r", int(c.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")

	fs.StringVar(&c.S3RootUser, "u", c.S3RootUser, "S3 root user")
	fs.StringVar(&c.S3RootPassword, "p", c.S3RootPassword, "S3 root password")
	fs.StringVar(&c.S3Bucket, "b", c.S3Bucket, "S3 bucket")
	fs.StringVar(&c.S3Region, "g", c.S3Region, "S3 region")
	fs.StringVar(&c.S3BaseEndpoint, "e", c.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&c.S3PublicBaseURL, "pub", c.S3PublicBaseURL, "public base URL of stored files")
	fs.StringVar(&c.BlobBackend, "blob", c.BlobBackend, "blob backend (s3|memory)")
	fs.StringVar(&c.CounterStrategy, "counter", c.CounterStrategy, "download counter strategy")
	fs.IntVar(&c.CASRetryLimit, "cas-retries", c.CASRetryLimit, "retry limit for the cas counter strategy")
	fs.DurationVar(&c.RemoteCallTimeout, "timeout", c.RemoteCallTimeout, "timeout of a single remote call")
	fs.StringVar(&c.TutorsFile, "tutors", c.TutorsFile, "tutors JSON file")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log format (json|text)")

	if err := fs.Parse(flagx.FilterArgs(args, serverFlags)); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			c.AccessTokenValidityDuration = time.Duration(*access) * time.Minute
		case "r":
			c.RefreshTokenValidityDuration = time.Duration(*refresh) * time.Minute
		}
	})
	return nil
}
