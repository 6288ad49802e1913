package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/securedoc/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3001")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      session token validity, minutes
//	-k string   storage backend ("fs" or "s3")
//	-o string   upload directory (fs backend)
//	-m int      maximum upload size, bytes
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers in minutes and then converted
//     to time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-k", "-o", "-m", "-u", "-p", "-b", "-g", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	sessionTokenValidityDuration := fs.Int("t", int(config.SessionTokenValidityDuration.Minutes()), "session_token_validity_duration (in minutes)")

	fs.StringVar(&config.StorageBackend, "k", config.StorageBackend, "storage backend (fs or s3)")
	fs.StringVar(&config.UploadDir, "o", config.UploadDir, "upload directory for the fs backend")
	fs.Int64Var(&config.MaxUploadBytes, "m", config.MaxUploadBytes, "maximum upload size in bytes")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionTokenValidityDuration = time.Duration(*sessionTokenValidityDuration) * time.Minute
}
