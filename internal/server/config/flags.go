package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/gophdiary/internal/flagx"
)

var serverFlags = []string{
	"-a", "-q", "-m", "-d", "-s", "-t", "-r", "-redis", "-v",
	"-u", "-p", "-b", "-g", "-e", "-l",
}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":3000")
//	-q string   gRPC bind address (e.g., ":50051")
//	-m string   storage backend: postgres | memory
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes (0 = no expiry)
//	-r int      revocation horizon for non-expiring tokens, minutes
//	-redis      Redis address ("" = in-memory revocations and rate limits)
//	-v string   local video directory
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name ("" = store videos locally)
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-l string   log level
//
// Duration flags are integers in minutes.
func parseFlags(config *Config, args []string) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port to run server")
	fs.StringVar(&config.EndpointAddrGRPC, "q", config.EndpointAddrGRPC, "gRPC address and port to run server")
	fs.StringVar(&config.Storage, "m", config.Storage, "storage backend (postgres|memory)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes, 0 = no expiry)")
	revocationHorizon := fs.Int("r", int(config.RevocationHorizon.Minutes()), "revocation_horizon (in minutes)")

	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "Redis address")
	fs.StringVar(&config.VideoDir, "v", config.VideoDir, "local video directory")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args, serverFlags)); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
	config.RevocationHorizon = time.Duration(*revocationHorizon) * time.Minute
}
