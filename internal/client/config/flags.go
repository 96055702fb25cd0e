package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/gophdiary/internal/flagx"
)

// parseFlags populates Config fields from -a, -f and -i; other arguments are
// filtered out with flagx.FilterArgs.
func parseFlags(cfg *Config, args []string) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the diary API")
	fs.StringVar(&cfg.CachePath, "f", cfg.CachePath, "local cache file")
	timeout := fs.Int("i", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(flagx.FilterArgs(args, []string{"-a", "-f", "-i"})); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}
