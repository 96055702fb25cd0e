package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophdiary/internal/flagx"
	"github.com/dmitrijs2005/gophdiary/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	ServerURL      string          `json:"server_url"`
	CachePath      string          `json:"cache_path"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
}

// parseJson overlays cfg with the JSON file named by -c/-config. It panics
// on read or unmarshal errors.
func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.CachePath != "" {
		cfg.CachePath = jc.CachePath
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
}
