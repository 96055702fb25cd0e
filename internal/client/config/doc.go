// Package config loads runtime configuration for the GophDiary CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the diary HTTP API
//	-f string   path of the local SQLite cache
//	-i int      request timeout (seconds)
//
// # JSON schema
//
// Timeouts accept strings like "15s" or integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:3000",
//	  "cache_path": "gophdiary.db",
//	  "request_timeout": "15s"
//	}
package config
