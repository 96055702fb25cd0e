package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophdiary/internal/flagx"
	"github.com/dmitrijs2005/gophdiary/internal/timex"
)

// JsonConfig is the on-disk shape of the server configuration. Pointer
// fields distinguish "absent" from zero values, so only keys present in
// the file override defaults.
type JsonConfig struct {
	EndpointAddrHTTP            string          `json:"endpoint_addr_http"`
	EndpointAddrGRPC            string          `json:"endpoint_addr_grpc"`
	Storage                     string          `json:"storage"`
	DatabaseDSN                 string          `json:"database_dsn"`
	SecretKey                   string          `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	RevocationHorizon           *timex.Duration `json:"revocation_horizon"`
	RedisAddr                   string          `json:"redis_addr"`
	RedisPassword               string          `json:"redis_password"`
	RedisDB                     *int            `json:"redis_db"`
	VideoDir                    string          `json:"video_dir"`
	S3RootUser                  string          `json:"s3_root_user"`
	S3RootPassword              string          `json:"s3_root_password"`
	S3Bucket                    string          `json:"s3_bucket"`
	S3Region                    string          `json:"s3_region"`
	S3BaseEndpoint              string          `json:"s3_base_endpoint"`
	BcryptCost                  *int            `json:"bcrypt_cost"`
	LogLevel                    string          `json:"log_level"`
}

// parseJson overlays the JSON file named by -c/-config onto config.
// Without the flag nothing happens; an unreadable or invalid file panics.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.Storage, c.Storage)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RevocationHorizon != nil {
		config.RevocationHorizon = c.RevocationHorizon.Duration
	}
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	if c.RedisDB != nil {
		config.RedisDB = *c.RedisDB
	}
	setString(&config.VideoDir, c.VideoDir)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
