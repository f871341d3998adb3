package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/onoff/todo-api/internal/flagx"
	"github.com/onoff/todo-api/internal/timex"
)

// JsonConfig mirrors Config for JSON unmarshalling. It uses timex.Duration
// for interval fields, which allows both string values such as "15m" and
// integer nanoseconds. After unmarshalling, its fields are copied into the
// runtime Config.
type JsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	DatabaseDSN                 string         `json:"database_dsn"`
	JWTSecretKey                string         `json:"jwt_secret_key"`
	JWTIssuer                   string         `json:"jwt_issuer"`
	JWTAudience                 string         `json:"jwt_audience"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from the JSON file named by the -c or
// -config flags into the provided Config. If no flag is set, nothing is
// loaded. If the file cannot be read or contains invalid JSON, the function
// panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.DatabaseDSN = c.DatabaseDSN
	config.JWTSecretKey = c.JWTSecretKey
	config.JWTIssuer = c.JWTIssuer
	config.JWTAudience = c.JWTAudience
	config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
}
