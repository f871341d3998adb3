package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from environment variables. A .env file in
// the working directory is loaded first if present; real environment
// variables win over it. Unset or malformed values leave the current value
// in place.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	if v, ok := os.LookupEnv("HTTP_ADDRESS"); ok {
		config.EndpointAddrHTTP = v
	}
	if v, ok := os.LookupEnv("DATABASE_DSN"); ok {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv("JWT_SECRET_KEY"); ok {
		config.JWTSecretKey = v
	}
	if v, ok := os.LookupEnv("JWT_ISSUER"); ok {
		config.JWTIssuer = v
	}
	if v, ok := os.LookupEnv("JWT_AUDIENCE"); ok {
		config.JWTAudience = v
	}
	if v, ok := os.LookupEnv("ACCESS_TOKEN_VALIDITY_MINUTES"); ok {
		if minutes, err := strconv.Atoi(v); err == nil {
			config.AccessTokenValidityDuration = time.Duration(minutes) * time.Minute
		}
	}
	if v, ok := os.LookupEnv("S3_ROOT_USER"); ok {
		config.S3RootUser = v
	}
	if v, ok := os.LookupEnv("S3_ROOT_PASSWORD"); ok {
		config.S3RootPassword = v
	}
	if v, ok := os.LookupEnv("S3_BUCKET"); ok {
		config.S3Bucket = v
	}
	if v, ok := os.LookupEnv("S3_REGION"); ok {
		config.S3Region = v
	}
	if v, ok := os.LookupEnv("S3_BASE_ENDPOINT"); ok {
		config.S3BaseEndpoint = v
	}
}
