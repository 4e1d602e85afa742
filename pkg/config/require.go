package config

import "log"

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}

// Validate stops the process when a secret the server cannot start without is missing.
func (c Config) Validate() {
	MustNonEmptyBytes(c.JWTAccessSecret, "JWT_SECRET")
	MustNonEmptyBytes(c.JWTRefreshSecret, "JWT_REFRESH_SECRET")
	if c.DBDriver != "sqlite" {
		MustNonEmpty(c.DatabaseURL, "DATABASE_URL")
	}
	if c.Storage.Driver == "s3" {
		MustNonEmpty(c.Storage.S3Bucket, "S3_BUCKET")
	}
}
