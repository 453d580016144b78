package filestore

import (
	"strings"

	"github.com/koustreak/querykit/internal/errs"
)

// Provider identifies the object storage backend.
type Provider string

const (
	ProviderMinIO Provider = "minio"
)

// Config holds all settings needed to reach the storage backend that query
// results are uploaded to.
type Config struct {
	// Provider is the storage backend (e.g. ProviderMinIO).
	Provider Provider

	// Endpoint is the host:port of the storage server.
	// Example: "localhost:9000" for local MinIO.
	Endpoint string

	// AccessKey is the access key ID (MinIO / S3 style).
	AccessKey string

	// SecretKey is the secret access key.
	SecretKey string

	// UseSSL controls whether TLS is used for the connection.
	UseSSL bool

	// Region is used by region-aware backends. Leave empty for MinIO.
	Region string

	// DefaultBucket is used when an upload names no bucket.
	DefaultBucket string
}

// DefaultConfig returns a local-dev config for MinIO.
func DefaultConfig(endpoint, accessKey, secretKey string) *Config {
	return &Config{
		Provider:  ProviderMinIO,
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		UseSSL:    false,
	}
}

// Validate checks that the config can be used to build a client.
func (c *Config) Validate() error {
	if c.Provider != "" && c.Provider != ProviderMinIO {
		return errs.New(errs.ErrKindInvalidInput, "unsupported storage provider "+string(c.Provider))
	}
	if strings.TrimSpace(c.Endpoint) == "" {
		return errs.New(errs.ErrKindInvalidInput, "storage endpoint is empty")
	}
	if c.AccessKey == "" || c.SecretKey == "" {
		return errs.New(errs.ErrKindInvalidInput, "storage access key and secret key are required")
	}
	return nil
}

// Bucket returns bucket, or DefaultBucket when bucket is empty.
func (c *Config) Bucket(bucket string) (string, error) {
	if bucket != "" {
		return bucket, nil
	}
	if c.DefaultBucket != "" {
		return c.DefaultBucket, nil
	}
	return "", errs.New(errs.ErrKindInvalidInput, "no bucket given and no default bucket configured")
}
