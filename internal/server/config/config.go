// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the syncbox server.
//
// Fields:
//   - EndpointAddr: bind address for the public HTTP endpoint.
//   - MongoURI / MongoDatabase: metadata store connection settings.
//   - MinioEndpoint / MinioAccessKey / MinioSecretKey: credentials for the
//     S3-compatible blob backend. Do not use test defaults in prod.
//   - MinioBucket / MinioUseSSL: object storage settings.
//   - OTLPEndpoint: OTLP/HTTP collector address for trace export; empty
//     disables export.
//   - MaxArchiveSizeMB: upper bound on accepted archive payloads.
//   - ShutdownTimeout: grace period for draining in-flight requests.
type Config struct {
	EndpointAddr     string
	MongoURI         string
	MongoDatabase    string
	MinioEndpoint    string
	MinioAccessKey   string
	MinioSecretKey   string
	MinioBucket      string
	MinioUseSSL      bool
	OTLPEndpoint     string
	MaxArchiveSizeMB int64
	ShutdownTimeout  time.Duration
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.MongoURI = "mongodb://127.0.0.1:27017"
	c.MongoDatabase = "syncbox"
	c.MinioEndpoint = "127.0.0.1:9000"
	c.MinioAccessKey = "admin"
	c.MinioSecretKey = "secretpassword"
	c.MinioBucket = "syncbox"
	c.MinioUseSSL = false
	c.OTLPEndpoint = ""
	c.MaxArchiveSizeMB = 256
	c.ShutdownTimeout = 10 * time.Second
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
