package config

import (
	"encoding/json"
	"os"

	"github.com/dbelovs/syncbox/internal/flagx"
	"github.com/dbelovs/syncbox/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "10s" and integer nanoseconds.
//
// This struct is an intermediate DTO (Data Transfer Object) used only for
// reading JSON configuration files. After unmarshalling, its fields are
// copied into the runtime Config struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddr     string         `json:"endpoint_addr"`
	MongoURI         string         `json:"mongo_uri"`
	MongoDatabase    string         `json:"mongo_database"`
	MinioEndpoint    string         `json:"minio_endpoint"`
	MinioAccessKey   string         `json:"minio_access_key"`
	MinioSecretKey   string         `json:"minio_secret_key"`
	MinioBucket      string         `json:"minio_bucket"`
	MinioUseSSL      bool           `json:"minio_use_ssl"`
	OTLPEndpoint     string         `json:"otlp_endpoint"`
	MaxArchiveSizeMB int64          `json:"max_archive_size_mb"`
	ShutdownTimeout  timex.Duration `json:"shutdown_timeout"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The lookup order for the JSON file path is:
//
//	The -c or -config command-line flags.
//	If it is not set, no JSON file is loaded.
//
// If the file path is found, parseJson attempts to read and unmarshal it
// into a JsonConfig. The resulting values are copied into the target Config.
// If the file cannot be read or contains invalid JSON, the function panics.
//
// The caller is expected to merge these values with defaults and
// command-line flags as part of the full configuration process.
func parseJson(config *Config) {

	// try flags
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

	config.EndpointAddr = c.EndpointAddr
	config.MongoURI = c.MongoURI
	config.MongoDatabase = c.MongoDatabase
	config.MinioEndpoint = c.MinioEndpoint
	config.MinioAccessKey = c.MinioAccessKey
	config.MinioSecretKey = c.MinioSecretKey
	config.MinioBucket = c.MinioBucket
	config.MinioUseSSL = c.MinioUseSSL
	config.OTLPEndpoint = c.OTLPEndpoint
	config.MaxArchiveSizeMB = c.MaxArchiveSizeMB
	config.ShutdownTimeout = c.ShutdownTimeout.Std()
}
