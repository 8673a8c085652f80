package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, c.EndpointAddr, ":8080")
	assert.Equal(t, c.MongoURI, "mongodb://127.0.0.1:27017")
	assert.Equal(t, c.MongoDatabase, "syncbox")
	assert.Equal(t, c.MinioEndpoint, "127.0.0.1:9000")
	assert.Equal(t, c.MinioAccessKey, "admin")
	assert.Equal(t, c.MinioSecretKey, "secretpassword")
	assert.Equal(t, c.MinioBucket, "syncbox")
	assert.False(t, c.MinioUseSSL)
	assert.Empty(t, c.OTLPEndpoint)
	assert.Equal(t, c.MaxArchiveSizeMB, int64(256))
	assert.Equal(t, c.ShutdownTimeout, 10*time.Second)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	c := LoadConfig()

	require.NotNil(t, c, "LoadConfig must not return nil")

	assert.Equal(t, c.EndpointAddr, ":8080")
	assert.Equal(t, c.MongoURI, "mongodb://127.0.0.1:27017")
	assert.Equal(t, c.MongoDatabase, "syncbox")
	assert.Equal(t, c.MinioBucket, "syncbox")
	assert.Equal(t, c.MaxArchiveSizeMB, int64(256))
	assert.Equal(t, c.ShutdownTimeout, 10*time.Second)
}
