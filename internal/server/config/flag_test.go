package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseFlags_Overrides(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"server",
		"-a", ":9090",
		"-d", "postgres://u:p@h:5432/db",
		"-s", "topsecret",
		"-t", "60",
		"-w", "30",
		"-m", "1048576",
		"-u", "minio",
		"-p", "miniopass",
		"-b", "shares",
		"-g", "eu-west-1",
		"-e", "http://minio:9000/",
	}

	var c Config
	c.LoadDefaults()
	parseFlags(&c)

	assert.Equal(t, ":9090", c.EndpointAddrHTTP)
	assert.Equal(t, "postgres://u:p@h:5432/db", c.DatabaseDSN)
	assert.Equal(t, "topsecret", c.CleanupSecret)
	assert.Equal(t, 60*time.Minute, c.SessionTTL)
	assert.Equal(t, 30*time.Minute, c.SweepInterval)
	assert.Equal(t, int64(1048576), c.MaxTotalSizeBytes)
	assert.Equal(t, "minio", c.S3RootUser)
	assert.Equal(t, "miniopass", c.S3RootPassword)
	assert.Equal(t, "shares", c.S3Bucket)
	assert.Equal(t, "eu-west-1", c.S3Region)
	assert.Equal(t, "http://minio:9000/", c.S3BaseEndpoint)
}

func TestParseFlags_KeepsDefaultsWithoutFlags(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"server"}

	var c Config
	c.LoadDefaults()
	parseFlags(&c)

	assert.Equal(t, ":8080", c.EndpointAddrHTTP)
	assert.Equal(t, 24*time.Hour, c.SessionTTL)
}
