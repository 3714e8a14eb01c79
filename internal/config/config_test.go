package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func cleanupEnv() {
	for _, k := range []string{
		"APP_ENV", "HTTP_ADDR", "DATABASE_URL", "RABBIT_URL", "RABBIT_EXCHANGE",
		"JWT_SECRET", "STARTER_LOCATION_ID",
	} {
		os.Unsetenv(k)
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	cleanupEnv()
	defer cleanupEnv()

	cfg, err := Load()
	assert.Nil(t, cfg)
	assert.ErrorContains(t, err, "missing DATABASE_URL")
}

func TestLoad_MissingRabbitURLOutsideDev(t *testing.T) {
	cleanupEnv()
	defer cleanupEnv()

	os.Setenv("DATABASE_URL", "postgres://localhost:5432/db")
	os.Setenv("APP_ENV", "prod")
	os.Setenv("JWT_SECRET", "s3cr3t")

	cfg, err := Load()
	assert.Nil(t, cfg)
	assert.ErrorContains(t, err, "missing RABBIT_URL")
}

func TestLoad_DevDefaults(t *testing.T) {
	cleanupEnv()
	defer cleanupEnv()

	os.Setenv("DATABASE_URL", "postgres://localhost:5432/db")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, ":8090", cfg.HTTPAddr)
	assert.NotEmpty(t, cfg.StarterLocationID)
}
