package http

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alijeyrad/internhub_backend/config"
)

func TestBodyLimit(t *testing.T) {
	cfg := &config.Config{}
	cfg.Upload.MaxSizeMB = 10

	cfg.Server.BodyLimitMB = 0
	assert.Equal(t, 12<<20, bodyLimit(cfg))

	cfg.Server.BodyLimitMB = 4
	assert.Equal(t, 12<<20, bodyLimit(cfg))

	cfg.Server.BodyLimitMB = 32
	assert.Equal(t, 32<<20, bodyLimit(cfg))
}
