package db

import (
	"testing"

	"github.com/jmehdipour/teams-notify/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestEmptyDSNIsRejected(t *testing.T) {
	_, err := NewMySQLConnection(config.DatabaseConfig{})
	assert.ErrorIs(t, err, ErrNoDSN)

	_, err = NewClickHouseConnection(config.DatabaseConfig{})
	assert.ErrorIs(t, err, ErrNoDSN)

	_, err = NewRedisClient(config.RedisConfig{})
	assert.ErrorIs(t, err, ErrNoRedisAddr)
}
