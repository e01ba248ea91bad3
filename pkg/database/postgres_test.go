package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/booking-engine-api/pkg/config"
)

func TestDSNPinsSessionTimezone(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "booking", Password: "secret", Name: "booking", SSLMode: "disable"})

	assert.Contains(t, dsn, "host=db port=5432")
	assert.Contains(t, dsn, "sslmode=disable")
	assert.Contains(t, dsn, "timezone=UTC")
}
