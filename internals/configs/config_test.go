package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("SB_INT", "42")
	t.Setenv("SB_BAD_INT", "x")
	t.Setenv("SB_BOOL", "true")
	t.Setenv("SB_DUR", "90s")
	t.Setenv("SB_DUR_SECONDS", "7")

	assert.Equal(t, 42, GetEnvInt("SB_INT", 1))
	assert.Equal(t, 1, GetEnvInt("SB_BAD_INT", 1))
	assert.Equal(t, 3, GetEnvInt("SB_MISSING", 3))
	assert.True(t, GetEnvBool("SB_BOOL", false))
	assert.False(t, GetEnvBool("SB_MISSING", false))
	assert.Equal(t, 90*time.Second, GetEnvDuration("SB_DUR", time.Second))
	assert.Equal(t, 7*time.Second, GetEnvDuration("SB_DUR_SECONDS", time.Second))
	assert.Equal(t, time.Minute, GetEnvDuration("SB_MISSING", time.Minute))
	assert.Equal(t, "fallback", GetEnv("SB_MISSING", "fallback"))
}

func TestDatabaseDSN(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_USER", "sb")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_NAME", "books")
	t.Setenv("DB_SSLMODE", "require")

	assert.Equal(t, "postgres://sb:secret@db:6543/books?sslmode=require&application_name=sharebook", DatabaseDSN())

	t.Setenv("DATABASE_URL", "postgres://override")
	assert.Equal(t, "postgres://override", DatabaseDSN())
}
