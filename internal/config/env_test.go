package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("LUMPIAH_TEST_STR", "value")

	assert.Equal(t, "value", GetEnv("LUMPIAH_TEST_STR", "fallback"))
	assert.Equal(t, "fallback", GetEnv("LUMPIAH_TEST_UNSET", "fallback"))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("LUMPIAH_TEST_INT", "6")
	t.Setenv("LUMPIAH_TEST_BAD_INT", "six")

	assert.Equal(t, 6, GetEnvInt("LUMPIAH_TEST_INT", 1))
	assert.Equal(t, 1, GetEnvInt("LUMPIAH_TEST_BAD_INT", 1))
	assert.Equal(t, 1, GetEnvInt("LUMPIAH_TEST_UNSET", 1))
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("LUMPIAH_TEST_BOOL", "true")
	t.Setenv("LUMPIAH_TEST_BAD_BOOL", "yes please")

	assert.True(t, GetEnvBool("LUMPIAH_TEST_BOOL", false))
	assert.False(t, GetEnvBool("LUMPIAH_TEST_BAD_BOOL", false))
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("LUMPIAH_TEST_DUR", "250ms")
	t.Setenv("LUMPIAH_TEST_BAD_DUR", "5")

	assert.Equal(t, 250*time.Millisecond, GetEnvDuration("LUMPIAH_TEST_DUR", time.Second))
	assert.Equal(t, time.Second, GetEnvDuration("LUMPIAH_TEST_BAD_DUR", time.Second))
}
