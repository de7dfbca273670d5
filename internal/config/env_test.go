package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nutricare/nutricare/internal/config"
)

func TestString(t *testing.T) {
	t.Setenv("NUTRICARE_TEST_STRING", "value")
	assert.Equal(t, "value", config.String("NUTRICARE_TEST_STRING", "default"))
	assert.Equal(t, "default", config.String("NUTRICARE_TEST_UNSET", "default"))
}

func TestInt(t *testing.T) {
	t.Setenv("NUTRICARE_TEST_INT", "25002")
	t.Setenv("NUTRICARE_TEST_BAD_INT", "port")
	assert.Equal(t, 25002, config.Int("NUTRICARE_TEST_INT", 1))
	assert.Equal(t, 1, config.Int("NUTRICARE_TEST_BAD_INT", 1))
	assert.Equal(t, 1, config.Int("NUTRICARE_TEST_UNSET", 1))
}

func TestDuration(t *testing.T) {
	t.Setenv("NUTRICARE_TEST_DURATION", "45s")
	t.Setenv("NUTRICARE_TEST_BAD_DURATION", "45")
	assert.Equal(t, 45*time.Second, config.Duration("NUTRICARE_TEST_DURATION", time.Second))
	assert.Equal(t, time.Second, config.Duration("NUTRICARE_TEST_BAD_DURATION", time.Second))
}

func TestBool(t *testing.T) {
	t.Setenv("NUTRICARE_TEST_TRUE", "true")
	t.Setenv("NUTRICARE_TEST_ONE", "1")
	t.Setenv("NUTRICARE_TEST_NO", "yes")
	assert.True(t, config.Bool("NUTRICARE_TEST_TRUE"))
	assert.True(t, config.Bool("NUTRICARE_TEST_ONE"))
	assert.False(t, config.Bool("NUTRICARE_TEST_NO"))
	assert.False(t, config.Bool("NUTRICARE_TEST_UNSET"))
}
