package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistered_IncludesBuiltins(t *testing.T) {
	names := Registered()
	assert.Contains(t, names, "mysql")
	assert.Contains(t, names, "postgres")
	assert.Contains(t, names, "sqlite")
}

func TestNew_UnknownSoftware(t *testing.T) {
	_, err := New(Config{Software: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown software")
}

func TestNew_CaseInsensitive(t *testing.T) {
	p, err := New(Config{Software: "MySQL", Host: "localhost", Port: 3306, Database: "d"})
	require.NoError(t, err)
	require.NotNil(t, p)
	_ = p.Close()
}

func TestRegister_DuplicatePanics(t *testing.T) {
	assert.Panics(t, func() {
		Register("mysql", func(Config) (ConnectionProvider, error) { return nil, nil })
	})
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultMaxConnections, cfg.MaxConnections)
	assert.Equal(t, DefaultMaxRetries, cfg.MaxRetries)
	assert.Equal(t, DefaultRetryInterval, cfg.RetryInterval)
}
