package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luigitni/rbfdb/config"
)

func TestDefaultOptions(t *testing.T) {
	o := config.New()
	require.Equal(t, ".", o.BaseDir)
}

func TestWithBaseDir(t *testing.T) {
	o := config.New(config.WithBaseDir("/tmp/data"))
	require.Equal(t, "/tmp/data", o.BaseDir)
}
