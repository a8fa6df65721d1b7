package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "explorer.log")

	closer, err := Setup(path, "debug")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = closer.Close()
		Logger = zerolog.Nop()
	})

	log := For("test")
	log.Debug().Str("node", "suite-1").Msg("recalculated")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"test"`)
	assert.Contains(t, string(data), `"node":"suite-1"`)
}

func TestSetup_EmptyPathDisablesLogging(t *testing.T) {
	closer, err := Setup("", "info")
	require.NoError(t, err)
	assert.NoError(t, closer.Close())
}
